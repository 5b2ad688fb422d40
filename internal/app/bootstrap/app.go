package bootstrap

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skolarrs/leadintake/internal/api/router"
	appconfig "github.com/skolarrs/leadintake/internal/config"
	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/internal/notify"
	"github.com/skolarrs/leadintake/internal/observability/metrics"
	"github.com/skolarrs/leadintake/pkg/logging"
)

// App is the fully wired intake service.
type App struct {
	Handler http.Handler
	Metrics *metrics.LeadMetrics
	closers []func()
}

// Close releases the limiter, Redis and database resources.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// BuildMetrics creates a private registry with runtime collectors and the
// lead metrics, and the handler that exposes it.
func BuildMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	leadMetrics := metrics.NewLeadMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), leadMetrics
}

// Build wires configuration, the email sender and optional backing services
// into an HTTP handler. sender may be nil; requests then fail with the
// missing configuration response.
func Build(ctx context.Context, cfg *appconfig.Config, settings notify.Settings, sender notify.EmailSender, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.Default()
	}
	app := &App{}

	metricsHandler, leadMetrics := BuildMetrics()
	app.Metrics = leadMetrics

	notifier := notify.NewService(sender, settings, leadMetrics, logger)
	if err := notifier.Ready(); err != nil {
		logger.Warn("email delivery not configured", "error", err)
	}

	archive, closeArchive := BuildArchive(ctx, cfg, logger)
	app.closers = append(app.closers, closeArchive)

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	limiter, closeLimiter := BuildRateLimiter(cfg, redisClient, logger)
	app.closers = append(app.closers, closeLimiter)

	leadsHandler := leads.NewHandler(leads.HandlerConfig{
		Notifier: notifier,
		Archive:  archive,
		Variant:  leads.ParseVariant(cfg.LeadFormVariant),
		Recorder: leadMetrics,
		Logger:   logger,
	})

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		RateLimiter:        limiter,
		OnRateLimited:      leadMetrics.ObserveRateLimited,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
	})
	return app
}
