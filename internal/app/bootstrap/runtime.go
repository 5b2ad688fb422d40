package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/skolarrs/leadintake/internal/config"
	httpmiddleware "github.com/skolarrs/leadintake/internal/http/middleware"
	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRateLimiter prefers a Redis fixed window shared by every instance and
// falls back to an in-process token bucket. A non-positive rate disables
// limiting. The returned func releases limiter resources.
func BuildRateLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (httpmiddleware.Limiter, func()) {
	if cfg == nil || cfg.RateLimitPerMinute <= 0 {
		return nil, func() {}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		limit := cfg.RateLimitPerMinute + cfg.RateLimitBurst
		logger.Info("rate limiting via redis", "limit_per_minute", limit)
		return httpmiddleware.NewRedisLimiter(redisClient, limit, time.Minute, logger), func() {}
	}
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	logger.Info("rate limiting in memory", "per_minute", cfg.RateLimitPerMinute, "burst", cfg.RateLimitBurst)
	return limiter, limiter.Close
}

// BuildArchive connects the Postgres lead archive when DATABASE_URL is set
// and otherwise keeps accepted leads in memory. Connection failures degrade
// to memory since the archive never gates a submission.
func BuildArchive(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Repository, func()) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return leads.NewInMemoryRepository(), func() {}
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("lead archive unavailable; using memory", "error", err)
		return leads.NewInMemoryRepository(), func() {}
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("lead archive ping failed; using memory", "error", err)
		pool.Close()
		return leads.NewInMemoryRepository(), func() {}
	}
	logger.Info("lead archive connected")
	return leads.NewPostgresRepository(pool), pool.Close
}
