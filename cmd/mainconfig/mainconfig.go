package mainconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/skolarrs/leadintake/internal/config"
	"github.com/skolarrs/leadintake/internal/notify"
	"github.com/skolarrs/leadintake/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so the API server and the
// Lambda share the same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}
	return awsCfg, nil
}

// NewSESClient builds an SES v2 client, honoring AWS_ENDPOINT_OVERRIDE.
func NewSESClient(awsCfg aws.Config, cfg *appconfig.Config) *sesv2.Client {
	return sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// NewEmailSender picks the delivery backend named by EMAIL_PROVIDER. A
// provider missing its credentials yields a nil sender; the notification
// service then reports the gap as a configuration error per request.
func NewEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case notify.ProviderResend, "":
		sender := notify.NewResendSender(notify.ResendConfig{
			APIKey:  cfg.ResendAPIKey,
			BaseURL: cfg.ResendBaseURL,
		}, logger)
		if sender == nil {
			logger.Warn("resend api key missing; lead emails disabled")
			return nil, nil
		}
		return sender, nil
	case notify.ProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{APIKey: cfg.SendGridAPIKey}, logger)
		if sender == nil {
			logger.Warn("sendgrid api key missing; lead emails disabled")
			return nil, nil
		}
		return sender, nil
	case notify.ProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notify.NewSESSender(NewSESClient(awsCfg, cfg), logger), nil
	case notify.ProviderStub:
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// NotifySettings maps configuration onto the notification service settings.
func NotifySettings(cfg *appconfig.Config) notify.Settings {
	provider := cfg.EmailProvider
	if provider == "" {
		provider = notify.ProviderResend
	}
	return notify.Settings{
		Provider:         provider,
		APIKey:           cfg.EmailAPIKey(),
		From:             cfg.ResendFrom,
		To:               cfg.OperatorRecipients(),
		CC:               cfg.ResendCC,
		SendConfirmation: cfg.SendConfirmation,
		BrandName:        cfg.EmailBrandName,
	}
}
