package mainconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/skolarrs/leadintake/internal/config"
	"github.com/skolarrs/leadintake/internal/notify"
	"github.com/skolarrs/leadintake/pkg/logging"
)

func TestNewEmailSenderResend(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "resend", ResendAPIKey: "re_test", ResendBaseURL: "http://localhost:1"}
	sender, err := NewEmailSender(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.ResendSender{}, sender)
}

func TestNewEmailSenderMissingKeyIsNil(t *testing.T) {
	for _, provider := range []string{"resend", "sendgrid"} {
		cfg := &appconfig.Config{EmailProvider: provider}
		sender, err := NewEmailSender(context.Background(), cfg, logging.Discard())
		require.NoError(t, err)
		assert.Nil(t, sender, provider)
	}
}

func TestNewEmailSenderSendGrid(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test"}
	sender, err := NewEmailSender(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.SendGridSender{}, sender)
}

func TestNewEmailSenderSES(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:       "ses",
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}
	sender, err := NewEmailSender(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)
}

func TestNewEmailSenderUnknown(t *testing.T) {
	_, err := NewEmailSender(context.Background(), &appconfig.Config{EmailProvider: "pigeon"}, logging.Discard())
	assert.Error(t, err)
}

func TestNotifySettings(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:    "sendgrid",
		SendGridAPIKey:   "SG.key",
		ResendFrom:       "hello@skolarrs.com",
		ResendTo:         "ops@skolarrs.com, sales@skolarrs.com",
		ResendCC:         []string{"cc@skolarrs.com"},
		SendConfirmation: true,
		EmailBrandName:   "Skolarrs Solutions",
	}
	settings := NotifySettings(cfg)
	assert.Equal(t, notify.ProviderSendGrid, settings.Provider)
	assert.Equal(t, "SG.key", settings.APIKey)
	assert.Equal(t, []string{"ops@skolarrs.com", "sales@skolarrs.com"}, settings.To)
	assert.NoError(t, settings.Check())
}
