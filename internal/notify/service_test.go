package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

type mockEmailSender struct {
	sent      []EmailMessage
	failOn    string // fail when Subject matches
	callCount int
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	m.callCount++
	if m.failOn != "" && msg.Subject == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockRecorder struct {
	emails  []string
	latency int
}

func (m *mockRecorder) ObserveEmail(kind, status string) {
	m.emails = append(m.emails, kind+":"+status)
}

func (m *mockRecorder) ObserveDispatchLatency(string, float64) {
	m.latency++
}

func testSettings() Settings {
	return Settings{
		Provider:         ProviderResend,
		APIKey:           "re_test",
		From:             "Skolarrs <hello@skolarrs.com>",
		To:               []string{"ops@skolarrs.com"},
		CC:               []string{" counsel@skolarrs.com ", "", "counsel@skolarrs.com"},
		SendConfirmation: true,
	}
}

func testLead() leads.LeadInput {
	return leads.Sanitize(leads.LeadInput{
		Name:             "Asha Rao",
		Email:            "asha@example.com",
		Phone:            "+91 98765 43210",
		City:             "Pune",
		DesiredCourse:    "MS",
		PreferredCountry: "Germany",
		Intake:           "Sep 2026",
		Source:           "Hero Form",
	})
}

func TestSettingsCheck(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		missing []string
	}{
		{"complete", func(*Settings) {}, nil},
		{"no api key", func(s *Settings) { s.APIKey = "" }, []string{"api_key"}},
		{"no from or to", func(s *Settings) { s.From = ""; s.To = nil }, []string{"from", "to"}},
		{"ses needs no key", func(s *Settings) { s.Provider = ProviderSES; s.APIKey = "" }, nil},
		{"stub needs no key", func(s *Settings) { s.Provider = ProviderStub; s.APIKey = "" }, nil},
		{"unknown provider needs key", func(s *Settings) { s.Provider = ""; s.APIKey = " " }, []string{"api_key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			tt.mutate(&s)
			err := s.Check()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.missing, cfgErr.Missing)
		})
	}
}

func TestService_ReadyRequiresSender(t *testing.T) {
	svc := NewService(nil, testSettings(), nil, logging.Discard())
	var cfgErr *ConfigError
	require.ErrorAs(t, svc.Ready(), &cfgErr)
	assert.Equal(t, []string{"sender"}, cfgErr.Missing)
}

func TestService_NotifyNewLead_SendsBothMessages(t *testing.T) {
	sender := &mockEmailSender{}
	recorder := &mockRecorder{}
	svc := NewService(sender, testSettings(), recorder, logging.Discard())

	err := svc.NotifyNewLead(context.Background(), testLead())
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	operator := sender.sent[0]
	assert.Equal(t, "Skolarrs <hello@skolarrs.com>", operator.From)
	assert.Equal(t, []string{"ops@skolarrs.com"}, operator.To)
	assert.Equal(t, []string{"counsel@skolarrs.com"}, operator.CC)
	assert.Equal(t, "asha@example.com", operator.ReplyTo)
	assert.Equal(t, "New counselling enquiry from Asha Rao", operator.Subject)
	assert.Contains(t, operator.Text, "Preferred Country: Germany")
	assert.Contains(t, operator.Text, "Source: Hero Form")
	assert.Contains(t, operator.HTML, "<table")

	confirmation := sender.sent[1]
	assert.Equal(t, []string{"asha@example.com"}, confirmation.To)
	assert.Empty(t, confirmation.CC)
	assert.Empty(t, confirmation.ReplyTo)
	assert.Equal(t, "We received your request", confirmation.Subject)
	assert.True(t, strings.HasPrefix(confirmation.Text, "Hi Asha Rao,"))
	assert.Contains(t, confirmation.Text, "Skolarrs Solutions")

	assert.Equal(t, []string{"operator:sent", "confirmation:sent"}, recorder.emails)
	assert.Equal(t, 2, recorder.latency)
}

func TestService_NotifyNewLead_ConfirmationDisabled(t *testing.T) {
	sender := &mockEmailSender{}
	settings := testSettings()
	settings.SendConfirmation = false
	svc := NewService(sender, settings, nil, logging.Discard())

	require.NoError(t, svc.NotifyNewLead(context.Background(), testLead()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ops@skolarrs.com"}, sender.sent[0].To)
}

func TestService_NotifyNewLead_OperatorFailureStopsConfirmation(t *testing.T) {
	sender := &mockEmailSender{failOn: "New counselling enquiry from Asha Rao"}
	recorder := &mockRecorder{}
	svc := NewService(sender, testSettings(), recorder, logging.Discard())

	err := svc.NotifyNewLead(context.Background(), testLead())
	require.ErrorIs(t, err, ErrDispatchFailed)
	assert.Equal(t, 1, sender.callCount)
	assert.Equal(t, []string{"operator:failed"}, recorder.emails)
}

func TestService_NotifyNewLead_ConfirmationFailureIsTotalFailure(t *testing.T) {
	sender := &mockEmailSender{failOn: "We received your request"}
	svc := NewService(sender, testSettings(), nil, logging.Discard())

	err := svc.NotifyNewLead(context.Background(), testLead())
	require.ErrorIs(t, err, ErrDispatchFailed)
	assert.Equal(t, 2, sender.callCount)
	assert.Len(t, sender.sent, 1, "operator email went out; the failure is still reported as a whole")
}

func TestService_NotifyNewLead_NotReady(t *testing.T) {
	sender := &mockEmailSender{}
	settings := testSettings()
	settings.APIKey = ""
	svc := NewService(sender, settings, nil, logging.Discard())

	err := svc.NotifyNewLead(context.Background(), testLead())
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, sender.callCount)
}

func TestService_DefaultBrandName(t *testing.T) {
	svc := NewService(&mockEmailSender{}, testSettings(), nil, nil)
	msg := svc.ConfirmationMessage(testLead())
	assert.Contains(t, msg.HTML, "Skolarrs Solutions")

	settings := testSettings()
	settings.BrandName = "Acme Overseas"
	svc = NewService(&mockEmailSender{}, settings, nil, nil)
	assert.Contains(t, svc.ConfirmationMessage(testLead()).Text, "Acme Overseas")
}
