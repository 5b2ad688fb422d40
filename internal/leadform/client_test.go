package leadform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

type okNotifier struct {
	sent []leads.LeadInput
}

func (n *okNotifier) Ready() error { return nil }

func (n *okNotifier) NotifyNewLead(_ context.Context, lead leads.LeadInput) error {
	n.sent = append(n.sent, lead)
	return nil
}

func TestClientSubmitsToIntakeEndpoint(t *testing.T) {
	notifier := &okNotifier{}
	handler := leads.NewHandler(leads.HandlerConfig{Notifier: notifier, Logger: logging.Discard()})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lead", handler.CreateLead)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/"}, logging.Discard())
	err := client.SubmitLead(context.Background(), leads.Sanitize(validLead()))
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Asha Rao", notifier.sent[0].Name)
}

func TestClientDecodesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":  leads.MsgFixErrors,
			"errors": map[string]string{"email": "Enter a valid email address."},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, logging.Discard())
	err := client.SubmitLead(context.Background(), validLead())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, leads.MsgFixErrors, apiErr.Message)
	assert.Equal(t, "Enter a valid email address.", apiErr.Errors[leads.FieldEmail])
	assert.Contains(t, apiErr.Error(), "400")
}

func TestClientNonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, logging.Discard())
	err := client.SubmitLead(context.Background(), validLead())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(ClientConfig{BaseURL: url}, logging.Discard())
	err := client.SubmitLead(context.Background(), validLead())

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
