package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendWithoutKeyIsLoggedNoOp(t *testing.T) {
	m := NewResendMailer("", "")

	if err := m.Send(context.Background(), "to@example.com", "subject", "<p>hi</p>"); err != nil {
		t.Fatalf("expected simulated success, got %v", err)
	}
}

func TestSendPostsToAPI(t *testing.T) {
	var got sendRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(sendResponse{ID: "mail-1"})
	}))
	defer server.Close()

	m := NewResendMailer("rk_test", "CaseTrack <reminders@casetrack.dev>")
	m.apiURL = server.URL

	if err := m.Send(context.Background(), "to@example.com", "Hearing reminder", "<p>hi</p>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer rk_test" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "to@example.com" {
		t.Fatalf("unexpected recipients: %v", got.To)
	}
	if got.From != "CaseTrack <reminders@casetrack.dev>" {
		t.Fatalf("unexpected from: %q", got.From)
	}
	if got.Subject != "Hearing reminder" {
		t.Fatalf("unexpected subject: %q", got.Subject)
	}
}

func TestSendSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(sendResponse{Message: "invalid to address"})
	}))
	defer server.Close()

	m := NewResendMailer("rk_test", "")
	m.apiURL = server.URL

	err := m.Send(context.Background(), "bad", "subject", "<p>hi</p>")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "invalid to address") {
		t.Fatalf("error should carry status and message: %v", err)
	}
}

func TestSendDefaultsFromAddress(t *testing.T) {
	m := NewResendMailer("rk_test", "   ")
	if m.from != defaultFrom {
		t.Fatalf("expected default from, got %q", m.from)
	}
}
