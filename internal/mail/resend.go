package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"casetrack-backend/internal/shared/telemetry"
)

const (
	defaultAPIURL = "https://api.resend.com/emails"
	defaultFrom   = "CaseTrack <onboarding@resend.dev>"
)

// ResendMailer sends email through the Resend REST API. Without an API key
// it degrades to a logged no-op success so callers never fail on missing
// mail credentials.
type ResendMailer struct {
	apiKey     string
	from       string
	apiURL     string
	httpClient *http.Client
}

// NewResendMailer constructs a ResendMailer. apiKey may be empty.
func NewResendMailer(apiKey, from string) *ResendMailer {
	if strings.TrimSpace(from) == "" {
		from = defaultFrom
	}
	return &ResendMailer{
		apiKey: strings.TrimSpace(apiKey),
		from:   from,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Send delivers the email, or simulates delivery when no key is configured.
func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.apiKey == "" {
		telemetry.Info("mail.simulated", map[string]any{
			"to":      to,
			"subject": subject,
		})
		return nil
	}

	payload, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed sendResponse
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
			return fmt.Errorf("mail api status %d: %s", resp.StatusCode, parsed.Message)
		}
		return fmt.Errorf("mail api status %d", resp.StatusCode)
	}

	var parsed sendResponse
	_ = json.Unmarshal(body, &parsed)
	telemetry.Info("mail.sent", map[string]any{
		"to":      to,
		"subject": subject,
		"mail_id": parsed.ID,
	})
	return nil
}

var _ Mailer = (*ResendMailer)(nil)
