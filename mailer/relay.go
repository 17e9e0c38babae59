package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailer delivers a message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// RelayMailer posts messages to an SMTP relay's sendEmail API.
type RelayMailer struct {
	URL    string
	Client *http.Client
}

func NewRelayMailer(url string) *RelayMailer {
	return &RelayMailer{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type relayResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

func (m *RelayMailer) Send(ctx context.Context, msg Message) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL+"/api/sendEmail", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("send email: relay returned %d: %s", resp.StatusCode, body)
	}

	var rr relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("decode relay response: %w", err)
	}
	return rr.MessageID, nil
}
