package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookChecker posts each alert trigger to a webhook URL as a JSON
// payload. Suitable for Slack-style incoming webhooks or any collector that
// accepts POSTed JSON.
type WebhookChecker struct {
	webhookURL string
	username   string
	client     *http.Client
}

// WebhookOption is a functional option for WebhookChecker.
type WebhookOption func(*WebhookChecker)

// WithUsername sets the sender name included in the payload.
func WithUsername(username string) WebhookOption {
	return func(w *WebhookChecker) {
		w.username = username
	}
}

// WithHTTPClient overrides the HTTP client used for delivery.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(w *WebhookChecker) {
		w.client = client
	}
}

// NewWebhookChecker creates a webhook-backed checker.
func NewWebhookChecker(webhookURL string, opts ...WebhookOption) *WebhookChecker {
	w := &WebhookChecker{
		webhookURL: webhookURL,
		username:   "webtest",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type webhookMessage struct {
	Username string         `json:"username,omitempty"`
	Alert    string         `json:"alert"`
	Payload  map[string]any `json:"payload,omitempty"`
	Time     string         `json:"time"`
}

func (w *WebhookChecker) Check(kind Kind, payload map[string]any) error {
	msg := webhookMessage{
		Username: w.username,
		Alert:    string(kind),
		Payload:  payload,
		Time:     time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling alert payload: %w", err)
	}

	resp, err := w.client.Post(w.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("posting alert webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("alert webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
