package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// LogSink writes notices to the standard logger.
type LogSink struct{}

// Notify logs the notice.
func (LogSink) Notify(_ context.Context, managerID uuid.UUID, n types.StageNotice) error {
	log.Printf("[notify] manager %s: %s <%s> moved to %q (application %s)", managerID, n.Name, n.Email, n.ToStageName, n.ApplicationID)
	return nil
}

// WebhookPayload is the JSON body posted by WebhookSink.
type WebhookPayload struct {
	ManagerID uuid.UUID         `json:"manager_id"`
	Notice    types.StageNotice `json:"notice"`
}

// WebhookSink posts notices as JSON to a URL.
type WebhookSink struct {
	URL    string
	Client *http.Client
}

// NewWebhookSink creates a WebhookSink with a bounded HTTP client.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Notify posts the notice. Any non-2xx response is an error so the dispatcher retries.
func (s *WebhookSink) Notify(ctx context.Context, managerID uuid.UUID, n types.StageNotice) error {
	body, err := json.Marshal(WebhookPayload{ManagerID: managerID, Notice: n})
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// MultiSink delivers to every sink and joins their errors.
type MultiSink []Sink

// Notify delivers to each sink in order.
func (m MultiSink) Notify(ctx context.Context, managerID uuid.UUID, n types.StageNotice) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, managerID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
