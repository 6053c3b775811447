package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors
var (
	ErrWebhookStatus = errors.New("webhook returned non-2xx status")
)

// Webhook pings a downstream consumer that new published data is available.
// Delivery is fire-and-forget: one attempt, no retries, and the caller is
// expected to log and move on if it fails.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier with a bounded per-call timeout.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify performs the ping. The payload carries no body. The consumer
// re-queries the public endpoints on receipt, so a plain GET is enough.
func (w *Webhook) Notify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrWebhookStatus, resp.StatusCode)
	}
	return nil
}
