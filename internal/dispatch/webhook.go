package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/example/commute-matching/internal/models"
)

// HTTPDispatcher posts notifications to the notification service.
type HTTPDispatcher struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPDispatcher(endpoint string, timeout time.Duration) *HTTPDispatcher {
	return &HTTPDispatcher{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (d *HTTPDispatcher) Notify(ctx context.Context, n models.Notification) error {
	const op = "HTTPDispatcher.Notify"
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: notification service returned %s", op, resp.Status)
	}
	return nil
}
