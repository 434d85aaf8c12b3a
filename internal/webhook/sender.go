package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"freight-dispatch/internal/dispatch"
)

// Client posts assembled call batches to the trigger transport. One POST per
// cycle; any non-2xx response fails the whole batch so nothing is marked as
// called.
type Client struct {
	url  string
	http *http.Client
	log  *slog.Logger
}

func NewClient(url string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (c *Client) Send(ctx context.Context, b dispatch.Batch) error {
	if c.url == "" {
		return fmt.Errorf("webhook: url not configured")
	}

	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("webhook: encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: post returned %d: %s", resp.StatusCode, snippet)
	}

	c.log.Info("batch webhook sent", "status", resp.StatusCode, "total_calls", b.TotalCalls)
	return nil
}
