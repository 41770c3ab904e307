package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

var (
	httpClient   = &http.Client{Timeout: requestTimeout}
	retryBackoff = time.Second
)

// permanentError is a delivery failure that retrying cannot fix.
type permanentError struct{ status int }

func (e permanentError) Error() string {
	if e.status == 0 {
		return "webhook request invalid"
	}
	return fmt.Sprintf("webhook rejected: HTTP %d", e.status)
}

// Send posts event to the webhook in cfg. Transport errors and 5xx answers
// are retried with linear backoff; 4xx answers are not.
func Send(ctx context.Context, cfg Config, event Event) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		lastErr = post(ctx, cfg, body)
		if lastErr == nil {
			return nil
		}
		if _, ok := lastErr.(permanentError); ok {
			return lastErr
		}
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", maxRetries, lastErr)
}

func post(ctx context.Context, cfg Config, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return permanentError{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "chatguard-alert")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return permanentError{status: resp.StatusCode}
	default:
		return fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}
}
