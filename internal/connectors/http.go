package connectors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spacesedan/sentimas/internal/clients"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
)

// StatusError carries a non-2xx answer and its body so connectors can map
// platform error payloads.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// doJSON sends req, retrying 429 and 5xx answers with exponential backoff,
// and decodes a 2xx body into out.
func doJSON(client *http.Client, req *http.Request, backoff time.Duration, out any) error {
	resp, err := clients.DoWithRetry(client, req, clients.RetryPolicy{
		Attempts:       maxRetries,
		InitialBackoff: backoff,
		Retryable:      clients.RetryThrottledAndServerErrors,
		Component:      "Connectors",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: body}
		if clients.RetryThrottledAndServerErrors(resp.StatusCode) {
			return fmt.Errorf("request failed after %d attempts: %w", maxRetries, statusErr)
		}
		return statusErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
