package clients

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// RetryPolicy controls DoWithRetry. A zero MaxBackoff leaves the backoff
// uncapped; a nil Retryable retries 5xx answers only.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(status int) bool
	Component      string
}

func RetryServerErrors(status int) bool {
	return status >= 500
}

func RetryThrottledAndServerErrors(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry sends req, retrying transport errors and retryable statuses with
// exponential backoff. The request body is rewound through GetBody between
// attempts. Once attempts run out on a retryable status the last response is
// returned so the caller can inspect it.
func DoWithRetry(client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	retryable := policy.Retryable
	if retryable == nil {
		retryable = RetryServerErrors
	}
	component := policy.Component
	if component == "" {
		component = "HTTP"
	}

	var resp *http.Response
	var err error
	backoff := policy.InitialBackoff
	attempts := max(policy.Attempts, 1)

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			req.Body = body
		}

		resp, err = client.Do(req)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}

		slog.Warn(fmt.Sprintf("[%s] Request failed, will retry", component),
			slog.String("url", req.URL.Host+req.URL.Path),
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if attempt == attempts-1 {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if policy.MaxBackoff > 0 {
			backoff = min(backoff, policy.MaxBackoff)
		}
	}

	if err == nil && resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, err)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
