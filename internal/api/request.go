package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rickgao/tickplant/internal/metrics"
)

// ErrUnauthorized matches any APIError carrying 401 or 403. A request that
// straddles a session renewal can fail this way and is safe to retry.
var ErrUnauthorized = errors.New("unauthorized")

// APIError represents a non-success response from the exchange.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange api error %d: %s", e.StatusCode, e.Message)
}

// Is reports auth failures as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// errorBody is the exchange's error envelope.
type errorBody struct {
	ErrorType string `json:"error_type"`
}

// doRequest performs an HTTP request against pathAndQuery, relative to the
// base URL. endpoint is a low-cardinality name used for metrics and logs.
func (c *Client) doRequest(ctx context.Context, method, endpoint, pathAndQuery string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		header, err := c.session.AuthHeader()
		if err != nil {
			return nil, fmt.Errorf("auth header: %w", err)
		}
		req.Header.Set("Authorization", header)
	}

	c.logger.Debug("calling url", "method", method, "url", req.URL.String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, endpoint, metrics.StatusClass(0)).Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(method, endpoint, metrics.StatusClass(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       respBody,
		}
	}

	return respBody, nil
}

// get performs a GET request and decodes the JSON response into result.
func (c *Client) get(ctx context.Context, endpoint, pathAndQuery string, result any) error {
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, pathAndQuery, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
