package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	accountBase        = "/api/v1/account"
	adminBase          = "/api/v1/admin"
	transactionBase    = "/api/v2/transaction"
	balanceRequestBase = "/api/v2/balance-request"

	idempotencyHeader = "X-Idempotency-Key"
)

// StatusError is returned for non-2xx responses. It carries only the HTTP
// status text; the backend envelope is not consulted in that case.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed: %s", e.Text)
}

// BackendError is a business-rule rejection delivered inside a 2xx envelope
// with success=false. The message is surfaced verbatim, never re-derived.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string { return e.Message }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client issues one HTTP request per call against the backend origin. No
// retry, no backoff. Cookies are kept in a jar so every request carries the
// backend's session credentials.
type Client struct {
	origin string
	http   *http.Client
	logger *zap.Logger
}

func NewClient(origin string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		origin: strings.TrimRight(origin, "/"),
		http:   &http.Client{Jar: jar, Timeout: timeout},
		logger: logger,
	}, nil
}

// request performs one call and decodes the envelope data into T. The
// backend message is returned alongside the data so callers can surface it.
func request[T any](ctx context.Context, c *Client, method, path string, body any, headers map[string]string) (T, string, error) {
	var zero T

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, reqBody)
	if err != nil {
		return zero, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("request returned non-2xx status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return zero, "", &StatusError{Code: resp.StatusCode, Text: http.StatusText(resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, "", fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if !env.Success {
		return zero, env.Message, &BackendError{Message: env.Message}
	}

	var data T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return zero, env.Message, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return data, env.Message, nil
}
