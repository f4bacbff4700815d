// Package agent talks to the external agent API that performs enrichment runs.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/octobees/anycrm/internal/dto"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

type requestIDKey struct{}

// WithRequestID attaches a request id forwarded as X-Request-ID on agent calls.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(requestIDKey{}).(string); ok {
		return val
	}
	return ""
}

// Client posts run requests to the agent.
type Client struct {
	client *http.Client
}

// NewClient builds an agent client. A nil client gets a fresh http.Client with
// the given timeout.
func NewClient(client *http.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{client: client}
}

// Run issues a single POST {baseURL}/run. Any transport error or non-2xx
// answer is returned; nothing is retried.
func (c *Client) Run(ctx context.Context, baseURL, apiKey string, payload dto.AgentRunRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal run request: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + "/run"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("agent error: %s: %s", resp.Status, extractError(resp.Body))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return "agent returned an error"
	}

	var payload struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, msg := range []string{payload.Error, payload.Detail, payload.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(data))
}
