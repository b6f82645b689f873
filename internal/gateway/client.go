// Package gateway is the authenticated REST client for the agent gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/agentconsole/internal/config"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/soyeahso/agentconsole/internal/session"
	"github.com/soyeahso/agentconsole/internal/version"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 * 1024 * 1024

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client issues authenticated calls to the gateway.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	log     *logging.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg config.GatewayConfig, tokens TokenSource, log *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultGatewayTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
		log:     log.Sub("gateway"),
	}
}

// do performs one call. The token is read first; without one no request is
// made. out may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return err
		}
		return fmt.Errorf("%s: reading session: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	reqID := uuid.New().String()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("requestId", reqID).
		Dur("duration", time.Since(start)).
		Msg("gateway call")

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return session.ErrNotAuthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, respBody)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	var shape ErrorShape
	if json.Unmarshal(respBody, &shape) == nil && shape.Error != "" {
		return &RemoteError{Op: op, Status: resp.StatusCode, Code: shape.Code, Message: shape.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Message: "unparseable response: " + err.Error()}
	}
	return nil
}

func newStatusError(op string, status int, body []byte) *RemoteError {
	var shape ErrorShape
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &shape) == nil && shape.text() != "" {
		msg = shape.text()
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &RemoteError{Op: op, Status: status, Code: shape.Code, Message: msg}
}
