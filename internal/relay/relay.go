// Package relay forwards submitted public forms to a third-party inbox
// endpoint that accepts JSON.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	subjectField   = "_subject"
	defaultTimeout = 10 * time.Second
)

// Config describes the relay endpoint. An empty Endpoint disables relaying.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client posts form fields to the relay endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New constructs a Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Send posts fields plus the subject line. It is a no-op when disabled.
func (c *Client) Send(ctx context.Context, subject string, fields map[string]string) error {
	if !c.Enabled() {
		return nil
	}
	payload := make(map[string]string, len(fields)+1)
	for key, value := range fields {
		payload[key] = value
	}
	if subject != "" {
		payload[subjectField] = subject
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("relay: endpoint responded with status %d", response.StatusCode)
	}
	c.logger.Debug("form relayed", zap.String("subject", subject))
	return nil
}
