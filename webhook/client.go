package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/seedwarden/checker"
)

// Client posts check notifications to a webhook URL
type Client struct {
	url        string
	format     Format
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithFormat sets the payload format
func WithFormat(format Format) Option {
	return func(c *Client) {
		c.format = format
	}
}

// NewClient creates a new webhook client
func NewClient(url string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}

	client := &Client{
		url:    url,
		format: FormatJSON,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if !client.format.Valid() {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, client.format)
	}

	return client, nil
}

// Notify posts n to the webhook
func (c *Client) Notify(ctx context.Context, n checker.Notification) error {
	body, err := json.Marshal(buildPayload(c.format, n, c.now()))
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	if err := c.doRequest(ctx, body); err != nil {
		return err
	}

	c.logger.Debug().
		Str("format", string(c.format)).
		Str("title", n.Title).
		Msg("Webhook notification sent")

	return nil
}

// doRequest performs the POST and maps failures to APIError
func (c *Client) doRequest(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "seedwarden")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
