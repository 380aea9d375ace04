package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// Client talks to the LAN print bridge that drives the thermal printers.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// NewClient builds a bridge client. Retries are left to the print queue, the
// breaker only keeps a dead bridge from being hammered.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: resilience.HTTPClient{
			Client: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     resilience.NewBreaker(5, 0.5, 15*time.Second).WithTarget("printer"),
			MaxAttempts: 1,
			Timeout:     timeout,
		},
	}
}

type printRequest struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// Print posts a rendered document to the bridge.
func (c *Client) Print(ctx context.Context, kind, content string) error {
	if c == nil || c.BaseURL == "" {
		return errors.New("printer: bridge not configured")
	}
	body, err := json.Marshal(printRequest{Kind: kind, Content: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/print", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("printer: bridge request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("printer: bridge returned %s", resp.Status)
	}
	return nil
}
