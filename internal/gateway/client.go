package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// Client wraps outbound request/response calls to the queue service and
// normalizes every failure into a single *types.GatewayError value.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// Config holds the gateway client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new remote access gateway client
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// errorBody is the shape the queue service uses for failure responses
type errorBody struct {
	Detail string `json:"detail"`
}

// Request performs one HTTP round trip. A nil body sends no payload.
// The returned error, when non-nil, is always a *types.GatewayError whose
// message is taken from the response body detail if present, else from the
// transport error, else a generic network error.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, types.NewGatewayError(fmt.Sprintf("failed to encode request: %v", err), 0, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, types.NewGatewayError(err.Error(), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithComponent("gateway").
			WithField("method", method).
			WithField("path", path).
			WithError(err).
			Warn("Request transport failure")
		return nil, types.NewGatewayError(transportMessage(err), 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewGatewayError(transportMessage(err), resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := ""
		var eb errorBody
		if jsonErr := json.Unmarshal(data, &eb); jsonErr == nil {
			message = eb.Detail
		}
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return nil, types.NewGatewayError(message, resp.StatusCode, nil)
	}

	return data, nil
}

// GetJSON fetches path and decodes the response into out
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	data, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.decode(data, out)
}

// PostJSON posts body to path and decodes the response into out when out
// is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := c.Request(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decode(data, out)
}

// PutJSON puts body to path and decodes the response into out when out
// is non-nil.
func (c *Client) PutJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := c.Request(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decode(data, out)
}

func (c *Client) decode(data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return types.NewGatewayError(fmt.Sprintf("failed to decode response: %v", err), 0, err)
	}
	return nil
}

// transportMessage reduces a transport error to the user-facing message
func transportMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Network error"
	}
	return err.Error()
}
