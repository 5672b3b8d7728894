package channel

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
)

var ErrClientNotConfigured = errors.New("channel api client not configured")

// Client is the outbound channel API. Retry, backoff and rate limiting are
// the implementation's concern.
type Client interface {
	UpsertBooking(ctx context.Context, booking OutboundBooking) (string, error)
	PushAvailability(ctx context.Context, availability OutboundAvailability) error
}

// HTTPClient talks JSON to the channel's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		http:    client,
	}
}

type upsertResponse struct {
	ID      json.RawMessage `json:"id"`
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (c *HTTPClient) UpsertBooking(ctx context.Context, booking OutboundBooking) (string, error) {
	var out upsertResponse
	if err := c.post(ctx, "/bookings", booking, &out); err != nil {
		return "", err
	}
	if out.Success != nil && !*out.Success {
		return "", fmt.Errorf("channel rejected booking: %s", out.Message)
	}
	id := strings.Trim(strings.TrimSpace(string(out.ID)), `"`)
	if id == "" || id == "null" {
		id = booking.ID
	}
	return id, nil
}

func (c *HTTPClient) PushAvailability(ctx context.Context, availability OutboundAvailability) error {
	return c.post(ctx, "/inventory", availability, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) error {
	if c == nil || c.baseURL == "" {
		return ErrClientNotConfigured
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("token", c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("channel request %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("channel request %s: unexpected status %d: %s", path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
