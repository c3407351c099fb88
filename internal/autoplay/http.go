package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnexpectedStatus is returned when the service answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the notebeat HTTP API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Session returns the current session snapshot.
func (c *Client) Session(ctx context.Context) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodGet, "/session", nil, &s)
	return s, err
}

// Start begins a game for player.
func (c *Client) Start(ctx context.Context, player string) (CommandResponse, error) {
	return c.command(ctx, "/session/start", map[string]string{"player": player})
}

// Stop ends the running game.
func (c *Client) Stop(ctx context.Context) (CommandResponse, error) {
	return c.command(ctx, "/session/stop", nil)
}

// Acknowledge dismisses the end message.
func (c *Client) Acknowledge(ctx context.Context) (CommandResponse, error) {
	return c.command(ctx, "/session/acknowledge", nil)
}

// Objects lists the live notes.
func (c *Client) Objects(ctx context.Context) ([]Object, error) {
	var out struct {
		Objects []Object `json:"objects"`
	}
	err := c.do(ctx, http.MethodGet, "/objects", nil, &out)
	return out.Objects, err
}

// Hit taps a note.
func (c *Client) Hit(ctx context.Context, req HitRequest) (HitResponse, error) {
	var out HitResponse
	err := c.do(ctx, http.MethodPost, "/hits", req, &out)
	return out, err
}

// Rank returns the high-score entry for player.
func (c *Client) Rank(ctx context.Context, player string) (Highscore, error) {
	var out Highscore
	err := c.do(ctx, http.MethodGet, "/highscores/"+url.PathEscape(player), nil, &out)
	return out, err
}

func (c *Client) command(ctx context.Context, path string, body interface{}) (CommandResponse, error) {
	var out CommandResponse
	err := c.do(ctx, http.MethodPost, path, body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, apiErr.Code)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
