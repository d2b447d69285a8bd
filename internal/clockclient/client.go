// Package clockclient talks to a clockd server over HTTP and websocket.
package clockclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

// HeaderProvider injects per-request headers.
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
	backoff        func(attempt int) time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the attempt count for idempotent and retryable calls.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(c *Client) {
		if f != nil {
			c.backoff = f
		}
	}
}

// APIError is a non-2xx answer. Domain holds the decoded error body when the
// server sent one.
type APIError struct {
	Status int
	Domain clockdto.DomainError
	Body   string
}

func (e *APIError) Error() string {
	if e.Domain.Code != "" {
		return fmt.Sprintf("clockd: status=%d code=%s: %s", e.Status, e.Domain.Code, e.Domain.Error())
	}
	return fmt.Sprintf("clockd: status=%d body=%s", e.Status, truncate(e.Body, 512))
}

func (e *APIError) retryable() bool {
	return e.Domain.Retryable || shouldRetryStatus(e.Status)
}

// IsCode reports whether err is an APIError with the given domain code.
func IsCode(err error, code string) bool {
	var api *APIError
	return errors.As(err, &api) && api.Domain.Code == code
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
		backoff:        backoffDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) (*clockdto.Health, error) {
	var h clockdto.Health
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, &h, true); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) PresetTypes(ctx context.Context) ([]clockdto.TypeView, error) {
	var out []clockdto.TypeView
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/preset-types", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Presets(ctx context.Context) ([]clockdto.GroupView, error) {
	var out []clockdto.GroupView
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/presets", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMatch(ctx context.Context, presetID string, playerNames ...string) (*clockdto.MatchState, error) {
	req := clockdto.CreateMatchRequest{PresetID: presetID, PlayerNames: playerNames}
	var st clockdto.MatchState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/matches", req, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Match(ctx context.Context, code string) (*clockdto.MatchState, error) {
	var st clockdto.MatchState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/matches/"+url.PathEscape(code), nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

// Tap is not retried: a repeated tap would hand the clock back.
func (c *Client) Tap(ctx context.Context, code string, player int) (*clockdto.MatchState, error) {
	return c.matchAction(ctx, code, "tap", clockdto.TapRequest{Player: player})
}

func (c *Client) Pause(ctx context.Context, code string) (*clockdto.MatchState, error) {
	return c.matchAction(ctx, code, "pause", nil)
}

func (c *Client) Resume(ctx context.Context, code string) (*clockdto.MatchState, error) {
	return c.matchAction(ctx, code, "resume", nil)
}

func (c *Client) Restart(ctx context.Context, code string) (*clockdto.MatchState, error) {
	return c.matchAction(ctx, code, "restart", nil)
}

func (c *Client) EncodeBoard(ctx context.Context, req clockdto.EncodeBoardRequest) (*clockdto.BoardView, error) {
	var v clockdto.BoardView
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/board/encode", req, &v, true); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) matchAction(ctx context.Context, code, action string, in any) (*clockdto.MatchState, error) {
	var st clockdto.MatchState
	path := "/matches/" + url.PathEscape(code) + "/" + action
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, in, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err == nil {
			err = checkStatus(resp)
			if err == nil {
				if out != nil {
					if err := json.Unmarshal(resp.Body(), out); err != nil {
						return fmt.Errorf("decode response: %w", err)
					}
				}
				return nil
			}
			var api *APIError
			if errors.As(err, &api) && !api.retryable() {
				return err
			}
		} else {
			err = fmt.Errorf("request failed: %w", err)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, c.backoff(attempt)); sleepErr != nil {
			return lastErr
		}
	}
	return lastErr
}

func checkStatus(resp *fasthttp.Response) error {
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}
	api := &APIError{Status: status, Body: string(resp.Body())}
	_ = json.Unmarshal(resp.Body(), &api.Domain)
	return api
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
