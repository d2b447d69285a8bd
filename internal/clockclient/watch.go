package clockclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

const dialTimeout = 10 * time.Second

// ErrStopWatch can be returned by a Watch callback to end the stream cleanly.
var ErrStopWatch = errors.New("stop watching")

// WatchURL maps the base URL onto the websocket endpoint of code.
func (c *Client) WatchURL(code string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/matches/" + url.PathEscape(code) + "/ws"
	return u.String(), nil
}

// Watch feeds every MatchState frame of code to fn. It returns nil when the
// server closes the match or fn returns ErrStopWatch; a dropped connection is
// redialled up to the retry count.
func (c *Client) Watch(ctx context.Context, code string, fn func(clockdto.MatchState) error) error {
	wsURL, err := c.WatchURL(code)
	if err != nil {
		return err
	}
	attempts := max(c.retryMax, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		done, err := c.watchOnce(ctx, wsURL, fn)
		if done {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, c.backoff(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
	return lastErr
}

// watchOnce reports done=true when redialling would not help.
func (c *Client) watchOnce(ctx context.Context, wsURL string, fn func(clockdto.MatchState) error) (bool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	opts := &websocket.DialOptions{CompressionMode: websocket.CompressionNoContextTakeover}
	if c.headers != nil {
		opts.HTTPHeader = http.Header{}
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				opts.HTTPHeader.Set(k, v)
			}
		}
	}
	conn, resp, err := websocket.Dial(dialCtx, wsURL, opts)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return true, fmt.Errorf("dial %s: status %d", wsURL, resp.StatusCode)
		}
		return false, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		var st clockdto.MatchState
		if err := wsjson.Read(ctx, conn, &st); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return true, nil
			}
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			return false, fmt.Errorf("read frame: %w", err)
		}
		if err := fn(st); err != nil {
			if errors.Is(err, ErrStopWatch) {
				return true, nil
			}
			return true, err
		}
	}
}
