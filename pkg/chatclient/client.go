// Package chatclient talks to the chat service over its WebSocket.
package chatclient

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// URL builds the socket address of user on the service at base
// (http, https, ws or wss).
func URL(base, user, key string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if user == "" {
		return "", errors.New("empty user id")
	}

	// RawPath keeps a "/" inside the id escaped.
	rawPrefix := strings.TrimRight(u.EscapedPath(), "/") + "/ws/"
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + user
	u.RawPath = rawPrefix + url.PathEscape(user)
	if key != "" {
		q := u.Query()
		q.Set("key", key)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

type Client struct {
	mu     sync.Mutex
	conn   *ws.Conn
	url    string
	reconn time.Duration
}

// Dial connects to addr. reconn is the pause between reconnect attempts.
func Dial(ctx context.Context, addr string, reconn time.Duration) (*Client, error) {
	log.Debug("Dial chat socket", "url", addr)

	conn, _, err := ws.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{conn: conn, url: addr, reconn: reconn}, nil
}

func (c *Client) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log.Debug("Write ws", "msg", text)
	return c.conn.WriteMessage(ws.TextMessage, []byte(text))
}

// SendAudio sends an encoded audio clip for transcription.
func (c *Client) SendAudio(clip []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteMessage(ws.BinaryMessage, clip)
}

type IncomeKind uint

const (
	ReadOK IncomeKind = iota
	// ConnClosed means the peer closed the socket; Code says how.
	ConnClosed
	ReadFailure
)

type Income struct {
	Kind IncomeKind
	Text string
	Code int
	Err  error
}

// Read blocks for the next server frame.
func (c *Client) Read() Income {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		var ce *ws.CloseError
		if errors.As(err, &ce) {
			return Income{Kind: ConnClosed, Code: ce.Code, Err: err}
		}
		return Income{Kind: ReadFailure, Err: err}
	}

	log.Debug("Read ws", "msg", string(msg))
	return Income{Kind: ReadOK, Text: string(msg)}
}

// Retryable reports whether a closed connection should be redialed.
func (in Income) Retryable() bool {
	if in.Kind == ReadFailure {
		return true
	}
	return in.Kind == ConnClosed && in.Code != ws.CloseNormalClosure && in.Code < 4000
}

// Reconnect redials until it succeeds or ctx ends.
func (c *Client) Reconnect(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			old := c.conn
			c.conn = conn
			c.mu.Unlock()
			_ = old.Close()
			return nil
		}
		log.Debug("Reconnect failed", "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconn):
		}
	}
}

// Close sends a normal closure and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
	_ = c.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
