package livechannel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultWebSocketPath = "/ws"
	writeTimeout         = 10 * time.Second
)

// webSocketTransport reads `{event, data}` text frames from the backend's
// WebSocket endpoint. It waits for the first status frame before reporting
// the session usable and redials with the latest client id when the
// connection drops.
type webSocketTransport struct {
	ch     *Channel
	logger *slog.Logger
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	up      atomic.Bool

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

func newWebSocketTransport(ch *Channel, logger *slog.Logger) *webSocketTransport {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: ch.cfg.ConnectTimeout,
	}
	if ch.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &webSocketTransport{
		ch:     ch,
		logger: logger,
		dialer: dialer,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// webSocketURL maps an http(s) or ws(s) base URL onto the WebSocket
// endpoint, defaulting the path to /ws and carrying clientID as the clientId
// query.
func webSocketURL(raw, clientID string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse live channel URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported live channel URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("live channel URL %q has no host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = defaultWebSocketPath
	}
	q := u.Query()
	if clientID != "" {
		q.Set(clientIDQuery, clientID)
	} else {
		q.Del(clientIDQuery)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t *webSocketTransport) open(ctx context.Context) error {
	timeout := t.ch.cfg.ConnectTimeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("live channel connection failed: %w", err)
	}
	go t.readLoop(conn)

	select {
	case <-t.ready:
		t.logger.Info("Live channel connected.", "client_id", t.ch.ClientID())
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s waiting for live channel status", timeout)
		}
		return fmt.Errorf("context cancelled while waiting for live channel: %w", ctx.Err())
	}
}

func (t *webSocketTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := webSocketURL(t.ch.cfg.URL, t.ch.ClientID())
	if err != nil {
		return nil, err
	}
	conn, _, err := t.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isClosed() {
		conn.Close()
		return nil, ErrNotConnected
	}
	t.conn = conn
	t.up.Store(true)
	return conn, nil
}

func (t *webSocketTransport) readLoop(conn *websocket.Conn) {
	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			t.up.Store(false)
			if t.isClosed() {
				return
			}
			t.logger.Debug("Live channel disconnected.", "error", err)
			if conn = t.reconnect(); conn == nil {
				return
			}
			continue
		}
		// Binary frames carry preview images, which nothing here consumes.
		if kind != websocket.TextMessage {
			t.logger.Debug("Skipping binary live frame.", "bytes", len(raw))
			continue
		}

		event, data, err := decodeEnvelope(raw)
		if err != nil {
			t.logger.Warn("Dropping malformed live event.", "error", err)
			continue
		}
		t.ch.Dispatch(event, data)
		if event == StatusEvent {
			t.readyOnce.Do(func() { close(t.ready) })
		}
	}
}

// reconnect redials with exponential backoff until it succeeds or the
// transport is closed, in which case it returns nil.
func (t *webSocketTransport) reconnect() *websocket.Conn {
	delay := t.ch.cfg.ReconnectDelay
	for {
		timer := time.NewTimer(delay)
		select {
		case <-t.closed:
			timer.Stop()
			return nil
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.ch.cfg.ConnectTimeout)
		conn, err := t.dial(ctx)
		cancel()
		if err == nil {
			t.logger.Info("Live channel reconnected.", "client_id", t.ch.ClientID())
			return conn
		}
		if t.isClosed() {
			return nil
		}
		t.logger.Warn("Live channel reconnect failed.", "error", err, "retry_in", delay)
		delay = min(delay*2, maxReconnectDelay)
	}
}

func (t *webSocketTransport) subscribe(string) {}

func (t *webSocketTransport) emit(event string, data any) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil || !t.up.Load() {
		return ErrNotConnected
	}

	frame := struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to send live event %q: %w", event, err)
	}
	return nil
}

func (t *webSocketTransport) connected() bool {
	return t.up.Load() && !t.isClosed()
}

func (t *webSocketTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

func (t *webSocketTransport) close() {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.up.Store(false)

		t.mu.Lock()
		conn := t.conn
		t.conn = nil
		t.mu.Unlock()
		if conn == nil {
			return
		}

		t.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		conn.Close()
	})
}
