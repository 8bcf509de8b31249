// Package livechannel keeps a live session with the execution backend and
// dispatches the events it pushes (execution status, progress) to registered
// handlers.
//
// The backend speaks plain WebSocket with `{event, data}` JSON text frames.
// A socket.io transport is kept for backends mounted behind a socket.io
// gateway.
package livechannel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
)

const (
	// StatusEvent carries the session id the backend assigned to this client.
	StatusEvent = "status"

	// TransportWebSocket dials the backend's plain WebSocket endpoint.
	TransportWebSocket = "websocket"
	// TransportSocketIO dials a socket.io gateway in front of the backend.
	TransportSocketIO = "socketio"

	clientIDQuery         = "clientId"
	defaultConnectTimeout = 15 * time.Second
	defaultReconnectDelay = time.Second
	maxReconnectDelay     = 30 * time.Second
)

// ErrNotConnected is returned by Emit before Connect succeeds.
var ErrNotConnected = errors.New("live channel is not connected")

// Handler receives the payload of one event.
type Handler func(data any)

// Envelope is the `{event, data}` frame the backend sends.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Config describes where and how to connect.
type Config struct {
	URL string
	// Transport is TransportWebSocket (the default) or TransportSocketIO.
	Transport string
	// Namespace only applies to the socket.io transport.
	Namespace          string
	ClientID           string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	// ReconnectDelay is the first pause before redialing a dropped
	// WebSocket. It doubles per failed attempt up to 30s.
	ReconnectDelay time.Duration
}

// transport is one wire protocol carrying the session.
type transport interface {
	// open dials and blocks until the session is usable.
	open(ctx context.Context) error
	// subscribe makes sure events named event reach Dispatch.
	subscribe(event string)
	emit(event string, data any) error
	connected() bool
	close()
}

// Channel is a live session with the backend.
type Channel struct {
	cfg Config

	mu       sync.RWMutex
	logger   *slog.Logger
	handlers map[string]Handler
	clientID string
	wire     transport
}

// New creates an unconnected channel.
func New(cfg Config) *Channel {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportWebSocket
	}
	return &Channel{
		cfg:      cfg,
		logger:   slog.Default(),
		handlers: make(map[string]Handler),
		clientID: cfg.ClientID,
	}
}

// ClientID returns the session id to resume on reconnect. It is empty until
// the backend sends a status event or one is configured.
func (c *Channel) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

// On registers the handler for event, replacing any previous one. Handlers
// may be registered before or after Connect.
func (c *Channel) On(event string, h Handler) {
	c.mu.Lock()
	c.handlers[event] = h
	wire := c.wire
	c.mu.Unlock()

	if wire != nil {
		wire.subscribe(event)
	}
}

// events lists the event names that currently have a handler, plus status.
func (c *Channel) events() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	events := make([]string, 0, len(c.handlers)+1)
	for event := range c.handlers {
		events = append(events, event)
	}
	if _, ok := c.handlers[StatusEvent]; !ok {
		events = append(events, StatusEvent)
	}
	return events
}

// Dispatch delivers one event to its handler. Events without a handler are
// dropped. A status event also records the session id it carries.
func (c *Channel) Dispatch(event string, data any) {
	if event == StatusEvent {
		c.captureSessionID(data)
	}

	c.mu.RLock()
	h := c.handlers[event]
	logger := c.logger
	c.mu.RUnlock()

	if h == nil {
		logger.Debug("No handler for live event, dropping.", "event", event)
		return
	}
	h(data)
}

// DispatchEnvelope decodes a `{event, data}` frame and dispatches it.
func (c *Channel) DispatchEnvelope(raw []byte) error {
	event, data, err := decodeEnvelope(raw)
	if err != nil {
		return err
	}
	c.Dispatch(event, data)
	return nil
}

func decodeEnvelope(raw []byte) (string, any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("failed to decode live event envelope: %w", err)
	}
	if env.Event == "" {
		return "", nil, errors.New("live event envelope has no event name")
	}

	var data any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", nil, fmt.Errorf("failed to decode data of live event %q: %w", env.Event, err)
		}
	}
	return env.Event, data, nil
}

func (c *Channel) captureSessionID(data any) {
	m, ok := data.(map[string]any)
	if !ok {
		return
	}
	sid, ok := m["sid"].(string)
	if !ok || sid == "" {
		return
	}
	c.mu.Lock()
	changed := c.clientID != sid
	c.clientID = sid
	logger := c.logger
	c.mu.Unlock()
	if changed {
		logger.Debug("Live session id assigned.", "client_id", sid)
	}
}

// Connect opens the session and waits until it is usable. The stored client
// id, if any, is sent as the clientId query so the backend resumes the
// previous session. A channel that is already connected is closed first.
func (c *Channel) Connect(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("component", "livechannel", "url", c.cfg.URL, "transport", c.cfg.Transport)

	var wire transport
	switch c.cfg.Transport {
	case TransportWebSocket:
		wire = newWebSocketTransport(c, logger)
	case TransportSocketIO:
		wire = newSocketIOTransport(c, logger)
	default:
		return fmt.Errorf("unknown live channel transport %q", c.cfg.Transport)
	}

	c.Close()
	c.mu.Lock()
	c.logger = logger
	c.wire = wire
	c.mu.Unlock()

	logger.Debug("Initiating live channel connection.")
	if err := wire.open(ctx); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Emit sends an event to the backend.
func (c *Channel) Emit(event string, data any) error {
	c.mu.RLock()
	wire := c.wire
	c.mu.RUnlock()
	if wire == nil || !wire.connected() {
		return ErrNotConnected
	}
	return wire.emit(event, data)
}

// Connected reports whether the session is up.
func (c *Channel) Connected() bool {
	c.mu.RLock()
	wire := c.wire
	c.mu.RUnlock()
	return wire != nil && wire.connected()
}

// Close ends the session. It is safe to call more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	wire := c.wire
	c.wire = nil
	c.mu.Unlock()
	if wire != nil {
		wire.close()
	}
}
