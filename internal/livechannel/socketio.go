package livechannel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// envelopeEvent carries `{event, data}` envelopes instead of named events.
const envelopeEvent = "message"

// socketIOTransport talks to a socket.io gateway. Named socket.io events and
// `message` envelopes both end up in Dispatch.
type socketIOTransport struct {
	ch     *Channel
	logger *slog.Logger

	mu        sync.Mutex
	io        *socket.Socket
	listening map[string]struct{}
}

func newSocketIOTransport(ch *Channel, logger *slog.Logger) *socketIOTransport {
	return &socketIOTransport{
		ch:        ch,
		logger:    logger,
		listening: make(map[string]struct{}),
	}
}

func (t *socketIOTransport) open(ctx context.Context) error {
	cfg := t.ch.cfg
	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse live channel URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(true)
	if id := t.ch.ClientID(); id != "" {
		opts.SetQuery(url.Values{clientIDQuery: []string{id}})
	}
	if cfg.InsecureSkipVerify {
		t.logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	report := func(err error) {
		select {
		case connected <- err:
		default:
		}
	}
	io.Once(types.EventName("connect"), func(...any) {
		t.logger.Info("Live channel connected.", "sid", io.Id())
		report(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(err)
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		t.logger.Debug("Live channel disconnected.", "reason", reason)
	})

	t.mu.Lock()
	t.io = io
	t.mu.Unlock()
	for _, event := range t.ch.events() {
		t.subscribe(event)
	}
	io.On(types.EventName(envelopeEvent), func(args ...any) {
		if len(args) == 0 {
			return
		}
		raw, err := json.Marshal(args[0])
		if s, ok := args[0].(string); ok {
			raw, err = []byte(s), nil
		}
		if err == nil {
			err = t.ch.DispatchEnvelope(raw)
		}
		if err != nil {
			t.logger.Warn("Dropping malformed live event.", "error", err)
		}
	})

	io.Connect()

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("live channel connection failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s waiting for live channel", cfg.ConnectTimeout)
		}
		return fmt.Errorf("context cancelled while waiting for live channel: %w", ctx.Err())
	}
}

// subscribe forwards socket.io events named event to Dispatch, once per
// event name and session.
func (t *socketIOTransport) subscribe(event string) {
	t.mu.Lock()
	io := t.io
	_, already := t.listening[event]
	if io != nil {
		t.listening[event] = struct{}{}
	}
	t.mu.Unlock()
	if io == nil || already {
		return
	}
	io.On(types.EventName(event), func(args ...any) {
		var data any
		if len(args) > 0 {
			data = args[0]
		}
		t.ch.Dispatch(event, data)
	})
}

func (t *socketIOTransport) emit(event string, data any) error {
	t.mu.Lock()
	io := t.io
	t.mu.Unlock()
	if io == nil || !io.Connected() {
		return ErrNotConnected
	}
	io.Emit(event, data)
	return nil
}

func (t *socketIOTransport) connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.io != nil && t.io.Connected()
}

func (t *socketIOTransport) close() {
	t.mu.Lock()
	io := t.io
	t.io = nil
	t.listening = make(map[string]struct{})
	t.mu.Unlock()
	if io != nil {
		io.Disconnect()
	}
}
