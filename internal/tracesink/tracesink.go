// Package tracesink streams walker trace events to a socket.io server.
package tracesink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/walker"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the socket.io event name trace payloads are emitted on.
const DefaultEvent = "walkgrid:trace"

// Emitter is the part of a socket.io client the sink uses.
type Emitter interface {
	Emit(ev string, args ...any) error
}

// Config describes where to stream to.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// SocketIO is a walker.Observer that emits every trace event.
type SocketIO struct {
	emitter Emitter
	event   string
	client  *socket.Socket
}

var _ walker.Observer = (*SocketIO)(nil)

// New wraps an already connected emitter.
func New(emitter Emitter, event string) *SocketIO {
	if event == "" {
		event = DefaultEvent
	}
	return &SocketIO{emitter: emitter, event: event}
}

// Dial connects to a socket.io server and returns a sink emitting to it.
func Dial(ctx context.Context, cfg Config) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("component", "tracesink", "url", cfg.URL)
	logger.Info("Connecting trace sink...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Trace sink connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	s := New(io, cfg.Event)
	s.client = io
	return s, nil
}

// Observe emits ev. Emission failures are logged and never reach the walker.
func (s *SocketIO) Observe(ctx context.Context, ev walker.TraceEvent) {
	if err := s.emitter.Emit(s.event, Payload(ev)); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit trace event.", "kind", ev.Kind, "error", err)
	}
}

// Close disconnects a sink created by Dial.
func (s *SocketIO) Close() {
	if s.client != nil {
		s.client.Disconnect()
	}
}

// Payload is the JSON-friendly form of a trace event.
func Payload(ev walker.TraceEvent) map[string]any {
	p := map[string]any{
		"kind":   string(ev.Kind),
		"time":   ev.Time.UTC().Format(time.RFC3339Nano),
		"walker": ev.Walker,
	}
	if ev.WalkerArch != "" {
		p["walker_arch"] = ev.WalkerArch
	}
	if !ev.Position.IsNil() {
		p["position"] = ev.Position.String()
	}
	if ev.PositionArch != "" {
		p["position_arch"] = ev.PositionArch
	}
	if ev.Event != 0 {
		p["event"] = ev.Event.String()
	}
	if ev.Ability != "" {
		p["ability"] = ev.Ability
		p["side"] = ev.Side
	}
	if ev.Kind == walker.TraceReport {
		p["value"] = plainValue(ev.Value)
	}
	if ev.Err != nil {
		p["error"] = ev.Err.Error()
	}
	if ev.Detail != "" {
		p["detail"] = ev.Detail
	}
	return p
}

// plainValue converts v into the value encoding/json would produce for it.
func plainValue(v cty.Value) any {
	if !v.IsWhollyKnown() {
		return nil
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}
