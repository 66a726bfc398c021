package walker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

// TraceKind names what happened in a TraceEvent.
type TraceKind string

const (
	TraceSpawn     TraceKind = "spawn"
	TraceVisit     TraceKind = "visit"
	TraceAbility   TraceKind = "ability"
	TraceReport    TraceKind = "report"
	TraceSkip      TraceKind = "skip"
	TraceError     TraceKind = "error"
	TraceComplete  TraceKind = "complete"
	TraceDisengage TraceKind = "disengage"
	TraceFail      TraceKind = "fail"
)

// TraceEvent is one observable moment of a walker's life.
type TraceEvent struct {
	Kind         TraceKind
	Time         time.Time
	Walker       string
	WalkerArch   string
	Position     handle.Handle
	PositionArch string
	Event        arch.Event
	Ability      string
	Side         string
	Value        cty.Value
	Err          error
	Detail       string
}

// Observer receives trace events. Observe is called synchronously from the
// goroutine driving the walker and must not block for long.
type Observer interface {
	Observe(ctx context.Context, ev TraceEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev TraceEvent)

func (fn ObserverFunc) Observe(ctx context.Context, ev TraceEvent) {
	fn(ctx, ev)
}

// LogObserver writes trace events to the context logger.
type LogObserver struct{}

func (LogObserver) Observe(ctx context.Context, ev TraceEvent) {
	logger := ctxlog.FromContext(ctx)
	attrs := []any{
		"kind", string(ev.Kind),
		"walker", ev.Walker,
		"position", ev.Position.String(),
	}
	if ev.Ability != "" {
		attrs = append(attrs, "ability", ev.Ability, "event", ev.Event.String(), "side", ev.Side)
	}
	if ev.Detail != "" {
		attrs = append(attrs, "detail", ev.Detail)
	}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err)
		logger.Log(ctx, slog.LevelError, "Walker trace.", attrs...)
		return
	}
	logger.Debug("Walker trace.", attrs...)
}

// Recorder keeps every event it observes. It is mostly useful in tests.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (r *Recorder) Observe(_ context.Context, ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TraceEvent(nil), r.events...)
}

// Kinds returns the recorded event kinds, optionally limited to the given
// ones.
func (r *Recorder) Kinds(only ...TraceKind) []TraceKind {
	var out []TraceKind
	for _, ev := range r.Events() {
		if len(only) > 0 && !containsKind(only, ev.Kind) {
			continue
		}
		out = append(out, ev.Kind)
	}
	return out
}

// Abilities returns "<ability>@<position>" for every ability invocation.
func (r *Recorder) Abilities() []string {
	var out []string
	for _, ev := range r.Events() {
		if ev.Kind == TraceAbility {
			out = append(out, ev.Ability+"@"+ev.Position.String())
		}
	}
	return out
}

func containsKind(kinds []TraceKind, k TraceKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
