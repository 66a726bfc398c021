package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/dispatch"
	"github.com/vk/walkgrid/internal/graphstore"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// Lookup resolves architypes by kind and name.
type Lookup interface {
	LookupArchitype(kind arch.Kind, name string) (*arch.Architype, error)
}

// Globals is the module-scoped global variable table as seen from a module.
type Globals interface {
	Get(module, name string) (cty.Value, error)
	Set(module, name string, v cty.Value) error
	Visible(module string) map[string]cty.Value
}

// Policy controls how the engine reacts to ability failures.
type Policy struct {
	// HaltOnError stops a walker at its first ability error. Otherwise the
	// walker skips the rest of the failing step and continues with its
	// queue.
	HaltOnError bool
}

// Engine drives walkers over a graph store.
type Engine struct {
	store     *graphstore.Store
	lookup    Lookup
	table     *dispatch.Table
	globals   Globals
	policy    Policy
	observers []Observer

	mu      sync.RWMutex
	walkers []*Walker
	byID    map[string]*Walker
}

// Option configures an Engine.
type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithGlobals(g Globals) Option {
	return func(e *Engine) { e.globals = g }
}

func WithObservers(obs ...Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// NewEngine creates an engine. lookup must be a resolved, frozen registry.
func NewEngine(store *graphstore.Store, lookup Lookup, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		lookup: lookup,
		table:  dispatch.NewTable(),
		byID:   make(map[string]*Walker),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddObserver registers an observer for every walker of the engine.
func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Policy returns the engine failure policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Spawn creates a walker of architype a at start. args initialize the
// walker's fields and are also exposed to its abilities unchanged.
func (e *Engine) Spawn(ctx context.Context, a *arch.Architype, start handle.Handle, args map[string]cty.Value) (*Walker, error) {
	if a.Kind != arch.KindWalker {
		return nil, fmt.Errorf("%w: %s", ErrNotWalker, a.Key())
	}
	fields, err := arch.NewFields(a.EffectiveFields(), args)
	if err != nil {
		return nil, fmt.Errorf("spawning %s: %w", a.Key(), err)
	}
	if err := e.store.Pin(start); err != nil {
		return nil, fmt.Errorf("spawning %s at %s: %w", a.Key(), start, err)
	}

	argsVal := cty.EmptyObjectVal
	if len(args) > 0 {
		argsVal = cty.ObjectVal(args)
	}
	w := &Walker{
		id:       uuid.NewString(),
		arch:     a,
		fields:   fields,
		args:     argsVal,
		state:    StateReady,
		position: start,
		ignored:  make(map[handle.Handle]struct{}),
	}

	e.mu.Lock()
	e.walkers = append(e.walkers, w)
	e.byID[w.id] = w
	e.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Walker spawned.", "walker", w.id, "arch", a.Name, "start", start.String())
	e.notify(ctx, w, TraceEvent{Kind: TraceSpawn, Position: start})
	return w, nil
}

// Walkers returns every walker spawned on the engine in spawn order.
func (e *Engine) Walkers() []*Walker {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Walker(nil), e.walkers...)
}

// Walker returns the walker with the given id.
func (e *Engine) Walker(id string) (*Walker, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.byID[id]
	return w, ok
}

// RunToCompletion steps w until it completes, disengages or halts. Under the
// continue policy every ability error met on the way is returned joined.
// When ctx is done it returns the context error and leaves w paused.
func (e *Engine) RunToCompletion(ctx context.Context, w *Walker) error {
	var errs []error
	for {
		out := e.Step(ctx, w)
		if out.Err != nil {
			errs = append(errs, out.Err)
		}
		if out.Kind != OutcomeContinue {
			return errors.Join(errs...)
		}
	}
}

// RunAll runs walkers concurrently with at most workers of them active at
// once. Under HaltOnError the first failing walker cancels the others.
// Otherwise all walkers run to the end and all their errors are returned.
func (e *Engine) RunAll(ctx context.Context, workers int, walkers ...*Walker) error {
	logger := ctxlog.FromContext(ctx)
	if workers <= 0 {
		workers = 1
	}
	logger.Debug("Running walkers.", "walkers", len(walkers), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var errs []error
	for _, w := range walkers {
		g.Go(func() error {
			err := e.RunToCompletion(gctx, w)
			if err == nil {
				return nil
			}
			if e.policy.HaltOnError {
				return fmt.Errorf("walker %s: %w", w.ID(), err)
			}
			mu.Lock()
			errs = append(errs, fmt.Errorf("walker %s: %w", w.ID(), err))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (e *Engine) notify(ctx context.Context, w *Walker, ev TraceEvent) {
	e.mu.RLock()
	observers := e.observers
	e.mu.RUnlock()
	if len(observers) == 0 {
		return
	}
	ev.Time = time.Now()
	ev.Walker = w.id
	ev.WalkerArch = w.arch.Name
	if ev.PositionArch == "" && !ev.Position.IsNil() {
		if inst, err := e.store.Instance(ev.Position); err == nil {
			ev.PositionArch = inst.Architype().Name
		}
	}
	for _, o := range observers {
		o.Observe(ctx, ev)
	}
}
