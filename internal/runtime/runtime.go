package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/globals"
	"github.com/vk/walkgrid/internal/graphstore"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/vk/walkgrid/internal/module"
	"github.com/vk/walkgrid/internal/registry"
	"github.com/vk/walkgrid/internal/resolver"
	"github.com/vk/walkgrid/internal/walker"
	"github.com/zclconf/go-cty/cty"
)

var (
	ErrNotLoaded     = errors.New("no modules loaded")
	ErrUnknownGraph  = errors.New("unknown graph")
	ErrUnknownSeed   = errors.New("unknown seed node")
	ErrGraphConflict = errors.New("graph defined by more than one module")
)

// Runtime ties the registry, the graph store, the global scope and the
// walker engine together.
type Runtime struct {
	reg     *registry.Registry
	store   *graphstore.Store
	globals *globals.Table
	engine  *walker.Engine

	mu     sync.RWMutex
	loaded bool
	result *resolver.Result
}

// Option configures a Runtime.
type Option func(*options)

type options struct {
	policy    walker.Policy
	observers []walker.Observer
}

// WithPolicy sets the failure policy of the engine.
func WithPolicy(p walker.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithObservers registers trace observers on the engine.
func WithObservers(obs ...walker.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// New creates an empty runtime.
func New(opts ...Option) *Runtime {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := &Runtime{
		reg:     registry.New(),
		store:   graphstore.New(),
		globals: globals.New(),
	}
	r.engine = walker.NewEngine(r.store, r.reg,
		walker.WithPolicy(o.policy),
		walker.WithGlobals(r.globals),
		walker.WithObservers(o.observers...),
	)
	return r
}

// LoadModules resolves trees into the registry and declares their globals.
// Loading the same trees again is a no-op. Once loaded, modules that are
// new or changed fail with registry.ErrFrozen. A failed first load leaves
// the runtime empty, ready for a corrected set.
func (r *Runtime) LoadModules(ctx context.Context, trees []*module.Module) error {
	logger := ctxlog.FromContext(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		if err := r.checkUnchanged(trees); err != nil {
			return err
		}
	}
	result, err := resolver.Resolve(ctx, r.reg, trees)
	if err != nil {
		return err
	}
	if r.loaded {
		logger.Debug("Modules already loaded, registry unchanged.")
		return nil
	}

	var errs []error
	for _, m := range result.Order {
		for _, g := range m.Globals() {
			if err := r.globals.Declare(m.Name, g.Name, g.Value, g.Private); err != nil {
				errs = append(errs, fmt.Errorf("%s:%d: %w", g.Pos.File, g.Pos.Line, err))
			}
		}
		r.globals.SetImports(m.Name, result.Deps.Imports(m.Name))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.result = result
	r.loaded = true
	logger.Info("Runtime loaded.", "modules", len(result.Order))
	return nil
}

// checkUnchanged rejects modules that were not part of the loaded set, or
// whose element list differs from the loaded copy.
func (r *Runtime) checkUnchanged(trees []*module.Module) error {
	loaded := make(map[string]*module.Module, len(r.result.Order))
	for _, m := range r.result.Order {
		loaded[m.Name] = m
	}
	var errs []error
	for _, m := range trees {
		prev, ok := loaded[m.Name]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("module %q was not part of the loaded set: %w", m.Name, registry.ErrFrozen))
		case len(prev.Elements) != len(m.Elements):
			errs = append(errs, fmt.Errorf("module %q changed since it was loaded (%d elements, now %d): %w",
				m.Name, len(prev.Elements), len(m.Elements), registry.ErrFrozen))
		}
	}
	return errors.Join(errs...)
}

// Modules returns the loaded modules in resolution order.
func (r *Runtime) Modules() []*module.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.result == nil {
		return nil
	}
	return r.result.Order
}

func (r *Runtime) Registry() *registry.Registry { return r.reg }
func (r *Runtime) Store() *graphstore.Store { return r.store }
func (r *Runtime) Globals() *globals.Table { return r.globals }
func (r *Runtime) Engine() *walker.Engine { return r.engine }

// SpawnWalker creates a walker of the named architype at start.
func (r *Runtime) SpawnWalker(ctx context.Context, archName string, start handle.Handle, args map[string]cty.Value) (*walker.Walker, error) {
	if !r.isLoaded() {
		return nil, ErrNotLoaded
	}
	a, err := r.reg.LookupArchitype(arch.KindWalker, archName)
	if err != nil {
		return nil, err
	}
	return r.engine.Spawn(ctx, a, start, args)
}

// Step advances w by one step.
func (r *Runtime) Step(ctx context.Context, w *walker.Walker) walker.StepOutcome {
	return r.engine.Step(ctx, w)
}

// RunToCompletion steps w until it stops.
func (r *Runtime) RunToCompletion(ctx context.Context, w *walker.Walker) error {
	return r.engine.RunToCompletion(ctx, w)
}

// RunAll runs walkers concurrently on at most workers goroutines.
func (r *Runtime) RunAll(ctx context.Context, workers int, ws ...*walker.Walker) error {
	return r.engine.RunAll(ctx, workers, ws...)
}

func (r *Runtime) isLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}
