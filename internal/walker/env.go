package walker

import (
	"context"
	"fmt"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/graphstore"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

// abilityEnv is the arch.Env handed to one ability invocation.
type abilityEnv struct {
	ctx    context.Context
	engine *Engine
	walker *Walker
	pos    handle.Handle
	here   arch.Instance
	self   arch.Instance
	event  arch.Event
	path   arch.Path
	module string
}

var _ arch.Env = (*abilityEnv)(nil)

func (env *abilityEnv) Event() arch.Event { return env.event }
func (env *abilityEnv) Path() arch.Path { return env.path }
func (env *abilityEnv) Module() string { return env.module }
func (env *abilityEnv) Self() arch.Instance { return env.self }
func (env *abilityEnv) Here() arch.Instance { return env.here }
func (env *abilityEnv) HereHandle() handle.Handle { return env.pos }
func (env *abilityEnv) Visitor() arch.Instance { return env.walker }
func (env *abilityEnv) Args() cty.Value { return env.walker.args }

func (env *abilityEnv) Neighbors(f arch.HopFilter) ([]arch.Hop, error) {
	return env.engine.store.Hops(env.pos, f)
}

func (env *abilityEnv) Visit(first bool, targets ...handle.Handle) error {
	for _, h := range targets {
		if !env.engine.store.Exists(h) {
			return fmt.Errorf("visit %s: %w", h, graphstore.ErrDanglingReference)
		}
	}
	env.walker.enqueue(first, targets)
	return nil
}

func (env *abilityEnv) Ignore(targets ...handle.Handle) {
	env.walker.ignore(targets)
}

func (env *abilityEnv) Disengage() {
	env.walker.disengage()
}

func (env *abilityEnv) Report(v cty.Value) {
	env.walker.report(v)
	env.engine.notify(env.ctx, env.walker, TraceEvent{
		Kind:     TraceReport,
		Position: env.pos,
		Event:    env.event,
		Ability:  env.path.String(),
		Value:    v,
	})
}

func (env *abilityEnv) CreateNode(archName string, fields map[string]cty.Value) (handle.Handle, error) {
	a, err := env.engine.lookup.LookupArchitype(arch.KindNode, archName)
	if err != nil {
		return handle.Nil, err
	}
	n, err := env.engine.store.CreateNode(env.ctx, a, fields)
	if err != nil {
		return handle.Nil, err
	}
	return n.ID(), nil
}

func (env *abilityEnv) Connect(edgeArch string, from, to handle.Handle, fields map[string]cty.Value) (handle.Handle, error) {
	a, err := env.engine.lookup.LookupArchitype(arch.KindEdge, edgeArch)
	if err != nil {
		return handle.Nil, err
	}
	e, err := env.engine.store.CreateEdge(env.ctx, a, from, to, a.Directed, fields)
	if err != nil {
		return handle.Nil, err
	}
	return e.ID(), nil
}

func (env *abilityEnv) Delete(h handle.Handle) error {
	return env.engine.store.Delete(env.ctx, h)
}

func (env *abilityEnv) Global(name string) (cty.Value, error) {
	if env.engine.globals == nil {
		return cty.NilVal, ErrNoGlobals
	}
	return env.engine.globals.Get(env.module, name)
}

func (env *abilityEnv) SetGlobal(name string, v cty.Value) error {
	if env.engine.globals == nil {
		return ErrNoGlobals
	}
	return env.engine.globals.Set(env.module, name, v)
}

func (env *abilityEnv) Globals() map[string]cty.Value {
	if env.engine.globals == nil {
		return map[string]cty.Value{}
	}
	return env.engine.globals.Visible(env.module)
}
