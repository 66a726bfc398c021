package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/globals"
	"github.com/vk/walkgrid/internal/graphstore"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/vk/walkgrid/internal/module"
	"github.com/vk/walkgrid/internal/registry"
	"github.com/vk/walkgrid/internal/resolver"
	"github.com/zclconf/go-cty/cty"
)

// calls is a concurrency-safe invocation log shared by test bodies.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func (c *calls) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// logged returns a body that records name and then runs then, if set.
func (c *calls) logged(name string, then func(env arch.Env) error) arch.Body {
	return arch.BodyFunc(func(_ context.Context, env arch.Env) error {
		c.add(name)
		if then != nil {
			return then(env)
		}
		return nil
	})
}

func visitOut(env arch.Env) error {
	hops, err := env.Neighbors(arch.HopFilter{Direction: arch.DirOut})
	if err != nil {
		return err
	}
	for _, h := range hops {
		if err := env.Visit(false, h.Node); err != nil {
			return err
		}
	}
	return nil
}

func ability(name string, ev arch.Event, body arch.Body, filter ...string) *module.AbilityDecl {
	return &module.AbilityDecl{Name: name, Signature: arch.Signature{Event: ev, Filter: filter}, Body: body}
}

type fixture struct {
	reg    *registry.Registry
	store  *graphstore.Store
	engine *Engine
	rec    *Recorder
}

func newFixture(t *testing.T, decls []module.Element, opts ...Option) *fixture {
	t.Helper()
	reg := registry.New()
	_, err := resolver.Resolve(context.Background(), reg, []*module.Module{{Name: "main", Elements: decls}})
	require.NoError(t, err)

	store := graphstore.New()
	rec := &Recorder{}
	opts = append([]Option{WithObservers(rec)}, opts...)
	return &fixture{reg: reg, store: store, engine: NewEngine(store, reg, opts...), rec: rec}
}

func (f *fixture) node(t *testing.T, name string) handle.Handle {
	t.Helper()
	a, err := f.reg.LookupArchitype(arch.KindNode, name)
	require.NoError(t, err)
	n, err := f.store.CreateNode(context.Background(), a, nil)
	require.NoError(t, err)
	return n.ID()
}

func (f *fixture) edge(t *testing.T, name string, from, to handle.Handle) handle.Handle {
	t.Helper()
	a, err := f.reg.LookupArchitype(arch.KindEdge, name)
	require.NoError(t, err)
	e, err := f.store.CreateEdge(context.Background(), a, from, to, a.Directed, nil)
	require.NoError(t, err)
	return e.ID()
}

func (f *fixture) spawn(t *testing.T, name string, at handle.Handle) *Walker {
	t.Helper()
	a, err := f.reg.LookupArchitype(arch.KindWalker, name)
	require.NoError(t, err)
	w, err := f.engine.Spawn(context.Background(), a, at, nil)
	require.NoError(t, err)
	return w
}

func TestEngine_GreetAnnounceScenario(t *testing.T) {
	c := &calls{}
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("greet", arch.EventEntry, c.logged("greet", visitOut)),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N", Abilities: []*module.AbilityDecl{
			ability("announce", arch.EventEntry, c.logged("announce", nil)),
		}},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	})
	n1 := f.node(t, "N")
	n2 := f.node(t, "N")
	f.edge(t, "E", n1, n2)

	w := f.spawn(t, "W", n1)
	assert.Equal(t, StateReady, w.State())

	ctx := context.Background()
	out := f.engine.Step(ctx, w)
	require.NoError(t, out.Err)
	assert.Equal(t, OutcomeContinue, out.Kind)
	assert.Equal(t, n1, out.Position)
	assert.Equal(t, 2, out.Invocations)
	assert.Equal(t, n2, w.Position())

	out = f.engine.Step(ctx, w)
	require.NoError(t, out.Err)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, 2, out.Invocations)

	assert.Equal(t, []string{"greet", "announce", "greet", "announce"}, c.all())
	assert.Equal(t, []string{
		"walker.W.greet@" + n1.String(),
		"node.N.announce@" + n1.String(),
		"walker.W.greet@" + n2.String(),
		"node.N.announce@" + n2.String(),
	}, f.rec.Abilities())
	assert.Equal(t, StateCompleted, w.State())
	assert.Equal(t, 2, w.Steps())
	assert.False(t, f.store.Pinned(n1))
	assert.False(t, f.store.Pinned(n2))

	again := f.engine.Step(ctx, w)
	assert.Equal(t, OutcomeCompleted, again.Kind)
	assert.Equal(t, 0, again.Invocations)
}

func TestEngine_EntryExitOrdering(t *testing.T) {
	c := &calls{}
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("w_exit", arch.EventExit, c.logged("w_exit", nil)),
			ability("w_entry", arch.EventEntry, c.logged("w_entry", visitOut)),
			ability("helper", arch.EventNone, c.logged("helper", nil)),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N", Abilities: []*module.AbilityDecl{
			ability("n_entry", arch.EventEntry, c.logged("n_entry", nil)),
			ability("n_exit", arch.EventExit, c.logged("n_exit", nil)),
		}},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	})
	n1 := f.node(t, "N")
	n2 := f.node(t, "N")
	f.edge(t, "E", n1, n2)

	w := f.spawn(t, "W", n1)
	require.NoError(t, f.engine.RunToCompletion(context.Background(), w))

	assert.Equal(t, []string{
		"w_entry", "n_entry", "w_exit", "n_exit",
		"w_entry", "n_entry", "w_exit", "n_exit",
	}, c.all())
}

func TestEngine_FiltersSelectAbilities(t *testing.T) {
	c := &calls{}
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("at_room", arch.EventEntry, c.logged("at_room", nil), "Room"),
			ability("anywhere", arch.EventEntry, c.logged("anywhere", visitOut)),
		}},
		&module.ArchDecl{Kind: arch.KindWalker, Name: "Other"},
		&module.ArchDecl{Kind: arch.KindNode, Name: "Place"},
		&module.ArchDecl{Kind: arch.KindNode, Name: "Room", Bases: []string{"Place"}, Abilities: []*module.AbilityDecl{
			ability("welcome_w", arch.EventEntry, c.logged("welcome_w", nil), "W"),
			ability("welcome_other", arch.EventEntry, c.logged("welcome_other", nil), "Other"),
		}},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	})
	place := f.node(t, "Place")
	room := f.node(t, "Room")
	f.edge(t, "E", place, room)

	w := f.spawn(t, "W", place)
	require.NoError(t, f.engine.RunToCompletion(context.Background(), w))
	assert.Equal(t, []string{"anywhere", "at_room", "anywhere", "welcome_w"}, c.all())
}

func TestEngine_Disengage(t *testing.T) {
	c := &calls{}
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("stop", arch.EventEntry, c.logged("stop", func(env arch.Env) error {
				if err := visitOut(env); err != nil {
					return err
				}
				env.Disengage()
				return nil
			})),
			ability("after", arch.EventEntry, c.logged("after", nil)),
			ability("leave", arch.EventExit, c.logged("leave", nil)),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	})
	n1 := f.node(t, "N")
	n2 := f.node(t, "N")
	f.edge(t, "E", n1, n2)

	w := f.spawn(t, "W", n1)
	out := f.engine.Step(context.Background(), w)
	assert.Equal(t, OutcomeDisengaged, out.Kind)
	assert.NoError(t, out.Err)
	assert.Equal(t, []string{"stop"}, c.all())
	assert.Equal(t, StateDisengaged, w.State())
	assert.Equal(t, n1, w.Position())
	assert.False(t, f.store.Pinned(n1))
	assert.Equal(t, TraceDisengage, f.rec.Kinds()[len(f.rec.Kinds())-1])

	require.NoError(t, f.engine.RunToCompletion(context.Background(), w))
}

func errorFixture(t *testing.T, c *calls, policy Policy) (*fixture, handle.Handle, handle.Handle) {
	t.Helper()
	boom := errors.New("boom")
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("move", arch.EventEntry, c.logged("move", visitOut)),
			ability("leave", arch.EventExit, c.logged("leave", nil)),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		&module.ArchDecl{Kind: arch.KindNode, Name: "Bad", Abilities: []*module.AbilityDecl{
			ability("explode", arch.EventEntry, c.logged("explode", func(arch.Env) error { return boom })),
			ability("unreached", arch.EventEntry, c.logged("unreached", nil)),
		}},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	}, WithPolicy(policy))
	bad := f.node(t, "Bad")
	next := f.node(t, "N")
	f.edge(t, "E", bad, next)
	return f, bad, next
}

func TestEngine_ContinuePolicy(t *testing.T) {
	c := &calls{}
	f, bad, next := errorFixture(t, c, Policy{})
	w := f.spawn(t, "W", bad)

	out := f.engine.Step(context.Background(), w)
	assert.Equal(t, OutcomeContinue, out.Kind)
	require.Error(t, out.Err)

	var abErr *AbilityError
	require.True(t, errors.As(out.Err, &abErr))
	assert.Equal(t, "node.Bad.explode", abErr.Path.String())
	assert.Equal(t, bad, abErr.Position)
	assert.Equal(t, arch.EventEntry, abErr.Event)
	assert.EqualError(t, abErr.Err, "boom")
	assert.Contains(t, out.Err.Error(), "ability node.Bad.explode failed on entry at "+bad.String())

	err := f.engine.RunToCompletion(context.Background(), w)
	assert.NoError(t, err)
	assert.Equal(t, StateCompleted, w.State())
	assert.Equal(t, next, w.Position())
	assert.Equal(t, []string{"move", "explode", "move", "leave"}, c.all())
	assert.Len(t, w.Errors(), 1)
}

func TestEngine_ContinuePolicyRunToCompletionJoinsErrors(t *testing.T) {
	c := &calls{}
	f, bad, _ := errorFixture(t, c, Policy{})
	w := f.spawn(t, "W", bad)

	err := f.engine.RunToCompletion(context.Background(), w)
	require.Error(t, err)
	var abErr *AbilityError
	require.True(t, errors.As(err, &abErr))
	assert.Equal(t, StateCompleted, w.State())
}

func TestEngine_HaltPolicy(t *testing.T) {
	c := &calls{}
	f, bad, _ := errorFixture(t, c, Policy{HaltOnError: true})
	w := f.spawn(t, "W", bad)

	err := f.engine.RunToCompletion(context.Background(), w)
	require.Error(t, err)
	assert.Equal(t, StateFailed, w.State())
	assert.Equal(t, []string{"move", "explode"}, c.all())
	assert.False(t, f.store.Pinned(bad))

	var abErr *AbilityError
	require.True(t, errors.As(err, &abErr))
	again := f.engine.Step(context.Background(), w)
	assert.Equal(t, OutcomeFailed, again.Kind)
	assert.Same(t, abErr, again.Err)
	assert.Contains(t, f.rec.Kinds(TraceError, TraceFail), TraceFail)
}

func TestEngine_PanicIsRecovered(t *testing.T) {
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("panic", arch.EventEntry, arch.BodyFunc(func(context.Context, arch.Env) error {
				panic("bad index")
			})),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
	}, WithPolicy(Policy{HaltOnError: true}))
	w := f.spawn(t, "W", f.node(t, "N"))

	err := f.engine.RunToCompletion(context.Background(), w)
	require.ErrorIs(t, err, ErrAbilityPanic)
	assert.Contains(t, err.Error(), "bad index")
	assert.Equal(t, StateFailed, w.State())
}

func TestEngine_QueueSemantics(t *testing.T) {
	t.Run("visit first prepends in order", func(t *testing.T) {
		c := &calls{}
		var a, b, d handle.Handle
		planned := false
		f := newFixture(t, []module.Element{
			&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
				ability("plan", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					c.add("at " + env.HereHandle().String())
					if env.HereHandle() != a || planned {
						return nil
					}
					planned = true
					if err := env.Visit(false, d); err != nil {
						return err
					}
					return env.Visit(true, b, a)
				})),
			}},
			&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		})
		a, b, d = f.node(t, "N"), f.node(t, "N"), f.node(t, "N")
		w := f.spawn(t, "W", a)

		out := f.engine.Step(context.Background(), w)
		require.NoError(t, out.Err)
		assert.Equal(t, []handle.Handle{a, d}, w.Queue())

		require.NoError(t, f.engine.RunToCompletion(context.Background(), w))
		// a is visited twice: revisits are allowed.
		assert.Equal(t, []string{"at " + a.String(), "at " + b.String(), "at " + a.String(), "at " + d.String()}, c.all())
	})

	t.Run("ignored and deleted entries are skipped", func(t *testing.T) {
		c := &calls{}
		var start, ignored, deleted, kept handle.Handle
		f := newFixture(t, []module.Element{
			&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
				ability("plan", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					c.add(env.HereHandle().String())
					if env.HereHandle() != start {
						return nil
					}
					if err := env.Visit(false, ignored, deleted, kept); err != nil {
						return err
					}
					env.Ignore(ignored)
					return env.Delete(deleted)
				})),
			}},
			&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		})
		start, ignored, deleted, kept = f.node(t, "N"), f.node(t, "N"), f.node(t, "N"), f.node(t, "N")
		w := f.spawn(t, "W", start)

		require.NoError(t, f.engine.RunToCompletion(context.Background(), w))
		assert.Equal(t, []string{start.String(), kept.String()}, c.all())

		var skips []string
		for _, ev := range f.rec.Events() {
			if ev.Kind == TraceSkip {
				skips = append(skips, ev.Detail)
			}
		}
		assert.Equal(t, []string{"ignored", "deleted"}, skips)
	})

	t.Run("error - visit dead handle", func(t *testing.T) {
		f := newFixture(t, []module.Element{
			&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
				ability("plan", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					return env.Visit(false, handle.Node(99, 1))
				})),
			}},
			&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		})
		w := f.spawn(t, "W", f.node(t, "N"))
		err := f.engine.RunToCompletion(context.Background(), w)
		assert.ErrorIs(t, err, graphstore.ErrDanglingReference)
	})

	t.Run("error - deleting the current position", func(t *testing.T) {
		f := newFixture(t, []module.Element{
			&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
				ability("suicide", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					return env.Delete(env.HereHandle())
				})),
			}},
			&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		})
		n := f.node(t, "N")
		w := f.spawn(t, "W", n)
		err := f.engine.RunToCompletion(context.Background(), w)
		assert.ErrorIs(t, err, graphstore.ErrReferencedByActiveWalker)
		assert.True(t, f.store.Exists(n))
	})
}

func TestEngine_FieldAndGlobalMutations(t *testing.T) {
	tbl := globals.New()
	require.NoError(t, tbl.Declare("main", "visits", cty.NumberIntVal(0), false))

	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W",
			Fields: []arch.Field{{Name: "seen", Type: cty.Number, Default: cty.NumberIntVal(0)}},
			Abilities: []*module.AbilityDecl{
				ability("count", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					seen, err := env.Visitor().Fields().Get("seen")
					if err != nil {
						return err
					}
					if err := env.Visitor().Fields().Set("seen", seen.Add(cty.NumberIntVal(1))); err != nil {
						return err
					}
					total, err := env.Global("visits")
					if err != nil {
						return err
					}
					assert.Contains(t, env.Globals(), "visits")
					return env.SetGlobal("visits", total.Add(cty.NumberIntVal(1)))
				})),
			}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
	}, WithGlobals(tbl))

	a, err := f.reg.LookupArchitype(arch.KindWalker, "W")
	require.NoError(t, err)
	start := f.node(t, "N")
	w, err := f.engine.Spawn(context.Background(), a, start, map[string]cty.Value{"seen": cty.NumberIntVal(10)})
	require.NoError(t, err)
	assert.True(t, w.Args().GetAttr("seen").Equals(cty.NumberIntVal(10)).True())

	_, err = f.engine.Spawn(context.Background(), a, start, map[string]cty.Value{"grow": cty.True})
	require.ErrorIs(t, err, arch.ErrUnknownField)

	require.NoError(t, f.engine.RunToCompletion(context.Background(), w))
	seen, err := w.Fields().Get("seen")
	require.NoError(t, err)
	assert.True(t, seen.Equals(cty.NumberIntVal(11)).True())

	visits, err := tbl.Get("main", "visits")
	require.NoError(t, err)
	assert.True(t, visits.Equals(cty.NumberIntVal(1)).True())
}

func TestEngine_GlobalsWithoutTable(t *testing.T) {
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("read", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
				assert.Empty(t, env.Globals())
				_, err := env.Global("x")
				return err
			})),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
	})
	w := f.spawn(t, "W", f.node(t, "N"))
	assert.ErrorIs(t, f.engine.RunToCompletion(context.Background(), w), ErrNoGlobals)
}

func TestEngine_GrowGraph(t *testing.T) {
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "Grower",
			Fields: []arch.Field{{Name: "grow", Type: cty.Bool, Default: cty.True}},
			Abilities: []*module.AbilityDecl{
				ability("grow", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					if env.Here().Architype().Name != "N" {
						return nil
					}
					child, err := env.CreateNode("Leaf", map[string]cty.Value{"label": cty.StringVal("grown")})
					if err != nil {
						return err
					}
					if _, err := env.Connect("E", env.HereHandle(), child, nil); err != nil {
						return err
					}
					return visitOut(env)
				})),
			}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
		&module.ArchDecl{Kind: arch.KindNode, Name: "Leaf",
			Fields: []arch.Field{{Name: "label", Type: cty.String}},
			Abilities: []*module.AbilityDecl{
				ability("mark", arch.EventEntry, arch.BodyFunc(func(_ context.Context, env arch.Env) error {
					env.Report(env.Self().Fields().Object())
					return env.Self().Fields().Set("label", cty.StringVal("visited"))
				})),
			}},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	})

	start := f.node(t, "N")
	w := f.spawn(t, "Grower", start)
	require.NoError(t, f.engine.RunToCompletion(context.Background(), w))

	nodes, edges := f.store.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)

	reports := w.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, "grown", reports[0].GetAttr("label").AsString())

	leaf, err := f.store.Node(w.Position())
	require.NoError(t, err)
	label, err := leaf.Fields().Get("label")
	require.NoError(t, err)
	assert.Equal(t, "visited", label.AsString())
	assert.Contains(t, f.rec.Kinds(), TraceReport)
}

func TestEngine_SpawnErrors(t *testing.T) {
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W"},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
	})
	n := f.node(t, "N")

	nodeArch, err := f.reg.LookupArchitype(arch.KindNode, "N")
	require.NoError(t, err)
	_, err = f.engine.Spawn(context.Background(), nodeArch, n, nil)
	assert.ErrorIs(t, err, ErrNotWalker)

	w, err := f.reg.LookupArchitype(arch.KindWalker, "W")
	require.NoError(t, err)
	_, err = f.engine.Spawn(context.Background(), w, handle.Node(50, 1), nil)
	assert.ErrorIs(t, err, graphstore.ErrDanglingReference)
	assert.Empty(t, f.engine.Walkers())
}

func TestEngine_ContextCancelled(t *testing.T) {
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W"},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
	})
	start := f.node(t, "N")
	w := f.spawn(t, "W", start)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := f.engine.Step(ctx, w)
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, context.Canceled)

	// The walker is paused, not failed.
	assert.Equal(t, StateReady, w.State())
	assert.Equal(t, start, w.Position())
	assert.Empty(t, w.Errors())
	assert.Equal(t, 0, w.Steps())
	assert.True(t, f.store.Pinned(start))

	err := f.engine.RunToCompletion(ctx, w)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateReady, w.State())

	require.NoError(t, f.engine.RunToCompletion(context.Background(), w))
	assert.Equal(t, StateCompleted, w.State())
}

func TestEngine_AbstractSlotIsSkipped(t *testing.T) {
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			{Name: "later", Abstract: true, Signature: arch.Signature{Event: arch.EventEntry}},
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N"},
	})
	w := f.spawn(t, "W", f.node(t, "N"))
	out := f.engine.Step(context.Background(), w)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, 0, out.Invocations)
}

func TestEngine_RunAll(t *testing.T) {
	const walkers = 8
	c := &calls{}
	f := newFixture(t, []module.Element{
		&module.ArchDecl{Kind: arch.KindWalker, Name: "W", Abilities: []*module.AbilityDecl{
			ability("tick", arch.EventEntry, c.logged("tick", visitOut)),
		}},
		&module.ArchDecl{Kind: arch.KindNode, Name: "N", Fields: []arch.Field{{Name: "hits", Type: cty.Number, Default: cty.NumberIntVal(0)}}},
		&module.ArchDecl{Kind: arch.KindEdge, Name: "E", Directed: true},
	})
	chain := []handle.Handle{f.node(t, "N"), f.node(t, "N"), f.node(t, "N")}
	f.edge(t, "E", chain[0], chain[1])
	f.edge(t, "E", chain[1], chain[2])

	var ws []*Walker
	for range walkers {
		ws = append(ws, f.spawn(t, "W", chain[0]))
	}
	require.NoError(t, f.engine.RunAll(context.Background(), 3, ws...))

	assert.Len(t, c.all(), walkers*len(chain))
	for _, w := range ws {
		assert.Equal(t, StateCompleted, w.State())
	}
	assert.Len(t, f.engine.Walkers(), walkers)
	got, ok := f.engine.Walker(ws[0].ID())
	require.True(t, ok)
	assert.Same(t, ws[0], got)
	for _, h := range chain {
		assert.False(t, f.store.Pinned(h), "node %s", h)
	}
}

func TestEngine_RunAllCollectsErrors(t *testing.T) {
	c := &calls{}
	f, bad, _ := errorFixture(t, c, Policy{})
	ws := []*Walker{f.spawn(t, "W", bad), f.spawn(t, "W", bad)}

	err := f.engine.RunAll(context.Background(), 2, ws...)
	require.Error(t, err)
	for _, w := range ws {
		assert.Contains(t, err.Error(), fmt.Sprintf("walker %s", w.ID()))
		assert.Equal(t, StateCompleted, w.State())
	}
}

func TestEngine_RunAllHaltsOnError(t *testing.T) {
	c := &calls{}
	f, bad, _ := errorFixture(t, c, Policy{HaltOnError: true})
	w := f.spawn(t, "W", bad)

	err := f.engine.RunAll(context.Background(), 1, w)
	require.Error(t, err)
	assert.Equal(t, StateFailed, w.State())
}
