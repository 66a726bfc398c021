package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/vk/walkgrid/internal/module"
	"github.com/vk/walkgrid/internal/walker"
)

// Seed is what BuildGraph created, keyed by the local names used in the
// graph element.
type Seed struct {
	Graph   *module.Graph
	Nodes   map[string]handle.Handle
	Edges   map[string]handle.Handle
	Walkers []*walker.Walker
}

// GraphNames lists the seed graphs of all loaded modules.
func (r *Runtime) GraphNames() []string {
	var names []string
	for _, m := range r.Modules() {
		for _, g := range m.Graphs() {
			names = append(names, g.Name)
		}
	}
	sort.Strings(names)
	return names
}

// FindGraph returns the seed graph called name.
func (r *Runtime) FindGraph(name string) (*module.Graph, error) {
	var found *module.Graph
	var owners []string
	for _, m := range r.Modules() {
		if g, ok := m.Graph(name); ok {
			found = g
			owners = append(owners, m.Name)
		}
	}
	switch len(owners) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGraph, name)
	case 1:
		return found, nil
	default:
		return nil, fmt.Errorf("%w: %q in %v", ErrGraphConflict, name, owners)
	}
}

// BuildGraph creates the nodes and edges of the named seed graph and spawns
// its walkers. Nothing is run.
func (r *Runtime) BuildGraph(ctx context.Context, name string) (*Seed, error) {
	if !r.isLoaded() {
		return nil, ErrNotLoaded
	}
	g, err := r.FindGraph(name)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("graph", name)

	seed := &Seed{
		Graph: g,
		Nodes: make(map[string]handle.Handle, len(g.Nodes)),
		Edges: make(map[string]handle.Handle, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		if _, dup := seed.Nodes[n.Name]; dup {
			return nil, fmt.Errorf("graph %q: node %q defined twice", name, n.Name)
		}
		a, err := r.reg.LookupArchitype(arch.KindNode, n.Arch)
		if err != nil {
			return nil, fmt.Errorf("graph %q: node %q: %w", name, n.Name, err)
		}
		node, err := r.store.CreateNode(ctx, a, n.Fields)
		if err != nil {
			return nil, fmt.Errorf("graph %q: node %q: %w", name, n.Name, err)
		}
		seed.Nodes[n.Name] = node.ID()
	}

	for _, e := range g.Edges {
		a, err := r.reg.LookupArchitype(arch.KindEdge, e.Arch)
		if err != nil {
			return nil, fmt.Errorf("graph %q: edge %q: %w", name, e.Name, err)
		}
		from, ok := seed.Nodes[e.From]
		if !ok {
			return nil, fmt.Errorf("graph %q: edge %q: %w %q", name, e.Name, ErrUnknownSeed, e.From)
		}
		to, ok := seed.Nodes[e.To]
		if !ok {
			return nil, fmt.Errorf("graph %q: edge %q: %w %q", name, e.Name, ErrUnknownSeed, e.To)
		}
		directed := a.Directed
		if e.Directed != nil {
			directed = *e.Directed
		}
		edge, err := r.store.CreateEdge(ctx, a, from, to, directed, e.Fields)
		if err != nil {
			return nil, fmt.Errorf("graph %q: edge %q: %w", name, e.Name, err)
		}
		if e.Name != "" {
			seed.Edges[e.Name] = edge.ID()
		}
	}

	for _, s := range g.Spawns {
		at, ok := seed.Nodes[s.At]
		if !ok {
			return nil, fmt.Errorf("graph %q: spawn %q: %w %q", name, s.Walker, ErrUnknownSeed, s.At)
		}
		w, err := r.SpawnWalker(ctx, s.Walker, at, s.Args)
		if err != nil {
			return nil, fmt.Errorf("graph %q: spawn %q: %w", name, s.Walker, err)
		}
		seed.Walkers = append(seed.Walkers, w)
	}

	logger.Info("Seed graph built.", "nodes", len(seed.Nodes), "edges", len(g.Edges), "walkers", len(seed.Walkers))
	return seed, nil
}
