package module

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrUnknownImport is returned when a module imports a name no loaded
// module carries.
var ErrUnknownImport = errors.New("unknown import")

// DepGraph is the import dependency graph of a module set. An edge runs from
// an imported module to the module importing it.
type DepGraph struct {
	nodes map[string]*depNode
}

type depNode struct {
	mod        *Module
	deps       map[string]*depNode
	dependents map[string]*depNode
}

// NewDepGraph builds the graph for mods. Every unknown import is reported;
// duplicate module names are an error.
func NewDepGraph(mods []*Module) (*DepGraph, error) {
	g := &DepGraph{nodes: make(map[string]*depNode, len(mods))}
	for _, m := range mods {
		if _, ok := g.nodes[m.Name]; ok {
			return nil, fmt.Errorf("duplicate module name %q", m.Name)
		}
		g.nodes[m.Name] = &depNode{
			mod:        m,
			deps:       make(map[string]*depNode),
			dependents: make(map[string]*depNode),
		}
	}

	var errs []error
	for _, m := range mods {
		n := g.nodes[m.Name]
		for _, imp := range m.Imports() {
			dep, ok := g.nodes[imp.Module]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: module %q imports %q (%s:%d)", ErrUnknownImport, m.Name, imp.Module, imp.File, imp.Line))
				continue
			}
			if dep == n {
				continue
			}
			n.deps[dep.mod.Name] = dep
			dep.dependents[n.mod.Name] = n
		}
	}
	if len(errs) > 0 {
		return g, errors.Join(errs...)
	}
	return g, nil
}

// Imports returns the names of the modules m imports directly, sorted.
func (g *DepGraph) Imports(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.deps))
	for dep := range n.deps {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// Order returns the modules with imports before importers. Ties break by
// module name. Modules caught in an import cycle are appended by name once
// nothing else is ready, since binding is global and does not depend on the
// order.
func (g *DepGraph) Order() []*Module {
	pending := make(map[string]int, len(g.nodes))
	for name, n := range g.nodes {
		pending[name] = len(n.deps)
	}

	out := make([]*Module, 0, len(g.nodes))
	done := make(map[string]bool, len(g.nodes))
	for len(out) < len(g.nodes) {
		var ready []string
		for name, count := range pending {
			if count == 0 && !done[name] {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			// Cycle: release the smallest remaining name.
			for name := range pending {
				if !done[name] {
					ready = append(ready, name)
				}
			}
			sort.Strings(ready)
			ready = ready[:1]
		}
		sort.Strings(ready)
		name := ready[0]
		done[name] = true
		out = append(out, g.nodes[name].mod)
		for dependent := range g.nodes[name].dependents {
			pending[dependent]--
		}
	}
	return out
}

// Cycles returns the names of modules that take part in an import cycle,
// sorted.
func (g *DepGraph) Cycles() []string {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	inCycle := make(map[string]bool)
	var stack []string

	var visit func(n *depNode)
	visit = func(n *depNode) {
		if permanent[n.mod.Name] {
			return
		}
		if temporary[n.mod.Name] {
			start := slices.Index(stack, n.mod.Name)
			for _, name := range stack[start:] {
				inCycle[name] = true
			}
			return
		}
		temporary[n.mod.Name] = true
		stack = append(stack, n.mod.Name)
		for _, dependent := range sortedNodes(n.dependents) {
			visit(dependent)
		}
		stack = stack[:len(stack)-1]
		temporary[n.mod.Name] = false
		permanent[n.mod.Name] = true
	}

	for _, n := range sortedNodes(g.nodes) {
		visit(n)
	}

	out := make([]string, 0, len(inCycle))
	for name := range inCycle {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedNodes(m map[string]*depNode) []*depNode {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*depNode, len(names))
	for i, name := range names {
		out[i] = m[name]
	}
	return out
}
