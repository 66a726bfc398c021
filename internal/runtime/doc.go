// Package runtime is the external interface of walkgrid: it resolves module
// trees into a frozen registry, owns the graph store and the global scope,
// and drives walkers through the engine.
package runtime
