/*
Package arch defines the architype model shared by every other package: the
four architype kinds, typed fields, ability slots with their event signature,
qualified ability paths, and the contracts an ability body runs against.

# Architypes

An Architype is a named type of one of four kinds (object, node, edge,
walker). It owns typed fields and an ordered list of ability slots. Bases are
resolved to pointers during linking, after which the effective field set and
the effective ability list (inherited abilities first, overrides keeping the
base position) are fixed.

# Bodies

A Body is whatever executes an ability: a compiled script from a module file
or a Go function. Bodies receive an Env, which exposes the current event, the
walker and position instances, graph operations and globals. The walker
engine provides the only production Env.
*/
package arch
