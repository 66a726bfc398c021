/*
Package graphstore is the in-memory store of node and edge instances.

Instances live in two arenas, one for nodes and one for edges, and are named
by generational handles. Deleting an instance frees its slot and bumps the
slot generation, so stale handles fail with ErrDanglingReference instead of
resolving to a newer instance.

Edges are owned by the store. Each endpoint keeps a non-owning list of its
incident edge handles in insertion order, which fixes the order in which
neighbors are produced.

Walkers pin the instance they stand on. A pinned node, or a node with a
pinned incident edge, cannot be deleted (ErrReferencedByActiveWalker).

Structural changes are serialized by a single RWMutex. Field values are
guarded per instance by arch.Fields. Neighbor sequences never hold the store
lock while yielding, so a consumer may mutate the graph mid-iteration.
*/
package graphstore
