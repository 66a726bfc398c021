/*
Package handle provides stable, generational identifiers for graph instances.

A handle names one node or edge slot in the graph store arena together with
the generation the slot had when the instance was created. Deleting an
instance bumps the slot generation, so a stale handle never resolves to the
instance that later reuses the slot.

The canonical text form is `n<index>.<generation>` for nodes and
`e<index>.<generation>` for edges, e.g. `n3.1`.
*/
package handle
