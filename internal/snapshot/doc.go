// Package snapshot captures the contents of a graph store and persists it.
//
// Field values are encoded with cty/json against the declared field types
// of each architype, so a snapshot restores only into a registry that
// declares the same architypes.
package snapshot
