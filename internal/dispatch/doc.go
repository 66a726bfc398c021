// Package dispatch decides which abilities fire when a walker meets a
// position.
//
// For a walker architype W, a position architype P and an event, Match
// returns the walker-side abilities of W triggered on that event whose filter
// accepts P, followed by the position-side abilities of P whose filter
// accepts W. Within a side the order is the effective ability order of the
// architype: inherited abilities first, in declaration order, with overrides
// keeping the position of the ability they replace. Filters are
// subtype-aware.
//
// A Table memoizes results per (W, P, event). It is only valid once the
// registry is frozen, since it assumes architypes no longer change.
package dispatch
