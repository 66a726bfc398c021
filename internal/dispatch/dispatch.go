package dispatch

import (
	"sync"

	"github.com/vk/walkgrid/internal/arch"
)

// Side tells whose ability an invocation runs.
type Side uint8

const (
	SideWalker Side = iota + 1
	SidePosition
)

func (s Side) String() string {
	if s == SideWalker {
		return "walker"
	}
	return "position"
}

// Invocation is one ability to run during a dispatch.
type Invocation struct {
	Side    Side
	Ability *arch.Ability
}

// Match computes the ordered invocations for walker architype w at a
// position of architype p on event ev.
func Match(w, p *arch.Architype, ev arch.Event) []Invocation {
	if ev == arch.EventNone {
		return nil
	}
	var out []Invocation
	for _, ab := range w.EffectiveAbilities() {
		if ab.Signature.Event == ev && p.MatchesAny(ab.Signature.Filter) {
			out = append(out, Invocation{Side: SideWalker, Ability: ab})
		}
	}
	for _, ab := range p.EffectiveAbilities() {
		if ab.Signature.Event == ev && w.MatchesAny(ab.Signature.Filter) {
			out = append(out, Invocation{Side: SidePosition, Ability: ab})
		}
	}
	return out
}

type tableKey struct {
	walker   *arch.Architype
	position *arch.Architype
	event    arch.Event
}

// Table caches Match results.
type Table struct {
	cache sync.Map
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Match returns the cached invocation list, computing it on first use. The
// returned slice must not be modified.
func (t *Table) Match(w, p *arch.Architype, ev arch.Event) []Invocation {
	key := tableKey{walker: w, position: p, event: ev}
	if v, ok := t.cache.Load(key); ok {
		return v.([]Invocation)
	}
	invs := Match(w, p, ev)
	actual, _ := t.cache.LoadOrStore(key, invs)
	return actual.([]Invocation)
}
