package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/walkgrid/internal/arch"
)

func newArch(kind arch.Kind, name string, bases ...*arch.Architype) *arch.Architype {
	return &arch.Architype{Kind: kind, Name: name, Bases: bases}
}

func addAbility(a *arch.Architype, name string, ev arch.Event, filter ...string) {
	a.Abilities = append(a.Abilities, &arch.Ability{
		Name:      name,
		Owner:     a,
		Order:     len(a.Abilities),
		Signature: arch.Signature{Event: ev, Filter: filter},
	})
}

func labels(invs []Invocation) []string {
	out := make([]string, len(invs))
	for i, inv := range invs {
		out[i] = inv.Side.String() + ":" + inv.Ability.Path().String()
	}
	return out
}

func TestMatch(t *testing.T) {
	baseWalker := newArch(arch.KindWalker, "Base")
	addAbility(baseWalker, "setup", arch.EventEntry)
	addAbility(baseWalker, "greet", arch.EventEntry, "N")
	baseWalker.Link()

	w := newArch(arch.KindWalker, "W", baseWalker)
	addAbility(w, "look", arch.EventEntry, "Room")
	addAbility(w, "greet", arch.EventEntry, "N")
	addAbility(w, "leave", arch.EventExit)
	addAbility(w, "helper", arch.EventNone)
	w.Link()

	other := newArch(arch.KindWalker, "Other")
	other.Link()

	n := newArch(arch.KindNode, "N")
	addAbility(n, "announce", arch.EventEntry, "Base")
	addAbility(n, "only_other", arch.EventEntry, "Other")
	addAbility(n, "bye", arch.EventExit)
	n.Link()

	room := newArch(arch.KindNode, "Room", n)
	addAbility(room, "lights", arch.EventEntry)
	room.Link()

	testCases := []struct {
		name     string
		walker   *arch.Architype
		position *arch.Architype
		event    arch.Event
		expected []string
	}{
		{
			name:   "walker side first, overrides keep base position",
			walker: w, position: n, event: arch.EventEntry,
			expected: []string{
				"walker:walker.Base.setup",
				"walker:walker.W.greet",
				"position:node.N.announce",
			},
		},
		{
			name:   "subtype position and inherited position abilities",
			walker: w, position: room, event: arch.EventEntry,
			expected: []string{
				"walker:walker.Base.setup",
				"walker:walker.W.greet",
				"walker:walker.W.look",
				"position:node.N.announce",
				"position:node.Room.lights",
			},
		},
		{
			name:   "exit",
			walker: w, position: n, event: arch.EventExit,
			expected: []string{"walker:walker.W.leave", "position:node.N.bye"},
		},
		{
			name:   "position filter rejects walker",
			walker: other, position: n, event: arch.EventEntry,
			expected: []string{"position:node.N.only_other"},
		},
		{
			name:   "no event never matches",
			walker: w, position: n, event: arch.EventNone,
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, labels(Match(tc.walker, tc.position, tc.event)))
		})
	}
}

func TestTable_Caches(t *testing.T) {
	w := newArch(arch.KindWalker, "W")
	addAbility(w, "greet", arch.EventEntry)
	w.Link()
	n := newArch(arch.KindNode, "N")
	n.Link()

	table := NewTable()
	first := table.Match(w, n, arch.EventEntry)
	second := table.Match(w, n, arch.EventEntry)
	assert.Len(t, first, 1)
	assert.Same(t, &first[0], &second[0])
	assert.Empty(t, table.Match(w, n, arch.EventExit))
}
