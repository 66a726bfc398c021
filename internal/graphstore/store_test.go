package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

var (
	nodeN = linked(&arch.Architype{Kind: arch.KindNode, Name: "N", Fields: []arch.Field{
		{Name: "count", Type: cty.Number, Default: cty.NumberIntVal(0)},
	}})
	nodeRoom = linked(&arch.Architype{Kind: arch.KindNode, Name: "Room", Bases: []*arch.Architype{nodeN}})
	edgeE    = linked(&arch.Architype{Kind: arch.KindEdge, Name: "E", Directed: true})
	edgeRoad = linked(&arch.Architype{Kind: arch.KindEdge, Name: "Road", Bases: []*arch.Architype{edgeE}})
	edgeLink = linked(&arch.Architype{Kind: arch.KindEdge, Name: "Link"})
	walkerW  = linked(&arch.Architype{Kind: arch.KindWalker, Name: "W"})
)

func linked(a *arch.Architype) *arch.Architype {
	a.Link()
	return a
}

func mustNode(t *testing.T, s *Store, a *arch.Architype) handle.Handle {
	t.Helper()
	n, err := s.CreateNode(context.Background(), a, nil)
	require.NoError(t, err)
	return n.ID()
}

func mustEdge(t *testing.T, s *Store, a *arch.Architype, from, to handle.Handle, directed bool) handle.Handle {
	t.Helper()
	e, err := s.CreateEdge(context.Background(), a, from, to, directed, nil)
	require.NoError(t, err)
	return e.ID()
}

func collect(t *testing.T, s *Store, h handle.Handle, f arch.HopFilter) []handle.Handle {
	t.Helper()
	seq, err := s.Neighbors(h, f)
	require.NoError(t, err)
	var out []handle.Handle
	for _, n := range seq {
		out = append(out, n.ID())
	}
	return out
}

func TestStore_CreateNode(t *testing.T) {
	s := New()
	ctx := context.Background()

	n, err := s.CreateNode(ctx, nodeN, map[string]cty.Value{"count": cty.NumberIntVal(3)})
	require.NoError(t, err)
	assert.Equal(t, handle.Node(0, 1), n.ID())
	v, err := n.Fields().Get("count")
	require.NoError(t, err)
	assert.True(t, v.Equals(cty.NumberIntVal(3)).True())

	_, err = s.CreateNode(ctx, walkerW, nil)
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = s.CreateNode(ctx, nodeN, map[string]cty.Value{"count": cty.StringVal("x")})
	assert.ErrorIs(t, err, arch.ErrFieldType)

	room, err := s.CreateNode(ctx, nodeRoom, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"count"}, room.Fields().Names())
}

func TestStore_CreateEdge(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustNode(t, s, nodeN)
	b := mustNode(t, s, nodeN)

	e, err := s.CreateEdge(ctx, edgeE, a, b, true, nil)
	require.NoError(t, err)
	assert.Equal(t, a, e.Source())
	assert.Equal(t, b, e.Target())
	assert.True(t, e.Directed())
	assert.Equal(t, b, e.Other(a))

	_, err = s.CreateEdge(ctx, nodeN, a, b, true, nil)
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = s.CreateEdge(ctx, edgeE, a, handle.Node(9, 1), true, nil)
	assert.ErrorIs(t, err, ErrDanglingReference)

	incident, err := s.IncidentEdges(a)
	require.NoError(t, err)
	assert.Equal(t, []handle.Handle{e.ID()}, incident)
}

func TestStore_DeleteNodeCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustNode(t, s, nodeN)
	b := mustNode(t, s, nodeN)
	c := mustNode(t, s, nodeN)
	ab := mustEdge(t, s, edgeE, a, b, true)
	cb := mustEdge(t, s, edgeE, c, b, true)
	ac := mustEdge(t, s, edgeE, a, c, true)

	require.NoError(t, s.DeleteNode(ctx, b))

	assert.False(t, s.Exists(b))
	assert.False(t, s.Exists(ab))
	assert.False(t, s.Exists(cb))
	assert.True(t, s.Exists(ac))

	for _, h := range []handle.Handle{a, c} {
		incident, err := s.IncidentEdges(h)
		require.NoError(t, err)
		assert.Equal(t, []handle.Handle{ac}, incident, "node %s", h)
	}

	nodes, edges := s.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)

	_, err := s.Node(b)
	assert.ErrorIs(t, err, ErrDanglingReference)
	assert.ErrorIs(t, s.DeleteNode(ctx, b), ErrDanglingReference)
}

func TestStore_GenerationalHandles(t *testing.T) {
	s := New()
	ctx := context.Background()
	old := mustNode(t, s, nodeN)
	require.NoError(t, s.DeleteNode(ctx, old))

	reused := mustNode(t, s, nodeN)
	assert.Equal(t, old.Index, reused.Index)
	assert.NotEqual(t, old.Gen, reused.Gen)

	_, err := s.Node(old)
	assert.ErrorIs(t, err, ErrDanglingReference)
	_, err = s.Node(reused)
	assert.NoError(t, err)

	_, err = s.Edge(reused)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestStore_Pinning(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustNode(t, s, nodeN)
	b := mustNode(t, s, nodeN)
	e := mustEdge(t, s, edgeE, a, b, true)

	t.Run("pinned node", func(t *testing.T) {
		require.NoError(t, s.Pin(a))
		assert.ErrorIs(t, s.DeleteNode(ctx, a), ErrReferencedByActiveWalker)
		s.Unpin(a)
		assert.False(t, s.Pinned(a))
	})

	t.Run("pinned incident edge", func(t *testing.T) {
		require.NoError(t, s.Pin(e))
		assert.ErrorIs(t, s.DeleteNode(ctx, b), ErrReferencedByActiveWalker)
		assert.ErrorIs(t, s.DeleteEdge(ctx, e), ErrReferencedByActiveWalker)
		assert.True(t, s.Exists(b))
		assert.True(t, s.Exists(e))
		s.Unpin(e)
	})

	t.Run("pin counts", func(t *testing.T) {
		require.NoError(t, s.Pin(b))
		require.NoError(t, s.Pin(b))
		s.Unpin(b)
		assert.True(t, s.Pinned(b))
		s.Unpin(b)
		assert.False(t, s.Pinned(b))
	})

	t.Run("error - pin dead handle", func(t *testing.T) {
		assert.ErrorIs(t, s.Pin(handle.Node(42, 1)), ErrDanglingReference)
	})

	require.NoError(t, s.Delete(ctx, e))
	require.NoError(t, s.Delete(ctx, a))
}

func TestStore_Neighbors(t *testing.T) {
	s := New()
	hub := mustNode(t, s, nodeN)
	n1 := mustNode(t, s, nodeN)
	r2 := mustNode(t, s, nodeRoom)
	n3 := mustNode(t, s, nodeN)
	n4 := mustNode(t, s, nodeN)

	mustEdge(t, s, edgeE, hub, n1, true)
	road := mustEdge(t, s, edgeRoad, hub, r2, true)
	mustEdge(t, s, edgeE, n3, hub, true)
	mustEdge(t, s, edgeLink, hub, n4, false)

	testCases := []struct {
		name     string
		from     handle.Handle
		filter   arch.HopFilter
		expected []handle.Handle
	}{
		{name: "any direction in insertion order", from: hub, expected: []handle.Handle{n1, r2, n3, n4}},
		{name: "outgoing", from: hub, filter: arch.HopFilter{Direction: arch.DirOut}, expected: []handle.Handle{n1, r2, n4}},
		{name: "incoming", from: hub, filter: arch.HopFilter{Direction: arch.DirIn}, expected: []handle.Handle{n3, n4}},
		{name: "edge subtype", from: hub, filter: arch.HopFilter{Edge: []string{"E"}}, expected: []handle.Handle{n1, r2, n3}},
		{name: "edge exact", from: hub, filter: arch.HopFilter{Edge: []string{"Road"}}, expected: []handle.Handle{r2}},
		{name: "node filter", from: hub, filter: arch.HopFilter{Node: []string{"Room"}}, expected: []handle.Handle{r2}},
		{name: "reverse view", from: n1, filter: arch.HopFilter{Direction: arch.DirIn}, expected: []handle.Handle{hub}},
		{name: "no match", from: n1, filter: arch.HopFilter{Direction: arch.DirOut}},
		{name: "edge endpoints", from: road, expected: []handle.Handle{r2, hub}},
		{name: "edge target only", from: road, filter: arch.HopFilter{Direction: arch.DirOut}, expected: []handle.Handle{r2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, collect(t, s, tc.from, tc.filter))
		})
	}
}

func TestStore_NeighborsLazyAndRestartable(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustNode(t, s, nodeN)
	b := mustNode(t, s, nodeN)
	mustEdge(t, s, edgeE, a, b, true)

	seq, err := s.Neighbors(a, arch.HopFilter{})
	require.NoError(t, err)

	c := mustNode(t, s, nodeN)
	mustEdge(t, s, edgeE, a, c, true)

	var first []handle.Handle
	for _, n := range seq {
		first = append(first, n.ID())
		// Mutating mid-iteration must not deadlock.
		mustNode(t, s, nodeN)
	}
	assert.Equal(t, []handle.Handle{b, c}, first)

	var second []handle.Handle
	for _, n := range seq {
		second = append(second, n.ID())
	}
	assert.Equal(t, first, second)

	for _, n := range seq {
		assert.Equal(t, b, n.ID())
		break
	}

	require.NoError(t, s.DeleteNode(ctx, a))
	var after []handle.Handle
	for _, n := range seq {
		after = append(after, n.ID())
	}
	assert.Empty(t, after)

	_, err = s.Neighbors(a, arch.HopFilter{})
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestStore_SelfLoop(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustNode(t, s, nodeN)
	loop := mustEdge(t, s, edgeE, a, a, true)

	hops, err := s.Hops(a, arch.HopFilter{})
	require.NoError(t, err)
	assert.Equal(t, []arch.Hop{{Edge: loop, Node: a}}, hops)

	require.NoError(t, s.DeleteEdge(ctx, loop))
	incident, err := s.IncidentEdges(a)
	require.NoError(t, err)
	assert.Empty(t, incident)
}
