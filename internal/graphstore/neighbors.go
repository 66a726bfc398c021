package graphstore

import (
	"iter"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
)

type hop struct {
	edge *Edge
	node *Node
}

// Neighbors returns the nodes adjacent to h that pass f, each paired with
// the edge leading to it. For an edge handle the neighbors are its
// endpoints: the target counts as outgoing and the source as incoming.
//
// The sequence is lazy and restartable: each iteration takes a fresh
// snapshot of the adjacency under the read lock and yields without holding
// it. If h has been deleted by the time the sequence is iterated, it yields
// nothing.
func (s *Store) Neighbors(h handle.Handle, f arch.HopFilter) (iter.Seq2[*Edge, *Node], error) {
	if _, err := s.Instance(h); err != nil {
		return nil, err
	}
	return func(yield func(*Edge, *Node) bool) {
		for _, hp := range s.collectHops(h, f) {
			if !yield(hp.edge, hp.node) {
				return
			}
		}
	}, nil
}

// Hops collects Neighbors into arch.Hop values.
func (s *Store) Hops(h handle.Handle, f arch.HopFilter) ([]arch.Hop, error) {
	seq, err := s.Neighbors(h, f)
	if err != nil {
		return nil, err
	}
	var out []arch.Hop
	for e, n := range seq {
		out = append(out, arch.Hop{Edge: e.ID(), Node: n.ID()})
	}
	return out, nil
}

func (s *Store) collectHops(h handle.Handle, f arch.HopFilter) []hop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h.Kind == handle.KindEdge {
		e, err := s.edgeLocked(h)
		if err != nil {
			return nil
		}
		var out []hop
		if n, err := s.nodeLocked(e.target); err == nil && matchHop(e, n, arch.DirOut, f) {
			out = append(out, hop{edge: e, node: n})
		}
		if e.source != e.target {
			if n, err := s.nodeLocked(e.source); err == nil && matchHop(e, n, arch.DirIn, f) {
				out = append(out, hop{edge: e, node: n})
			}
		}
		return out
	}

	n, err := s.nodeLocked(h)
	if err != nil {
		return nil
	}
	out := make([]hop, 0, len(n.edges))
	for _, eh := range n.edges {
		e, err := s.edgeLocked(eh)
		if err != nil {
			continue
		}
		dir := arch.DirIn
		if e.source == h {
			dir = arch.DirOut
		}
		other, err := s.nodeLocked(e.Other(h))
		if err != nil {
			continue
		}
		if matchHop(e, other, dir, f) {
			out = append(out, hop{edge: e, node: other})
		}
	}
	return out
}

// matchHop reports whether traversing e in direction dir to reach other
// satisfies f. Undirected edges satisfy every direction.
func matchHop(e *Edge, other *Node, dir arch.Direction, f arch.HopFilter) bool {
	if !e.arch.MatchesAny(f.Edge) || !other.arch.MatchesAny(f.Node) {
		return false
	}
	if f.Direction == arch.DirAny || !e.directed {
		return true
	}
	return f.Direction == dir
}
