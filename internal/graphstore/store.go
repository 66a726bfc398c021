package graphstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

// Store is a thread-safe arena of node and edge instances.
type Store struct {
	mu        sync.RWMutex
	nodes     []nodeSlot
	edges     []edgeSlot
	freeNodes []uint32
	freeEdges []uint32
	pins      map[handle.Handle]int
	liveNodes int
	liveEdges int
}

// New creates a new, empty store.
func New() *Store {
	return &Store{pins: make(map[handle.Handle]int)}
}

// CreateNode adds a node of architype a. init overrides field defaults.
func (s *Store) CreateNode(ctx context.Context, a *arch.Architype, init map[string]cty.Value) (*Node, error) {
	if a.Kind != arch.KindNode {
		return nil, fmt.Errorf("%w: %s is not a node architype", ErrKindMismatch, a.Key())
	}
	fields, err := arch.NewFields(a.EffectiveFields(), init)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", a.Key(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var index uint32
	if n := len(s.freeNodes); n > 0 {
		index = s.freeNodes[n-1]
		s.freeNodes = s.freeNodes[:n-1]
	} else {
		index = uint32(len(s.nodes))
		s.nodes = append(s.nodes, nodeSlot{gen: 1})
	}
	node := &Node{id: handle.Node(index, s.nodes[index].gen), arch: a, fields: fields}
	s.nodes[index].node = node
	s.liveNodes++
	return node, nil
}

// CreateEdge connects source to target with an edge of architype a. Both
// endpoints must be live nodes.
func (s *Store) CreateEdge(ctx context.Context, a *arch.Architype, source, target handle.Handle, directed bool, init map[string]cty.Value) (*Edge, error) {
	if a.Kind != arch.KindEdge {
		return nil, fmt.Errorf("%w: %s is not an edge architype", ErrKindMismatch, a.Key())
	}
	fields, err := arch.NewFields(a.EffectiveFields(), init)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", a.Key(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.nodeLocked(source)
	if err != nil {
		return nil, fmt.Errorf("edge source: %w", err)
	}
	dst, err := s.nodeLocked(target)
	if err != nil {
		return nil, fmt.Errorf("edge target: %w", err)
	}

	var index uint32
	if n := len(s.freeEdges); n > 0 {
		index = s.freeEdges[n-1]
		s.freeEdges = s.freeEdges[:n-1]
	} else {
		index = uint32(len(s.edges))
		s.edges = append(s.edges, edgeSlot{gen: 1})
	}
	edge := &Edge{
		id:       handle.Edge(index, s.edges[index].gen),
		arch:     a,
		fields:   fields,
		source:   source,
		target:   target,
		directed: directed,
	}
	s.edges[index].edge = edge
	src.edges = append(src.edges, edge.id)
	if dst != src {
		dst.edges = append(dst.edges, edge.id)
	}
	s.liveEdges++
	return edge, nil
}

// Node resolves a node handle.
func (s *Store) Node(h handle.Handle) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeLocked(h)
}

// Edge resolves an edge handle.
func (s *Store) Edge(h handle.Handle) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgeLocked(h)
}

// Instance resolves a node or edge handle.
func (s *Store) Instance(h handle.Handle) (arch.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h.Kind == handle.KindEdge {
		return s.edgeLocked(h)
	}
	return s.nodeLocked(h)
}

// Exists reports whether h names a live instance.
func (s *Store) Exists(h handle.Handle) bool {
	_, err := s.Instance(h)
	return err == nil
}

// DeleteNode removes a node and every incident edge.
func (s *Store) DeleteNode(ctx context.Context, h handle.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nodeLocked(h)
	if err != nil {
		return err
	}
	if s.pins[h] > 0 {
		return fmt.Errorf("deleting node %s: %w", h, ErrReferencedByActiveWalker)
	}
	for _, eh := range n.edges {
		if s.pins[eh] > 0 {
			return fmt.Errorf("deleting node %s: incident edge %s: %w", h, eh, ErrReferencedByActiveWalker)
		}
	}

	for _, eh := range slices.Clone(n.edges) {
		s.removeEdgeLocked(eh)
	}
	slot := &s.nodes[h.Index]
	slot.node = nil
	slot.gen++
	s.freeNodes = append(s.freeNodes, h.Index)
	s.liveNodes--
	return nil
}

// DeleteEdge removes one edge.
func (s *Store) DeleteEdge(ctx context.Context, h handle.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.edgeLocked(h); err != nil {
		return err
	}
	if s.pins[h] > 0 {
		return fmt.Errorf("deleting edge %s: %w", h, ErrReferencedByActiveWalker)
	}
	s.removeEdgeLocked(h)
	return nil
}

// Delete removes a node or an edge.
func (s *Store) Delete(ctx context.Context, h handle.Handle) error {
	if h.Kind == handle.KindEdge {
		return s.DeleteEdge(ctx, h)
	}
	return s.DeleteNode(ctx, h)
}

// Pin records that a walker stands on h.
func (s *Store) Pin(h handle.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.instanceLocked(h); err != nil {
		return err
	}
	s.pins[h]++
	return nil
}

// Unpin releases one Pin of h.
func (s *Store) Unpin(h handle.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pins[h] <= 1 {
		delete(s.pins, h)
		return
	}
	s.pins[h]--
}

// Pinned reports whether any walker stands on h.
func (s *Store) Pinned(h handle.Handle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pins[h] > 0
}

// Nodes returns all live nodes ordered by slot index.
func (s *Store) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, s.liveNodes)
	for _, slot := range s.nodes {
		if slot.node != nil {
			out = append(out, slot.node)
		}
	}
	return out
}

// Edges returns all live edges ordered by slot index.
func (s *Store) Edges() []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Edge, 0, s.liveEdges)
	for _, slot := range s.edges {
		if slot.edge != nil {
			out = append(out, slot.edge)
		}
	}
	return out
}

// Len returns the number of live nodes and edges.
func (s *Store) Len() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveNodes, s.liveEdges
}

// IncidentEdges returns the handles of the edges touching a node, in
// insertion order.
func (s *Store) IncidentEdges(h handle.Handle) ([]handle.Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.nodeLocked(h)
	if err != nil {
		return nil, err
	}
	return slices.Clone(n.edges), nil
}

func (s *Store) nodeLocked(h handle.Handle) (*Node, error) {
	if h.Kind != handle.KindNode || h.Gen == 0 || int(h.Index) >= len(s.nodes) {
		return nil, fmt.Errorf("%w: node %s", ErrDanglingReference, h)
	}
	slot := s.nodes[h.Index]
	if slot.node == nil || slot.gen != h.Gen {
		return nil, fmt.Errorf("%w: node %s", ErrDanglingReference, h)
	}
	return slot.node, nil
}

func (s *Store) edgeLocked(h handle.Handle) (*Edge, error) {
	if h.Kind != handle.KindEdge || h.Gen == 0 || int(h.Index) >= len(s.edges) {
		return nil, fmt.Errorf("%w: edge %s", ErrDanglingReference, h)
	}
	slot := s.edges[h.Index]
	if slot.edge == nil || slot.gen != h.Gen {
		return nil, fmt.Errorf("%w: edge %s", ErrDanglingReference, h)
	}
	return slot.edge, nil
}

func (s *Store) instanceLocked(h handle.Handle) (arch.Instance, error) {
	if h.Kind == handle.KindEdge {
		return s.edgeLocked(h)
	}
	return s.nodeLocked(h)
}

// removeEdgeLocked detaches an edge from its endpoints and frees its slot.
func (s *Store) removeEdgeLocked(h handle.Handle) {
	e, err := s.edgeLocked(h)
	if err != nil {
		return
	}
	for _, end := range []handle.Handle{e.source, e.target} {
		if n, err := s.nodeLocked(end); err == nil {
			n.edges = slices.DeleteFunc(n.edges, func(x handle.Handle) bool { return x == h })
		}
	}
	slot := &s.edges[h.Index]
	slot.edge = nil
	slot.gen++
	s.freeEdges = append(s.freeEdges, h.Index)
	s.liveEdges--
}
