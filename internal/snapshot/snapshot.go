package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/graphstore"
	"github.com/vk/walkgrid/internal/handle"
)

var (
	ErrNotFound      = errors.New("snapshot not found")
	ErrUnknownHandle = errors.New("edge endpoint not in snapshot")
)

// Snapshot is a point-in-time copy of a graph.
type Snapshot struct {
	ID      string
	Name    string
	Created time.Time
	Nodes   []Node
	Edges   []Edge
}

// Node is one captured node. Handle is the handle it had when captured.
type Node struct {
	Handle string
	Arch   string
	Fields []byte
}

// Edge is one captured edge.
type Edge struct {
	Handle   string
	Arch     string
	Source   string
	Target   string
	Directed bool
	Fields   []byte
}

// Info describes a stored snapshot without its contents.
type Info struct {
	ID      string
	Name    string
	Created time.Time
	Nodes   int
	Edges   int
}

// Info returns the summary of s.
func (s *Snapshot) Info() Info {
	return Info{ID: s.ID, Name: s.Name, Created: s.Created, Nodes: len(s.Nodes), Edges: len(s.Edges)}
}

// Lookup resolves architypes by kind and name.
type Lookup interface {
	LookupArchitype(kind arch.Kind, name string) (*arch.Architype, error)
}

// Capture copies every live node and edge of store.
func Capture(store *graphstore.Store, name string) (*Snapshot, error) {
	snap := &Snapshot{
		ID:      uuid.New().String(),
		Name:    name,
		Created: time.Now().UTC(),
	}
	for _, n := range store.Nodes() {
		raw, err := encodeFields(n.Architype(), n.Fields())
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID(), err)
		}
		snap.Nodes = append(snap.Nodes, Node{Handle: n.ID().String(), Arch: n.Architype().Name, Fields: raw})
	}
	for _, e := range store.Edges() {
		raw, err := encodeFields(e.Architype(), e.Fields())
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", e.ID(), err)
		}
		snap.Edges = append(snap.Edges, Edge{
			Handle:   e.ID().String(),
			Arch:     e.Architype().Name,
			Source:   e.Source().String(),
			Target:   e.Target().String(),
			Directed: e.Directed(),
			Fields:   raw,
		})
	}
	return snap, nil
}

// Restore recreates the contents of snap in store and returns the mapping
// from captured handles to new ones. On error every instance created so far
// is removed again, leaving store as it was.
func Restore(ctx context.Context, snap *Snapshot, reg Lookup, store *graphstore.Store) (map[string]handle.Handle, error) {
	logger := ctxlog.FromContext(ctx).With("snapshot", snap.ID)
	handles := make(map[string]handle.Handle, len(snap.Nodes)+len(snap.Edges))
	if err := restore(ctx, snap, reg, store, handles); err != nil {
		rollback(ctx, store, handles)
		logger.Warn("Snapshot restore failed, created instances removed.", "error", err)
		return nil, err
	}
	logger.Info("Snapshot restored.", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return handles, nil
}

func restore(ctx context.Context, snap *Snapshot, reg Lookup, store *graphstore.Store, handles map[string]handle.Handle) error {
	for _, n := range snap.Nodes {
		a, err := reg.LookupArchitype(arch.KindNode, n.Arch)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.Handle, err)
		}
		init, err := decodeFields(a, n.Fields)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.Handle, err)
		}
		node, err := store.CreateNode(ctx, a, init)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.Handle, err)
		}
		handles[n.Handle] = node.ID()
	}

	for _, e := range snap.Edges {
		a, err := reg.LookupArchitype(arch.KindEdge, e.Arch)
		if err != nil {
			return fmt.Errorf("edge %s: %w", e.Handle, err)
		}
		src, ok := handles[e.Source]
		if !ok {
			return fmt.Errorf("edge %s: %w: %s", e.Handle, ErrUnknownHandle, e.Source)
		}
		dst, ok := handles[e.Target]
		if !ok {
			return fmt.Errorf("edge %s: %w: %s", e.Handle, ErrUnknownHandle, e.Target)
		}
		init, err := decodeFields(a, e.Fields)
		if err != nil {
			return fmt.Errorf("edge %s: %w", e.Handle, err)
		}
		edge, err := store.CreateEdge(ctx, a, src, dst, e.Directed, init)
		if err != nil {
			return fmt.Errorf("edge %s: %w", e.Handle, err)
		}
		handles[e.Handle] = edge.ID()
	}

	return nil
}

// rollback deletes the nodes in handles; their edges go with them.
func rollback(ctx context.Context, store *graphstore.Store, handles map[string]handle.Handle) {
	for _, h := range handles {
		if h.IsNode() && store.Exists(h) {
			_ = store.DeleteNode(ctx, h)
		}
	}
}
