package graphstore

import (
	"errors"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
)

var (
	ErrDanglingReference        = errors.New("dangling reference")
	ErrReferencedByActiveWalker = errors.New("referenced by active walker")
	ErrKindMismatch             = errors.New("architype kind mismatch")
)

// Node is a node instance.
type Node struct {
	id     handle.Handle
	arch   *arch.Architype
	fields *arch.Fields
	// edges are the incident edges in insertion order. Guarded by the store.
	edges []handle.Handle
}

func (n *Node) ID() handle.Handle { return n.id }
func (n *Node) Architype() *arch.Architype { return n.arch }
func (n *Node) Fields() *arch.Fields { return n.fields }

// Edge is an edge instance between two nodes.
type Edge struct {
	id       handle.Handle
	arch     *arch.Architype
	fields   *arch.Fields
	source   handle.Handle
	target   handle.Handle
	directed bool
}

func (e *Edge) ID() handle.Handle { return e.id }
func (e *Edge) Architype() *arch.Architype { return e.arch }
func (e *Edge) Fields() *arch.Fields { return e.fields }
func (e *Edge) Source() handle.Handle { return e.source }
func (e *Edge) Target() handle.Handle { return e.target }
func (e *Edge) Directed() bool { return e.directed }

// Other returns the endpoint opposite to h.
func (e *Edge) Other(h handle.Handle) handle.Handle {
	if e.source == h {
		return e.target
	}
	return e.source
}

type nodeSlot struct {
	gen  uint32
	node *Node
}

type edgeSlot struct {
	gen  uint32
	edge *Edge
}
