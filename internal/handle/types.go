package handle

// Kind distinguishes node handles from edge handles.
type Kind uint8

const (
	// KindNode marks a handle to a node instance.
	KindNode Kind = iota + 1
	// KindEdge marks a handle to an edge instance.
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return "invalid"
	}
}

// prefix is the single-letter marker used in the canonical string form.
func (k Kind) prefix() byte {
	if k == KindEdge {
		return 'e'
	}
	return 'n'
}

// Handle is the structured identity of a node or edge instance.
// The zero value is the nil handle and never refers to a live instance.
type Handle struct {
	Kind  Kind
	Index uint32
	// Gen is the slot generation. Live generations start at 1.
	Gen uint32
}

// Nil is the handle that refers to nothing.
var Nil = Handle{}

// Node builds a node handle.
func Node(index, gen uint32) Handle {
	return Handle{Kind: KindNode, Index: index, Gen: gen}
}

// Edge builds an edge handle.
func Edge(index, gen uint32) Handle {
	return Handle{Kind: KindEdge, Index: index, Gen: gen}
}

// IsNil reports whether h is the nil handle.
func (h Handle) IsNil() bool {
	return h.Gen == 0 || h.Kind == 0
}

// IsNode reports whether h names a node.
func (h Handle) IsNode() bool { return h.Kind == KindNode && !h.IsNil() }

// IsEdge reports whether h names an edge.
func (h Handle) IsEdge() bool { return h.Kind == KindEdge && !h.IsNil() }
