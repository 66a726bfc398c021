package arch

import (
	"context"

	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

// Body executes an ability.
type Body interface {
	Execute(ctx context.Context, env Env) error
}

// BodyFunc adapts a Go function to Body.
type BodyFunc func(ctx context.Context, env Env) error

// Execute calls fn.
func (fn BodyFunc) Execute(ctx context.Context, env Env) error {
	return fn(ctx, env)
}

// Instance is anything with an architype and field values: a node, an edge
// or a walker.
type Instance interface {
	Architype() *Architype
	Fields() *Fields
}

// Direction restricts which incident edges a traversal follows.
type Direction uint8

const (
	DirAny Direction = iota
	DirOut
	DirIn
)

func (d Direction) String() string {
	switch d {
	case DirOut:
		return "out"
	case DirIn:
		return "in"
	default:
		return "any"
	}
}

// ParseDirection converts "out", "in" or "any" into a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "out":
		return DirOut, true
	case "in":
		return DirIn, true
	case "any", "":
		return DirAny, true
	}
	return DirAny, false
}

// HopFilter narrows a neighbor query. Empty name lists match anything and
// names match subtypes.
type HopFilter struct {
	Edge      []string
	Node      []string
	Direction Direction
}

// Hop is one neighbor reached through one edge.
type Hop struct {
	Edge handle.Handle
	Node handle.Handle
}

// Env is what an ability body can see and do while it runs.
type Env interface {
	// Event is the traversal event being dispatched.
	Event() Event
	// Path is the ability being executed.
	Path() Path
	// Module is the module that defined the running body.
	Module() string
	// Self is the instance owning the ability: the walker for walker-side
	// abilities, the position otherwise.
	Self() Instance
	Here() Instance
	HereHandle() handle.Handle
	Visitor() Instance
	// Args are the arguments the walker was spawned with.
	Args() cty.Value

	Neighbors(f HopFilter) ([]Hop, error)
	// Visit appends targets to the walker queue, or prepends them in order
	// when first is set.
	Visit(first bool, targets ...handle.Handle) error
	Ignore(targets ...handle.Handle)
	Disengage()
	Report(v cty.Value)

	CreateNode(arch string, fields map[string]cty.Value) (handle.Handle, error)
	Connect(edgeArch string, from, to handle.Handle, fields map[string]cty.Value) (handle.Handle, error)
	Delete(h handle.Handle) error

	Global(name string) (cty.Value, error)
	SetGlobal(name string, v cty.Value) error
	// Globals returns every global visible to the running body.
	Globals() map[string]cty.Value
}
