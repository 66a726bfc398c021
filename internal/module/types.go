package module

import (
	"github.com/vk/walkgrid/internal/arch"
	"github.com/zclconf/go-cty/cty"
)

// Module is one parsed source module.
type Module struct {
	Name     string
	Path     string
	Elements []Element
}

// Element is one top-level item of a module.
type Element interface {
	element()
}

// Pos is the source location of an element, used in error messages.
type Pos struct {
	File string
	Line int
}

// ArchDecl declares an architype with its fields and ability slots.
type ArchDecl struct {
	Pos
	Kind      arch.Kind
	Name      string
	Bases     []string
	Fields    []arch.Field
	Abilities []*AbilityDecl
	// Directed is the default directionality of edge architypes.
	Directed bool
}

// AbilityDecl is one ability slot. A non-nil Body makes the declaration an
// inline definition as well.
type AbilityDecl struct {
	Pos
	Name      string
	Signature arch.Signature
	Abstract  bool
	Body      arch.Body
}

// Impl is an out-of-line ability definition.
type Impl struct {
	Pos
	Path arch.Path
	Body arch.Body
}

// Global is a module-scoped variable. Private globals are not visible to
// importing modules.
type Global struct {
	Pos
	Name    string
	Value   cty.Value
	Private bool
}

// Import makes another module's public globals visible and orders it first.
type Import struct {
	Pos
	Module string
}

// Test is a named test element. Tests are retained and listed, not run.
type Test struct {
	Pos
	Name        string
	Description string
}

// Graph is a named seed graph plus the walkers to spawn on it.
type Graph struct {
	Pos
	Name   string
	Nodes  []GraphNode
	Edges  []GraphEdge
	Spawns []GraphSpawn
}

// GraphNode is one node of a seed graph, referenced by its local name.
type GraphNode struct {
	Name   string
	Arch   string
	Fields map[string]cty.Value
}

// GraphEdge connects two seed nodes by local name.
type GraphEdge struct {
	Name   string
	Arch   string
	From   string
	To     string
	Fields map[string]cty.Value
	// Directed overrides the architype default when set.
	Directed *bool
}

// GraphSpawn spawns a walker at a seed node.
type GraphSpawn struct {
	Walker string
	At     string
	Args   map[string]cty.Value
}

func (*ArchDecl) element() {}
func (*Impl) element() {}
func (*Global) element() {}
func (*Import) element() {}
func (*Test) element() {}
func (*Graph) element() {}
