package hclmodule

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a module file may contain.
type fileRoot struct {
	Module  *string        `hcl:"module,optional"`
	Imports []*importBlock `hcl:"import,block"`
	Globals []*globalBlock `hcl:"global,block"`
	Objects []*archBlock   `hcl:"object,block"`
	Nodes   []*archBlock   `hcl:"node,block"`
	Edges   []*archBlock   `hcl:"edge,block"`
	Walkers []*archBlock   `hcl:"walker,block"`
	Impls   []*implBlock   `hcl:"impl,block"`
	Tests   []*testBlock   `hcl:"test,block"`
	Graphs  []*graphBlock  `hcl:"graph,block"`
}

type importBlock struct {
	Module   string    `hcl:"module,label"`
	DefRange hcl.Range `hcl:",def_range"`
}

type globalBlock struct {
	Name     string         `hcl:"name,label"`
	Value    hcl.Expression `hcl:"value"`
	Private  *bool          `hcl:"private,optional"`
	DefRange hcl.Range      `hcl:",def_range"`
}

// archBlock is shared by object, node, edge and walker blocks.
type archBlock struct {
	Name     string       `hcl:"name,label"`
	Extends  []string     `hcl:"extends,optional"`
	Directed *bool        `hcl:"directed,optional"`
	Has      []*hasBlock  `hcl:"has,block"`
	Can      []*canBlock  `hcl:"can,block"`
	Decl     []*declBlock `hcl:"decl,block"`
	DefRange hcl.Range    `hcl:",def_range"`
}

type hasBlock struct {
	Name    string         `hcl:"name,label"`
	Type    hcl.Expression `hcl:"type,optional"`
	Default hcl.Expression `hcl:"default,optional"`
}

// canBlock declares and defines an ability. Its remaining body holds the
// statements.
type canBlock struct {
	Name     string    `hcl:"name,label"`
	On       *string   `hcl:"on,optional"`
	Filter   []string  `hcl:"filter,optional"`
	Native   *string   `hcl:"native,optional"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}

// declBlock declares an ability without defining it.
type declBlock struct {
	Name     string    `hcl:"name,label"`
	On       *string   `hcl:"on,optional"`
	Filter   []string  `hcl:"filter,optional"`
	Abstract *bool     `hcl:"abstract,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type implBlock struct {
	Kind     string    `hcl:"kind,label"`
	Arch     string    `hcl:"arch,label"`
	Ability  string    `hcl:"ability,label"`
	Native   *string   `hcl:"native,optional"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}

type testBlock struct {
	Name        string    `hcl:"name,label"`
	Description *string   `hcl:"description,optional"`
	DefRange    hcl.Range `hcl:",def_range"`
}

type graphBlock struct {
	Name     string             `hcl:"name,label"`
	Nodes    []*graphNodeBlock  `hcl:"node,block"`
	Edges    []*graphEdgeBlock  `hcl:"edge,block"`
	Spawns   []*graphSpawnBlock `hcl:"spawn,block"`
	DefRange hcl.Range          `hcl:",def_range"`
}

type graphNodeBlock struct {
	Name   string         `hcl:"name,label"`
	Arch   string         `hcl:"arch"`
	Fields hcl.Expression `hcl:"fields,optional"`
}

type graphEdgeBlock struct {
	Name     string         `hcl:"name,label"`
	Arch     string         `hcl:"arch"`
	From     string         `hcl:"from"`
	To       string         `hcl:"to"`
	Fields   hcl.Expression `hcl:"fields,optional"`
	Directed *bool          `hcl:"directed,optional"`
}

type graphSpawnBlock struct {
	Walker string         `hcl:"walker,label"`
	At     string         `hcl:"at"`
	Args   hcl.Expression `hcl:"args,optional"`
}
