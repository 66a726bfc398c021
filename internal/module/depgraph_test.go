package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMod(name string, imports ...string) *Module {
	m := &Module{Name: name, Path: name + ".hcl"}
	for _, imp := range imports {
		m.Elements = append(m.Elements, &Import{Module: imp, Pos: Pos{File: m.Path, Line: 1}})
	}
	return m
}

func names(mods []*Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Name
	}
	return out
}

func TestDepGraph_Order(t *testing.T) {
	testCases := []struct {
		name     string
		mods     []*Module
		expected []string
	}{
		{
			name:     "independent modules sort by name",
			mods:     []*Module{newMod("zeta"), newMod("alpha"), newMod("mid")},
			expected: []string{"alpha", "mid", "zeta"},
		},
		{
			name:     "imports come first",
			mods:     []*Module{newMod("app", "lib"), newMod("lib", "base"), newMod("base")},
			expected: []string{"base", "lib", "app"},
		},
		{
			name:     "diamond",
			mods:     []*Module{newMod("top", "left", "right"), newMod("left", "root"), newMod("right", "root"), newMod("root")},
			expected: []string{"root", "left", "right", "top"},
		},
		{
			name:     "cycle is tolerated",
			mods:     []*Module{newMod("b", "a"), newMod("a", "b"), newMod("c", "a")},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "self import ignored",
			mods:     []*Module{newMod("self", "self")},
			expected: []string{"self"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewDepGraph(tc.mods)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, names(g.Order()))
		})
	}
}

func TestDepGraph_UnknownImport(t *testing.T) {
	_, err := NewDepGraph([]*Module{newMod("app", "missing", "ghost"), newMod("lib")})
	require.ErrorIs(t, err, ErrUnknownImport)
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestDepGraph_DuplicateName(t *testing.T) {
	_, err := NewDepGraph([]*Module{newMod("app"), newMod("app")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate module name")
}

func TestDepGraph_CyclesAndImports(t *testing.T) {
	g, err := NewDepGraph([]*Module{newMod("a", "b"), newMod("b", "c"), newMod("c", "a"), newMod("d", "a")})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, g.Cycles())
	assert.Equal(t, []string{"b"}, g.Imports("a"))
	assert.Nil(t, g.Imports("nope"))
}

func TestModule_ElementAccessors(t *testing.T) {
	m := &Module{Name: "main", Elements: []Element{
		&Import{Module: "lib"},
		&ArchDecl{Name: "N"},
		&Impl{},
		&Global{Name: "g"},
		&Test{Name: "smoke"},
		&Graph{Name: "demo"},
		&ArchDecl{Name: "W"},
	}}

	assert.Len(t, m.Imports(), 1)
	assert.Len(t, m.Architypes(), 2)
	assert.Len(t, m.Impls(), 1)
	assert.Len(t, m.Globals(), 1)
	assert.Len(t, m.Tests(), 1)
	assert.Len(t, m.Graphs(), 1)

	g, ok := m.Graph("demo")
	require.True(t, ok)
	assert.Equal(t, "demo", g.Name)
	_, ok = m.Graph("other")
	assert.False(t, ok)
}
