package module

// Imports returns the import elements of m in source order.
func (m *Module) Imports() []*Import {
	var out []*Import
	for _, el := range m.Elements {
		if imp, ok := el.(*Import); ok {
			out = append(out, imp)
		}
	}
	return out
}

// Architypes returns the architype declarations of m in source order.
func (m *Module) Architypes() []*ArchDecl {
	var out []*ArchDecl
	for _, el := range m.Elements {
		if d, ok := el.(*ArchDecl); ok {
			out = append(out, d)
		}
	}
	return out
}

// Impls returns the out-of-line definitions of m in source order.
func (m *Module) Impls() []*Impl {
	var out []*Impl
	for _, el := range m.Elements {
		if d, ok := el.(*Impl); ok {
			out = append(out, d)
		}
	}
	return out
}

// Globals returns the globals of m in source order.
func (m *Module) Globals() []*Global {
	var out []*Global
	for _, el := range m.Elements {
		if g, ok := el.(*Global); ok {
			out = append(out, g)
		}
	}
	return out
}

// Tests returns the test elements of m in source order.
func (m *Module) Tests() []*Test {
	var out []*Test
	for _, el := range m.Elements {
		if t, ok := el.(*Test); ok {
			out = append(out, t)
		}
	}
	return out
}

// Graph returns the seed graph with the given name.
func (m *Module) Graph(name string) (*Graph, bool) {
	for _, el := range m.Elements {
		if g, ok := el.(*Graph); ok && g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Graphs returns all seed graphs of m.
func (m *Module) Graphs() []*Graph {
	var out []*Graph
	for _, el := range m.Elements {
		if g, ok := el.(*Graph); ok {
			out = append(out, g)
		}
	}
	return out
}
