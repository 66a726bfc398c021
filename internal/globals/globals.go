// Package globals holds module-scoped global variables.
//
// A global belongs to the module that declares it. Code running in a module
// sees that module's globals and the public globals of the modules it
// imports directly; its own names shadow imported ones. Writes go to the
// variable the name resolves to, converted to the variable's current type.
package globals

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	ErrDuplicateGlobal = errors.New("duplicate global")
	ErrUnknownGlobal   = errors.New("unknown global")
	ErrNotVisible      = errors.New("global is private to its module")
)

type key struct {
	module string
	name   string
}

type variable struct {
	module  string
	name    string
	value   cty.Value
	private bool
}

// Table is a thread-safe set of globals for every loaded module.
type Table struct {
	mu      sync.RWMutex
	vars    map[key]*variable
	imports map[string][]string
}

// New creates an empty table.
func New() *Table {
	return &Table{
		vars:    make(map[key]*variable),
		imports: make(map[string][]string),
	}
}

// Declare creates a global in module.
func (t *Table) Declare(module, name string, v cty.Value, private bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{module: module, name: name}
	if _, ok := t.vars[k]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateGlobal, module, name)
	}
	t.vars[k] = &variable{module: module, name: name, value: v, private: private}
	return nil
}

// SetImports records the modules module imports, in priority order.
func (t *Table) SetImports(module string, imports []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.imports[module] = append([]string(nil), imports...)
}

// Get returns the value name resolves to from module.
func (t *Table) Get(module, name string) (cty.Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, err := t.resolveLocked(module, name)
	if err != nil {
		return cty.NilVal, err
	}
	return v.value, nil
}

// Set assigns the variable name resolves to from module.
func (t *Table) Set(module, name string, val cty.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, err := t.resolveLocked(module, name)
	if err != nil {
		return err
	}
	if !v.value.IsNull() && !v.value.Type().Equals(cty.DynamicPseudoType) {
		converted, err := convert.Convert(val, v.value.Type())
		if err != nil {
			return fmt.Errorf("global %s.%s expects %s: %w", v.module, v.name, v.value.Type().FriendlyName(), err)
		}
		val = converted
	}
	v.value = val
	return nil
}

// Visible returns every global module can see, keyed by name.
func (t *Table) Visible(module string) map[string]cty.Value {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]cty.Value)
	imports := t.imports[module]
	for i := len(imports) - 1; i >= 0; i-- {
		for k, v := range t.vars {
			if k.module == imports[i] && !v.private {
				out[k.name] = v.value
			}
		}
	}
	for k, v := range t.vars {
		if k.module == module {
			out[k.name] = v.value
		}
	}
	return out
}

// Entry describes one declared global.
type Entry struct {
	Module  string
	Name    string
	Value   cty.Value
	Private bool
}

// All returns every global sorted by module and name.
func (t *Table) All() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, 0, len(t.vars))
	for _, v := range t.vars {
		out = append(out, Entry{Module: v.module, Name: v.name, Value: v.value, Private: v.private})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (t *Table) resolveLocked(module, name string) (*variable, error) {
	if v, ok := t.vars[key{module: module, name: name}]; ok {
		return v, nil
	}
	hidden := false
	for _, imp := range t.imports[module] {
		v, ok := t.vars[key{module: imp, name: name}]
		if !ok {
			continue
		}
		if v.private {
			hidden = true
			continue
		}
		return v, nil
	}
	if hidden {
		return nil, fmt.Errorf("%w: %q from module %q", ErrNotVisible, name, module)
	}
	return nil, fmt.Errorf("%w: %q in module %q", ErrUnknownGlobal, name, module)
}
