package arch

import (
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Fields holds the typed field values of one instance. All access is
// guarded so abilities of different walkers can touch the same instance.
type Fields struct {
	mu    sync.RWMutex
	defs  []Field
	index map[string]int
	vals  []cty.Value
}

// NewFields builds the value set for defs, starting from each default and
// applying init on top. Unknown names in init and values that cannot be
// converted to the declared type are errors.
func NewFields(defs []Field, init map[string]cty.Value) (*Fields, error) {
	f := &Fields{
		defs:  defs,
		index: make(map[string]int, len(defs)),
		vals:  make([]cty.Value, len(defs)),
	}
	for i, def := range defs {
		f.index[def.Name] = i
		v := def.Default
		if v.IsNull() {
			v = cty.NullVal(def.Type)
		}
		converted, err := convert.Convert(v, def.Type)
		if err != nil {
			return nil, fmt.Errorf("default for field %q: %w", def.Name, err)
		}
		f.vals[i] = converted
	}
	for name, v := range init {
		if err := f.Set(name, v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Get returns the current value of a field.
func (f *Fields) Get(name string) (cty.Value, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i, ok := f.index[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f.vals[i], nil
}

// Set converts v to the declared type and stores it.
func (f *Fields) Set(name string, v cty.Value) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	converted, err := convert.Convert(v, f.defs[i].Type)
	if err != nil {
		return fmt.Errorf("%w: field %q expects %s: %s", ErrFieldType, name, f.defs[i].Type.FriendlyName(), err)
	}
	f.mu.Lock()
	f.vals[i] = converted
	f.mu.Unlock()
	return nil
}

// Names returns the field names in declaration order.
func (f *Fields) Names() []string {
	names := make([]string, len(f.defs))
	for i, def := range f.defs {
		names[i] = def.Name
	}
	return names
}

// Type returns the declared type of a field.
func (f *Fields) Type(name string) (cty.Type, bool) {
	i, ok := f.index[name]
	if !ok {
		return cty.NilType, false
	}
	return f.defs[i].Type, true
}

// Map returns a copy of all current values keyed by name.
func (f *Fields) Map() map[string]cty.Value {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]cty.Value, len(f.vals))
	for i, def := range f.defs {
		out[def.Name] = f.vals[i]
	}
	return out
}

// Object returns all current values as a cty object.
func (f *Fields) Object() cty.Value {
	m := f.Map()
	if len(m) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(m)
}
