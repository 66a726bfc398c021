package registry

import (
	"fmt"
	"sync"

	"github.com/vk/walkgrid/internal/arch"
)

// ArchSpec is the declaration-level content of an architype.
type ArchSpec struct {
	Bases    []string
	Fields   []arch.Field
	Directed bool
}

// AbilitySpec is the declaration-level content of an ability slot.
type AbilitySpec struct {
	Name      string
	Signature arch.Signature
	Abstract  bool
}

// Definition is a stored ability body waiting to be bound to its slot.
type Definition struct {
	Path   arch.Path
	Module string
	Body   arch.Body
	// Origin identifies the source element. Registering the same path again
	// with the same non-nil origin is a no-op.
	Origin any
}

// Registry holds all architypes and definitions for a single runtime.
type Registry struct {
	mu        sync.RWMutex
	archs     map[arch.ArchKey]*arch.Architype
	archOrder []arch.ArchKey
	defs      map[arch.Path]*Definition
	defOrder  []arch.Path
	frozen    bool
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		archs: make(map[arch.ArchKey]*arch.Architype),
		defs:  make(map[arch.Path]*Definition),
	}
}

// RegisterArchitype creates the architype record or extends an existing one.
// A field redeclared with a different type, or different non-empty base
// lists, is a duplicate declaration.
func (r *Registry) RegisterArchitype(module string, kind arch.Kind, name string, spec ArchSpec) (*arch.Architype, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid kind for architype %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := arch.ArchKey{Kind: kind, Name: name}
	a, exists := r.archs[key]
	if !exists {
		if r.frozen {
			return nil, &Error{Err: ErrFrozen, Arch: key, Module: module}
		}
		a = &arch.Architype{Kind: kind, Name: name, Module: module}
		r.archs[key] = a
		r.archOrder = append(r.archOrder, key)
	}

	changed := !exists
	if len(spec.Bases) > 0 {
		switch {
		case len(a.BaseNames) == 0:
			changed = true
		case !equalStrings(a.BaseNames, spec.Bases):
			return nil, &Error{Err: ErrDuplicateDeclaration, Arch: key, Module: module,
				Detail: fmt.Sprintf("bases %v conflict with %v", spec.Bases, a.BaseNames)}
		}
	}

	var added []arch.Field
	for _, f := range spec.Fields {
		existing, ok := a.Field(f.Name)
		if !ok {
			added = append(added, f)
			continue
		}
		if !existing.Type.Equals(f.Type) {
			return nil, &Error{Err: ErrDuplicateDeclaration, Arch: key, Module: module,
				Detail: fmt.Sprintf("field %q redeclared as %s, was %s", f.Name, f.Type.FriendlyName(), existing.Type.FriendlyName())}
		}
	}
	if len(added) > 0 || (spec.Directed && !a.Directed) {
		changed = true
	}
	if !changed {
		return a, nil
	}
	if r.frozen {
		return nil, &Error{Err: ErrFrozen, Arch: key, Module: module}
	}

	if len(spec.Bases) > 0 && len(a.BaseNames) == 0 {
		a.BaseNames = append([]string(nil), spec.Bases...)
	}
	if a.Module == "" {
		a.Module = module
	}
	a.Fields = append(a.Fields, added...)
	a.Directed = a.Directed || spec.Directed
	return a, nil
}

// RegisterDeclaration adds an ability slot to the named architype, creating
// the architype record if needed. Re-declaring an identical slot is a no-op.
func (r *Registry) RegisterDeclaration(module string, kind arch.Kind, name string, spec AbilitySpec) (*arch.Ability, error) {
	a, err := r.RegisterArchitype(module, kind, name, ArchSpec{})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := arch.Path{Kind: kind, Arch: name, Ability: spec.Name}
	if existing, ok := a.Ability(spec.Name); ok {
		if existing.Abstract == spec.Abstract && existing.Signature.Equal(spec.Signature) {
			return existing, nil
		}
		return nil, &Error{Err: ErrDuplicateDeclaration, Path: path, Module: module,
			Detail: fmt.Sprintf("signature differs from the declaration in module %q", existing.DeclModule)}
	}
	if r.frozen {
		return nil, &Error{Err: ErrFrozen, Path: path, Module: module}
	}

	ab := &arch.Ability{
		Name:       spec.Name,
		Signature:  spec.Signature,
		Abstract:   spec.Abstract,
		DeclModule: module,
		Order:      len(a.Abilities),
		Owner:      a,
	}
	a.Abilities = append(a.Abilities, ab)
	return ab, nil
}

// RegisterDefinition stores a body by qualified path. The slot does not have
// to exist yet.
func (r *Registry) RegisterDefinition(module string, path arch.Path, body arch.Body, origin any) error {
	if body == nil {
		return fmt.Errorf("definition %s in module %q has no body", path, module)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.defs[path]; ok {
		if origin != nil && existing.Origin == origin {
			return nil
		}
		return &Error{Err: ErrDuplicateDefinition, Path: path, Module: module,
			Detail: fmt.Sprintf("already defined in module %q", existing.Module)}
	}
	if r.frozen {
		return &Error{Err: ErrFrozen, Path: path, Module: module}
	}

	r.defs[path] = &Definition{Path: path, Module: module, Body: body, Origin: origin}
	r.defOrder = append(r.defOrder, path)
	return nil
}

// LookupArchitype returns the architype record for kind and name.
func (r *Registry) LookupArchitype(kind arch.Kind, name string) (*arch.Architype, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := arch.ArchKey{Kind: kind, Name: name}
	a, ok := r.archs[key]
	if !ok {
		return nil, &Error{Err: ErrNotFound, Arch: key}
	}
	return a, nil
}

// LookupAbility returns the slot at path, searching inherited abilities too.
func (r *Registry) LookupAbility(path arch.Path) (*arch.Ability, error) {
	a, err := r.LookupArchitype(path.Kind, path.Arch)
	if err != nil {
		return nil, err
	}
	for _, ab := range a.EffectiveAbilities() {
		if ab.Name == path.Ability {
			return ab, nil
		}
	}
	return nil, &Error{Err: ErrNotFound, Path: path}
}

// Architypes returns all records in registration order.
func (r *Registry) Architypes() []*arch.Architype {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*arch.Architype, len(r.archOrder))
	for i, key := range r.archOrder {
		out[i] = r.archs[key]
	}
	return out
}

// Definitions returns all stored definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, len(r.defOrder))
	for i, path := range r.defOrder {
		out[i] = r.defs[path]
	}
	return out
}

// Definition returns the stored definition for path.
func (r *Registry) Definition(path arch.Path) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[path]
	return d, ok
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Reset discards every architype and definition. A frozen registry is left
// untouched.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	r.archs = make(map[arch.ArchKey]*arch.Architype)
	r.archOrder = nil
	r.defs = make(map[arch.Path]*Definition)
	r.defOrder = nil
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
