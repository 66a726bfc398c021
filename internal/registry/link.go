package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/walkgrid/internal/arch"
)

// Link resolves base names to records and computes every architype's
// effective fields and abilities. Bases must exist with the same kind and
// inheritance must be acyclic; all violations are returned joined. Linking a
// frozen registry is a no-op.
func (r *Registry) Link() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil
	}

	var errs []error
	for _, key := range r.archOrder {
		a := r.archs[key]
		a.Bases = a.Bases[:0]
		for _, baseName := range a.BaseNames {
			base, ok := r.archs[arch.ArchKey{Kind: a.Kind, Name: baseName}]
			if !ok {
				errs = append(errs, &Error{Err: ErrUnknownBase, Arch: key, Module: a.Module,
					Detail: fmt.Sprintf("%s %q is not declared", a.Kind, baseName)})
				continue
			}
			a.Bases = append(a.Bases, base)
		}
	}

	const (
		unvisited = iota
		visiting
		linked
	)
	state := make(map[arch.ArchKey]int, len(r.archs))
	var stack []string

	var visit func(a *arch.Architype) error
	visit = func(a *arch.Architype) error {
		switch state[a.Key()] {
		case linked:
			return nil
		case visiting:
			return &Error{Err: ErrInheritanceCycle, Arch: a.Key(), Module: a.Module,
				Detail: strings.Join(append(stack, a.Name), " -> ")}
		}
		state[a.Key()] = visiting
		stack = append(stack, a.Name)
		for _, base := range a.Bases {
			if err := visit(base); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		a.Link()
		state[a.Key()] = linked
		return nil
	}

	for _, key := range r.archOrder {
		a := r.archs[key]
		if state[key] == linked {
			continue
		}
		stack = stack[:0]
		if err := visit(a); err != nil {
			errs = append(errs, err)
			// Mark the whole cycle as handled so it is reported once.
			for k, s := range state {
				if s == visiting {
					state[k] = linked
				}
			}
		}
	}

	return errors.Join(errs...)
}
