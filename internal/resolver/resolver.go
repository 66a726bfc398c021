package resolver

import (
	"context"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/module"
	"github.com/vk/walkgrid/internal/registry"
)

// Result describes a successful resolution.
type Result struct {
	// Order is the deterministic module processing order.
	Order []*module.Module
	Deps  *module.DepGraph
}

// Resolve registers everything mods declare and defines into reg, binds
// definitions to slots and freezes reg. Bodies are attached only when
// resolution succeeds. On failure an unfrozen reg is reset to empty, so a
// corrected module set can be resolved into it again.
func Resolve(ctx context.Context, reg *registry.Registry, mods []*module.Module) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving modules.", "count", len(mods))

	var errs []error

	deps, err := module.NewDepGraph(mods)
	if err != nil {
		if deps == nil {
			return nil, &Errors{Errs: []error{err}}
		}
		errs = append(errs, unjoin(err)...)
	}
	order := deps.Order()
	if cycles := deps.Cycles(); len(cycles) > 0 {
		logger.Warn("Import cycle detected, continuing with name order.", "modules", cycles)
	}

	for _, m := range order {
		errs = append(errs, collect(reg, m)...)
	}

	if err := reg.Link(); err != nil {
		errs = append(errs, unjoin(err)...)
	}

	bindings, bindErrs := bind(reg)
	errs = append(errs, bindErrs...)

	if len(errs) > 0 {
		logger.Debug("Resolution failed.", "errors", len(errs))
		reg.Reset()
		return nil, &Errors{Errs: errs}
	}

	if !reg.Frozen() {
		for _, b := range bindings {
			b.slot.Body = b.def.Body
			b.slot.DefModule = b.def.Module
		}
	}
	reg.Freeze()
	logger.Info("Modules resolved.", "modules", len(order), "architypes", len(reg.Architypes()), "definitions", len(reg.Definitions()))
	return &Result{Order: order, Deps: deps}, nil
}

// collect registers the declarations and definitions of one module.
func collect(reg *registry.Registry, m *module.Module) []error {
	var errs []error
	for _, el := range m.Elements {
		switch el := el.(type) {
		case *module.ArchDecl:
			_, err := reg.RegisterArchitype(m.Name, el.Kind, el.Name, registry.ArchSpec{
				Bases:    el.Bases,
				Fields:   el.Fields,
				Directed: el.Directed,
			})
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, ab := range el.Abilities {
				_, err := reg.RegisterDeclaration(m.Name, el.Kind, el.Name, registry.AbilitySpec{
					Name:      ab.Name,
					Signature: ab.Signature,
					Abstract:  ab.Abstract,
				})
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if ab.Body != nil {
					path := arch.Path{Kind: el.Kind, Arch: el.Name, Ability: ab.Name}
					if err := reg.RegisterDefinition(m.Name, path, ab.Body, ab); err != nil {
						errs = append(errs, err)
					}
				}
			}
		case *module.Impl:
			if err := reg.RegisterDefinition(m.Name, el.Path, el.Body, el); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// binding pairs a stored definition with the slot it will fill.
type binding struct {
	slot *arch.Ability
	def  *registry.Definition
}

// bind matches each stored definition to its slot and checks that every
// concrete slot has a match. Nothing is attached here.
func bind(reg *registry.Registry) ([]binding, []error) {
	var (
		errs     []error
		bindings []binding
	)
	matched := make(map[*arch.Ability]struct{})

	for _, def := range reg.Definitions() {
		a, err := reg.LookupArchitype(def.Path.Kind, def.Path.Arch)
		if err != nil {
			errs = append(errs, &registry.Error{Err: ErrUnboundDefinition, Path: def.Path, Module: def.Module,
				Detail: "architype is not declared"})
			continue
		}
		slot, ok := a.Ability(def.Path.Ability)
		if !ok {
			errs = append(errs, &registry.Error{Err: ErrUnboundDefinition, Path: def.Path, Module: def.Module,
				Detail: "no such ability slot"})
			continue
		}
		matched[slot] = struct{}{}
		bindings = append(bindings, binding{slot: slot, def: def})
	}

	for _, a := range reg.Architypes() {
		for _, slot := range a.Abilities {
			if _, ok := matched[slot]; ok || slot.Abstract || slot.Bound() {
				continue
			}
			errs = append(errs, &registry.Error{Err: ErrMissingDefinition, Path: slot.Path(), Module: slot.DeclModule})
		}
	}
	return bindings, errs
}

// unjoin flattens an errors.Join result.
func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
