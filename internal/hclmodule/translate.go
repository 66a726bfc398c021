// This file contains the logic for translating decoded HCL blocks into
// module elements.

package hclmodule

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/module"
	"github.com/vk/walkgrid/internal/script"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// bodyAttrs are the attributes of can and impl blocks that are not
// statements.
var bodyAttrs = map[string]bool{"on": true, "filter": true, "native": true}

type kindedArch struct {
	kind  arch.Kind
	block *archBlock
}

func (l *Loader) translateModule(ctx context.Context, name string, root *fileRoot) (*module.Module, error) {
	mod := &module.Module{Name: name}
	var errs []error

	for _, imp := range root.Imports {
		mod.Elements = append(mod.Elements, &module.Import{Pos: posOf(imp.DefRange), Module: imp.Module})
	}

	for _, g := range root.Globals {
		v, err := constValue(g.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("global %q: %w", g.Name, err))
			continue
		}
		mod.Elements = append(mod.Elements, &module.Global{
			Pos:     posOf(g.DefRange),
			Name:    g.Name,
			Value:   v,
			Private: boolOr(g.Private, false),
		})
	}

	var archs []kindedArch
	for _, b := range root.Objects {
		archs = append(archs, kindedArch{arch.KindObject, b})
	}
	for _, b := range root.Nodes {
		archs = append(archs, kindedArch{arch.KindNode, b})
	}
	for _, b := range root.Edges {
		archs = append(archs, kindedArch{arch.KindEdge, b})
	}
	for _, b := range root.Walkers {
		archs = append(archs, kindedArch{arch.KindWalker, b})
	}
	sort.SliceStable(archs, func(i, j int) bool {
		return archs[i].block.DefRange.Start.Byte < archs[j].block.DefRange.Start.Byte
	})
	for _, a := range archs {
		decl, err := l.translateArch(ctx, a.kind, a.block)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", a.kind, a.block.Name, err))
			continue
		}
		mod.Elements = append(mod.Elements, decl)
	}

	for _, impl := range root.Impls {
		el, err := l.translateImpl(impl)
		if err != nil {
			errs = append(errs, fmt.Errorf("impl %s.%s.%s: %w", impl.Kind, impl.Arch, impl.Ability, err))
			continue
		}
		mod.Elements = append(mod.Elements, el)
	}

	for _, tb := range root.Tests {
		mod.Elements = append(mod.Elements, &module.Test{
			Pos:         posOf(tb.DefRange),
			Name:        tb.Name,
			Description: stringOr(tb.Description, ""),
		})
	}

	for _, gb := range root.Graphs {
		g, err := translateGraph(gb)
		if err != nil {
			errs = append(errs, fmt.Errorf("graph %q: %w", gb.Name, err))
			continue
		}
		mod.Elements = append(mod.Elements, g)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return mod, nil
}

func (l *Loader) translateArch(ctx context.Context, kind arch.Kind, b *archBlock) (*module.ArchDecl, error) {
	logger := ctxlog.FromContext(ctx).With("architype", kind.String()+"."+b.Name)
	logger.Debug("Translating architype.")

	if b.Directed != nil && kind != arch.KindEdge {
		return nil, fmt.Errorf("only edge architypes can set directed")
	}
	decl := &module.ArchDecl{
		Pos:      posOf(b.DefRange),
		Kind:     kind,
		Name:     b.Name,
		Bases:    b.Extends,
		Directed: kind == arch.KindEdge && boolOr(b.Directed, true),
	}

	for _, has := range b.Has {
		field, err := translateField(ctx, has)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", has.Name, err)
		}
		decl.Fields = append(decl.Fields, field)
	}

	type ranked struct {
		at   int
		decl *module.AbilityDecl
	}
	var abilities []ranked
	for _, can := range b.Can {
		sig, err := signatureOf(can.On, can.Filter)
		if err != nil {
			return nil, fmt.Errorf("ability %q: %w", can.Name, err)
		}
		origin := fmt.Sprintf("%s.%s.%s", kind, b.Name, can.Name)
		body, err := l.bodyOf(origin, can.Native, can.Body)
		if err != nil {
			return nil, fmt.Errorf("ability %q: %w", can.Name, err)
		}
		abilities = append(abilities, ranked{can.DefRange.Start.Byte, &module.AbilityDecl{
			Pos:       posOf(can.DefRange),
			Name:      can.Name,
			Signature: sig,
			Body:      body,
		}})
	}
	for _, d := range b.Decl {
		sig, err := signatureOf(d.On, d.Filter)
		if err != nil {
			return nil, fmt.Errorf("ability %q: %w", d.Name, err)
		}
		abilities = append(abilities, ranked{d.DefRange.Start.Byte, &module.AbilityDecl{
			Pos:       posOf(d.DefRange),
			Name:      d.Name,
			Signature: sig,
			Abstract:  boolOr(d.Abstract, false),
		}})
	}
	sort.SliceStable(abilities, func(i, j int) bool { return abilities[i].at < abilities[j].at })
	for _, r := range abilities {
		decl.Abilities = append(decl.Abilities, r.decl)
	}

	logger.Debug("Translated architype.", "fields", len(decl.Fields), "abilities", len(decl.Abilities))
	return decl, nil
}

func translateField(ctx context.Context, has *hasBlock) (arch.Field, error) {
	typ := cty.DynamicPseudoType
	if isExprDefined(has.Type) {
		t, err := typeExprToCtyType(ctx, has.Type)
		if err != nil {
			return arch.Field{}, err
		}
		typ = t
	}

	def, err := constValue(has.Default)
	if err != nil {
		return arch.Field{}, fmt.Errorf("invalid default: %w", err)
	}
	if def.IsNull() {
		return arch.Field{Name: has.Name, Type: typ, Default: cty.NullVal(typ)}, nil
	}
	converted, err := convert.Convert(def, typ)
	if err != nil {
		return arch.Field{}, fmt.Errorf("default does not match type %s: %w", typ.FriendlyName(), err)
	}
	return arch.Field{Name: has.Name, Type: typ, Default: converted}, nil
}

func signatureOf(on *string, filter []string) (arch.Signature, error) {
	ev, err := arch.ParseEvent(stringOr(on, ""))
	if err != nil {
		return arch.Signature{}, err
	}
	if ev == arch.EventNone && len(filter) > 0 {
		return arch.Signature{}, fmt.Errorf("filter requires an on event")
	}
	return arch.Signature{Event: ev, Filter: filter}, nil
}

// bodyOf compiles the statements of body, or binds the native body named
// by native.
func (l *Loader) bodyOf(origin string, native *string, body hcl.Body) (arch.Body, error) {
	syn, ok := body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("ability bodies must use native HCL syntax")
	}
	for name, attr := range syn.Attributes {
		if !bodyAttrs[name] {
			return nil, fmt.Errorf("%s: unexpected argument %q", attr.NameRange, name)
		}
	}

	if native != nil {
		if len(syn.Blocks) > 0 {
			return nil, fmt.Errorf("a native ability cannot also contain statements")
		}
		b, ok := l.natives.Lookup(*native)
		if !ok {
			return nil, fmt.Errorf("unknown native body %q", *native)
		}
		return b, nil
	}

	prog, diags := script.Compile(syn, origin)
	if diags.HasErrors() {
		return nil, diags
	}
	return prog, nil
}

func (l *Loader) translateImpl(impl *implBlock) (*module.Impl, error) {
	kind, err := arch.ParseKind(impl.Kind)
	if err != nil {
		return nil, err
	}
	path := arch.Path{Kind: kind, Arch: impl.Arch, Ability: impl.Ability}
	body, err := l.bodyOf(path.String(), impl.Native, impl.Body)
	if err != nil {
		return nil, err
	}
	return &module.Impl{Pos: posOf(impl.DefRange), Path: path, Body: body}, nil
}

func translateGraph(gb *graphBlock) (*module.Graph, error) {
	g := &module.Graph{Pos: posOf(gb.DefRange), Name: gb.Name}
	for _, n := range gb.Nodes {
		fields, err := constObject(n.Fields)
		if err != nil {
			return nil, fmt.Errorf("node %q: fields: %w", n.Name, err)
		}
		g.Nodes = append(g.Nodes, module.GraphNode{Name: n.Name, Arch: n.Arch, Fields: fields})
	}
	for _, e := range gb.Edges {
		fields, err := constObject(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("edge %q: fields: %w", e.Name, err)
		}
		g.Edges = append(g.Edges, module.GraphEdge{
			Name:     e.Name,
			Arch:     e.Arch,
			From:     e.From,
			To:       e.To,
			Fields:   fields,
			Directed: e.Directed,
		})
	}
	for _, s := range gb.Spawns {
		args, err := constObject(s.Args)
		if err != nil {
			return nil, fmt.Errorf("spawn %q: args: %w", s.Walker, err)
		}
		g.Spawns = append(g.Spawns, module.GraphSpawn{Walker: s.Walker, At: s.At, Args: args})
	}
	return g, nil
}
