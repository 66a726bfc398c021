package script

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/handle"
)

type statement interface {
	guard(evalCtx *hcl.EvalContext) (bool, error)
	exec(ctx context.Context, env arch.Env, evalCtx *hcl.EvalContext) error
	pos() hcl.Range
}

// base carries the guard and source range every statement has.
type base struct {
	when hcl.Expression
	rng  hcl.Range
}

func (b base) guard(evalCtx *hcl.EvalContext) (bool, error) {
	return evalBool(b.when, evalCtx, true)
}

func (b base) pos() hcl.Range { return b.rng }

// statementSchema describes the labels and attributes one block type takes.
type statementSchema struct {
	labels   []string
	required []string
	optional []string
	build    func(b base, block *hclsyntax.Block, attrs hclsyntax.Attributes) statement
}

var filterAttrs = []string{"edge", "node", "direction"}

var statementSchemas map[string]statementSchema

func init() {
	statementSchemas = map[string]statementSchema{
		"set": {
			labels:   []string{"target", "field"},
			required: []string{"value"},
			build: func(b base, block *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &setStmt{base: b, target: block.Labels[0], field: block.Labels[1], value: attrs["value"].Expr}
			},
		},
		"global": {
			labels:   []string{"name"},
			required: []string{"value"},
			build: func(b base, block *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &globalStmt{base: b, name: block.Labels[0], value: attrs["value"].Expr}
			},
		},
		"report": {
			required: []string{"value"},
			build: func(b base, _ *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &reportStmt{base: b, value: attrs["value"].Expr}
			},
		},
		"log": {
			required: []string{"message"},
			build: func(b base, _ *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &logStmt{base: b, message: attrs["message"].Expr}
			},
		},
		"visit": {
			optional: append([]string{"first", "via_edges"}, filterAttrs...),
			build: func(b base, _ *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &visitStmt{
					base:     b,
					filter:   filterOf(attrs, arch.DirOut),
					first:    exprOf(attrs, "first"),
					viaEdges: exprOf(attrs, "via_edges"),
				}
			},
		},
		"ignore": {
			optional: filterAttrs,
			build: func(b base, _ *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &ignoreStmt{base: b, filter: filterOf(attrs, arch.DirOut)}
			},
		},
		"connect": {
			labels:   []string{"node"},
			required: []string{"edge"},
			optional: []string{"fields", "edge_fields", "visit"},
			build: func(b base, block *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &connectStmt{
					base:       b,
					node:       block.Labels[0],
					edge:       attrs["edge"].Expr,
					fields:     exprOf(attrs, "fields"),
					edgeFields: exprOf(attrs, "edge_fields"),
					visit:      exprOf(attrs, "visit"),
				}
			},
		},
		"delete": {
			optional: append([]string{"edges"}, filterAttrs...),
			build: func(b base, _ *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &deleteStmt{base: b, filter: filterOf(attrs, arch.DirOut), edges: exprOf(attrs, "edges")}
			},
		},
		"disengage": {
			build: func(b base, _ *hclsyntax.Block, _ hclsyntax.Attributes) statement {
				return &disengageStmt{base: b}
			},
		},
		"fail": {
			optional: []string{"message"},
			build: func(b base, _ *hclsyntax.Block, attrs hclsyntax.Attributes) statement {
				return &failStmt{base: b, message: exprOf(attrs, "message")}
			},
		},
	}
}

func exprOf(attrs hclsyntax.Attributes, name string) hcl.Expression {
	if a, ok := attrs[name]; ok {
		return a.Expr
	}
	return nil
}

func filterOf(attrs hclsyntax.Attributes, def arch.Direction) hopFilter {
	return hopFilter{
		edge:       exprOf(attrs, "edge"),
		node:       exprOf(attrs, "node"),
		direction:  exprOf(attrs, "direction"),
		defaultDir: def,
	}
}

func compileStatement(block *hclsyntax.Block) (statement, hcl.Diagnostics) {
	rng := block.DefRange()
	schema, ok := statementSchemas[block.Type]
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported statement",
			Detail:   fmt.Sprintf("Blocks of type %q are not statements.", block.Type),
			Subject:  &rng,
		}}
	}

	var diags hcl.Diagnostics
	if len(block.Labels) != len(schema.labels) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Wrong number of labels",
			Detail:   fmt.Sprintf("A %s statement takes %d label(s) %v.", block.Type, len(schema.labels), schema.labels),
			Subject:  &rng,
		})
	}
	if len(block.Body.Blocks) > 0 {
		nested := block.Body.Blocks[0].DefRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected block",
			Detail:   fmt.Sprintf("A %s statement does not take nested blocks.", block.Type),
			Subject:  &nested,
		})
	}

	allowed := map[string]bool{"when": true}
	for _, name := range schema.required {
		allowed[name] = true
		if _, ok := block.Body.Attributes[name]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing required argument",
				Detail:   fmt.Sprintf("The argument %q is required in a %s statement.", name, block.Type),
				Subject:  &rng,
			})
		}
	}
	for _, name := range schema.optional {
		allowed[name] = true
	}
	for name, attr := range block.Body.Attributes {
		if !allowed[name] {
			nameRange := attr.NameRange
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported argument",
				Detail:   fmt.Sprintf("An argument named %q is not expected in a %s statement.", name, block.Type),
				Subject:  &nameRange,
			})
		}
	}

	if block.Type == "set" && len(block.Labels) == 2 {
		switch block.Labels[0] {
		case "here", "visitor", "self":
		default:
			labelRange := block.LabelRanges[0]
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid set target",
				Detail:   fmt.Sprintf("Target %q must be one of here, visitor or self.", block.Labels[0]),
				Subject:  &labelRange,
			})
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	b := base{when: exprOf(block.Body.Attributes, "when"), rng: rng}
	return schema.build(b, block, block.Body.Attributes), nil
}

type setStmt struct {
	base
	target string
	field  string
	value  hcl.Expression
}

func (s *setStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	v, err := eval(s.value, evalCtx)
	if err != nil {
		return err
	}
	var inst arch.Instance
	switch s.target {
	case "here":
		inst = env.Here()
	case "visitor":
		inst = env.Visitor()
	default:
		inst = env.Self()
	}
	return inst.Fields().Set(s.field, v)
}

type globalStmt struct {
	base
	name  string
	value hcl.Expression
}

func (s *globalStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	v, err := eval(s.value, evalCtx)
	if err != nil {
		return err
	}
	return env.SetGlobal(s.name, v)
}

type reportStmt struct {
	base
	value hcl.Expression
}

func (s *reportStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	v, err := eval(s.value, evalCtx)
	if err != nil {
		return err
	}
	env.Report(v)
	return nil
}

type logStmt struct {
	base
	message hcl.Expression
}

func (s *logStmt) exec(ctx context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	msg, err := evalString(s.message, evalCtx)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info(msg, "ability", env.Path().String(), "position", env.HereHandle().String())
	return nil
}

type visitStmt struct {
	base
	filter   hopFilter
	first    hcl.Expression
	viaEdges hcl.Expression
}

func (s *visitStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	f, err := s.filter.eval(evalCtx)
	if err != nil {
		return err
	}
	first, err := evalBool(s.first, evalCtx, false)
	if err != nil {
		return fmt.Errorf("first: %w", err)
	}
	viaEdges, err := evalBool(s.viaEdges, evalCtx, false)
	if err != nil {
		return fmt.Errorf("via_edges: %w", err)
	}
	hops, err := env.Neighbors(f)
	if err != nil {
		return err
	}
	targets := make([]handle.Handle, 0, len(hops))
	for _, hop := range hops {
		if viaEdges {
			targets = append(targets, hop.Edge)
		} else {
			targets = append(targets, hop.Node)
		}
	}
	return env.Visit(first, targets...)
}

type ignoreStmt struct {
	base
	filter hopFilter
}

func (s *ignoreStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	f, err := s.filter.eval(evalCtx)
	if err != nil {
		return err
	}
	hops, err := env.Neighbors(f)
	if err != nil {
		return err
	}
	for _, hop := range hops {
		env.Ignore(hop.Node)
	}
	return nil
}

type connectStmt struct {
	base
	node       string
	edge       hcl.Expression
	fields     hcl.Expression
	edgeFields hcl.Expression
	visit      hcl.Expression
}

func (s *connectStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	edgeArch, err := evalString(s.edge, evalCtx)
	if err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	fields, err := evalFields(s.fields, evalCtx)
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	edgeFields, err := evalFields(s.edgeFields, evalCtx)
	if err != nil {
		return fmt.Errorf("edge_fields: %w", err)
	}
	visit, err := evalBool(s.visit, evalCtx, false)
	if err != nil {
		return fmt.Errorf("visit: %w", err)
	}

	node, err := env.CreateNode(s.node, fields)
	if err != nil {
		return err
	}
	if _, err := env.Connect(edgeArch, env.HereHandle(), node, edgeFields); err != nil {
		return err
	}
	if visit {
		return env.Visit(false, node)
	}
	return nil
}

type deleteStmt struct {
	base
	filter hopFilter
	edges  hcl.Expression
}

func (s *deleteStmt) exec(_ context.Context, env arch.Env, evalCtx *hcl.EvalContext) error {
	f, err := s.filter.eval(evalCtx)
	if err != nil {
		return err
	}
	edgesOnly, err := evalBool(s.edges, evalCtx, false)
	if err != nil {
		return fmt.Errorf("edges: %w", err)
	}
	hops, err := env.Neighbors(f)
	if err != nil {
		return err
	}
	seen := make(map[handle.Handle]bool)
	for _, hop := range hops {
		target := hop.Node
		if edgesOnly {
			target = hop.Edge
		}
		if seen[target] {
			continue
		}
		seen[target] = true
		if err := env.Delete(target); err != nil {
			return err
		}
	}
	return nil
}

type disengageStmt struct {
	base
}

func (s *disengageStmt) exec(_ context.Context, env arch.Env, _ *hcl.EvalContext) error {
	env.Disengage()
	return errStop
}

type failStmt struct {
	base
	message hcl.Expression
}

func (s *failStmt) exec(_ context.Context, _ arch.Env, evalCtx *hcl.EvalContext) error {
	if s.message == nil {
		return ErrFail
	}
	msg, err := evalString(s.message, evalCtx)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrFail, msg)
}
