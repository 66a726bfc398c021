package script

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

func eval(expr hcl.Expression, evalCtx *hcl.EvalContext) (cty.Value, error) {
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("value is not known")
	}
	return v, nil
}

func evalBool(expr hcl.Expression, evalCtx *hcl.EvalContext, fallback bool) (bool, error) {
	if expr == nil {
		return fallback, nil
	}
	v, err := eval(expr, evalCtx)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return fallback, nil
	}
	b, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("expected bool: %w", err)
	}
	return b.True(), nil
}

func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	v, err := eval(expr, evalCtx)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("expected string: %w", err)
	}
	return s.AsString(), nil
}

// evalNames accepts a single string or a collection of strings.
func evalNames(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]string, error) {
	if expr == nil {
		return nil, nil
	}
	v, err := eval(expr, evalCtx)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	if v.Type().Equals(cty.String) {
		return []string{v.AsString()}, nil
	}
	list, err := convert.Convert(v, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	var out []string
	for _, el := range list.AsValueSlice() {
		out = append(out, el.AsString())
	}
	return out, nil
}

// evalFields accepts an object or map and returns its attributes.
func evalFields(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	if expr == nil {
		return nil, nil
	}
	v, err := eval(expr, evalCtx)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	return v.AsValueMap(), nil
}

// hopFilter is the shared edge/node/direction filter of traversal
// statements.
type hopFilter struct {
	edge      hcl.Expression
	node      hcl.Expression
	direction hcl.Expression
	// defaultDir applies when direction is not set.
	defaultDir arch.Direction
}

func (f hopFilter) eval(evalCtx *hcl.EvalContext) (arch.HopFilter, error) {
	edges, err := evalNames(f.edge, evalCtx)
	if err != nil {
		return arch.HopFilter{}, fmt.Errorf("edge: %w", err)
	}
	nodes, err := evalNames(f.node, evalCtx)
	if err != nil {
		return arch.HopFilter{}, fmt.Errorf("node: %w", err)
	}
	dir := f.defaultDir
	if f.direction != nil {
		raw, err := evalString(f.direction, evalCtx)
		if err != nil {
			return arch.HopFilter{}, fmt.Errorf("direction: %w", err)
		}
		d, ok := arch.ParseDirection(raw)
		if !ok {
			return arch.HopFilter{}, fmt.Errorf("direction: unknown value %q", raw)
		}
		dir = d
	}
	return arch.HopFilter{Edge: edges, Node: nodes, Direction: dir}, nil
}
