package hclmodule

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/walkgrid/internal/module"
	"github.com/zclconf/go-cty/cty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder fills omitted optional expressions with zero-width
// placeholders.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// constValue evaluates an expression that may not reference any variables.
func constValue(expr hcl.Expression) (cty.Value, error) {
	if !isExprDefined(expr) {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

// constObject evaluates an optional object expression into its attributes.
func constObject(expr hcl.Expression) (map[string]cty.Value, error) {
	v, err := constValue(expr)
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

func posOf(r hcl.Range) module.Pos {
	return module.Pos{File: r.Filename, Line: r.Start.Line}
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
