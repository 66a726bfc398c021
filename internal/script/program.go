package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrFail is wrapped by errors raised with the fail statement.
	ErrFail = errors.New("ability failed")

	// errStop ends a program early after disengage.
	errStop = errors.New("stop")
)

// Program is a compiled ability body.
type Program struct {
	origin string
	stmts  []statement
}

var _ arch.Body = (*Program)(nil)

// Compile turns the statement blocks of body into a Program. Attributes of
// body are ignored, they belong to the enclosing ability declaration.
func Compile(body *hclsyntax.Body, origin string) (*Program, hcl.Diagnostics) {
	p := &Program{origin: origin}
	var diags hcl.Diagnostics
	for _, block := range body.Blocks {
		st, stDiags := compileStatement(block)
		diags = append(diags, stDiags...)
		if st != nil {
			p.stmts = append(p.stmts, st)
		}
	}
	return p, diags
}

// Len returns the number of statements.
func (p *Program) Len() int {
	return len(p.stmts)
}

func (p *Program) String() string {
	return p.origin
}

// Execute runs the statements in order.
func (p *Program) Execute(ctx context.Context, env arch.Env) error {
	for _, st := range p.stmts {
		evalCtx := newEvalContext(env)
		ok, err := st.guard(evalCtx)
		if err != nil {
			return fmt.Errorf("%s: when: %w", st.pos(), err)
		}
		if !ok {
			continue
		}
		if err := st.exec(ctx, env, evalCtx); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return fmt.Errorf("%s: %w", st.pos(), err)
		}
	}
	return nil
}

// newEvalContext exposes the current state of env to expressions.
func newEvalContext(env arch.Env) *hcl.EvalContext {
	here := env.HereHandle()
	kind := "node"
	if here.Kind == handle.KindEdge {
		kind = "edge"
	}
	vars := map[string]cty.Value{
		"here":    env.Here().Fields().Object(),
		"visitor": env.Visitor().Fields().Object(),
		"self":    env.Self().Fields().Object(),
		"global":  objectOf(env.Globals()),
		"args":    env.Args(),
		"event":   cty.StringVal(env.Event().String()),
		"ability": cty.StringVal(env.Path().String()),
		"position": cty.ObjectVal(map[string]cty.Value{
			"id":   cty.StringVal(here.String()),
			"arch": cty.StringVal(env.Here().Architype().Name),
			"kind": cty.StringVal(kind),
		}),
	}
	return &hcl.EvalContext{Variables: vars, Functions: functions}
}

func objectOf(m map[string]cty.Value) cty.Value {
	if len(m) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(m)
}
