package render

import (
	"github.com/PaesslerAG/gval"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// ExprEvaluator evaluates boolean/arithmetic expressions against a render
// context, backing Conditional.if_expr and tool-argument guards (spec
// §4.C, §4.F).
type ExprEvaluator struct {
	lang gval.Language
}

// NewExprEvaluator builds an evaluator over gval's full expression
// language (arithmetic, string, boolean, bitwise operators).
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{lang: gval.Full()}
}

// Eval evaluates expr against the flattened render context and returns the
// raw result.
func (e *ExprEvaluator) Eval(expr string, ctx *Context) (any, error) {
	val, err := e.lang.Evaluate(expr, ctx.Resolve())
	if err != nil {
		return nil, enginerr.Wrap(enginerr.ValidationError, "evaluate expression", err)
	}
	return val, nil
}

// EvalBool evaluates expr and requires the result to be boolean, the shape
// Conditional.if_expr and Fallback's condition predicate need.
func (e *ExprEvaluator) EvalBool(expr string, ctx *Context) (bool, error) {
	val, err := e.Eval(expr, ctx)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, enginerr.New(enginerr.ValidationError, "expression did not evaluate to a boolean: "+expr)
	}
	return b, nil
}
