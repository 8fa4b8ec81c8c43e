// Package eval assembles evaluation contexts from constants and fields and
// resolves formula fields against them with bounded fixed-point iteration.
package eval

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// Expression is a parsed formula ready to evaluate against a name/value
// context. Evaluation fails when the expression references a name the
// context does not hold.
type Expression interface {
	Evaluate(ctx map[string]interface{}) (interface{}, error)
}

// Engine is the injected expression-parsing capability the resolver depends
// on. Parse fails on syntactically invalid expressions.
type Engine interface {
	Parse(text string) (Expression, error)
}

// NewEngine returns the production engine backed by govaluate
func NewEngine() Engine {
	return govaluateEngine{}
}

type govaluateEngine struct{}

func (govaluateEngine) Parse(text string) (Expression, error) {
	expr, err := govaluate.NewEvaluableExpression(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse formula: %w", err)
	}
	return govaluateExpression{expr: expr}, nil
}

type govaluateExpression struct {
	expr *govaluate.EvaluableExpression
}

func (e govaluateExpression) Evaluate(ctx map[string]interface{}) (interface{}, error) {
	result, err := e.expr.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate formula: %w", err)
	}
	return result, nil
}
