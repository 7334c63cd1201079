package visibility

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Evaluator decides whether a field is shown for the current form state.
type Evaluator interface {
	Eval(fieldID, condition string, ctx Context) (bool, error)
}

// Context carries the inputs a condition may reference. Values holds the
// live field values of the instance; Extras lets hosts inject anything else
// (user roles, feature flags) addressed through the `extras.` prefix.
type Context struct {
	Values form.Values
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldID, condition string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldID, condition string, ctx Context) (bool, error) {
	return fn(fieldID, condition, ctx)
}

// Always shows every field regardless of its condition.
var Always Evaluator = EvaluatorFunc(func(string, string, Context) (bool, error) {
	return true, nil
})

// Visible reports whether field should be presented. Fields without a
// condition are always visible; a nil evaluator shows everything.
func Visible(eval Evaluator, field form.Field, ctx Context) (bool, error) {
	if eval == nil || strings.TrimSpace(field.Condition) == "" {
		return true, nil
	}
	ok, err := eval.Eval(field.ID, field.Condition, ctx)
	if err != nil {
		return false, fmt.Errorf("visibility: field %q: %w", field.ID, err)
	}
	return ok, nil
}

// Filter returns the visible subset of fields, preserving order.
func Filter(eval Evaluator, fields []form.Field, ctx Context) ([]form.Field, error) {
	out := make([]form.Field, 0, len(fields))
	for _, field := range fields {
		ok, err := Visible(eval, field, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, field)
		}
	}
	return out, nil
}
