// Package exprlang evaluates field conditions written in the expr language
// (github.com/expr-lang/expr). Besides the equality and boolean operators of
// the built-in grammar it supports the full expr syntax with its builtins:
//
//	country in ["ru", "kz"] && len(about) > 20
//	extras.role == "admin" || lower(email) endsWith "@example.com"
//
// Field values are exposed by id and the host extras under `extras`. Unknown
// names evaluate to nil. Unlike the built-in grammar, && and || require
// boolean operands.
package exprlang

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

// ExtrasName is the environment key holding visibility.Context.Extras.
const ExtrasName = "extras"

// Option customises an Evaluator.
type Option func(*Evaluator)

// WithExprOptions appends compile options, e.g. expr.Function to register
// helpers.
func WithExprOptions(options ...expr.Option) Option {
	return func(e *Evaluator) {
		e.options = append(e.options, options...)
	}
}

// Evaluator implements visibility.Evaluator with compiled expr programs,
// cached by source text. It is safe for concurrent use.
type Evaluator struct {
	mu      sync.RWMutex
	cache   map[string]*vm.Program
	options []expr.Option
}

// New returns an evaluator with an empty program cache.
func New(options ...Option) *Evaluator {
	e := &Evaluator{
		cache:   make(map[string]*vm.Program),
		options: []expr.Option{expr.AllowUndefinedVariables()},
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Eval runs condition against the field values and extras of ctx. The result
// is read for truthiness, so `tags` alone holds for a non-empty list.
func (e *Evaluator) Eval(fieldID, condition string, ctx visibility.Context) (bool, error) {
	program, err := e.program(condition)
	if err != nil {
		return false, err
	}
	if program == nil {
		return true, nil
	}
	out, err := expr.Run(program, environment(ctx))
	if err != nil {
		return false, fmt.Errorf("exprlang: field %q: %w", fieldID, err)
	}
	return truthy(out), nil
}

func (e *Evaluator) program(condition string) (*vm.Program, error) {
	source := strings.TrimSpace(condition)
	if source == "" {
		return nil, nil
	}

	e.mu.RLock()
	program, ok := e.cache[source]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(source, e.options...)
	if err != nil {
		return nil, fmt.Errorf("exprlang: compile %q: %w", source, err)
	}

	e.mu.Lock()
	e.cache[source] = program
	e.mu.Unlock()
	return program, nil
}

func environment(ctx visibility.Context) map[string]any {
	env := ctx.Values.Interface()
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	env[ExtrasName] = extras
	return env
}

// Identifiers parses condition and returns the top-level names it reads,
// sorted. Function callees and the extras namespace are left out, so the
// result can be checked against a form's field ids.
func Identifiers(condition string) ([]string, error) {
	source := strings.TrimSpace(condition)
	if source == "" {
		return nil, nil
	}
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("exprlang: parse %q: %w", source, err)
	}

	collector := &identCollector{
		seen:    map[string]struct{}{},
		callees: map[string]struct{}{},
		locals:  map[string]struct{}{},
	}
	ast.Walk(&tree.Node, collector)

	out := make([]string, 0, len(collector.seen))
	for name := range collector.seen {
		if _, callee := collector.callees[name]; callee {
			continue
		}
		if _, local := collector.locals[name]; local {
			continue
		}
		if name == ExtrasName {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

type identCollector struct {
	seen    map[string]struct{}
	callees map[string]struct{}
	locals  map[string]struct{}
}

func (c *identCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.seen[n.Value] = struct{}{}
	case *ast.CallNode:
		if ident, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[ident.Value] = struct{}{}
		}
	case *ast.VariableDeclaratorNode:
		c.locals[n.Name] = struct{}{}
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
