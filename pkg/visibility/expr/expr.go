package expr

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// ExtrasPrefix routes an identifier to visibility.Context.Extras instead of
// the field values.
const ExtrasPrefix = "extras."

// Program is a compiled condition.
type Program struct {
	source string
	root   node
}

// Compile parses a condition. An empty condition compiles to a program that
// always holds.
func Compile(condition string) (*Program, error) {
	trimmed := strings.TrimSpace(condition)
	if trimmed == "" {
		return &Program{}, nil
	}
	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	return &Program{source: trimmed, root: root}, nil
}

// String returns the normalized source.
func (p *Program) String() string { return p.source }

// Eval runs the program against ctx. Identifiers that resolve to nothing
// evaluate as null.
func (p *Program) Eval(ctx visibility.Context) bool {
	if p == nil || p.root == nil {
		return true
	}
	return p.root.eval(env{ctx: ctx})
}

// Identifiers lists the field ids the program reads, sorted and without
// duplicates. Identifiers under ExtrasPrefix are left out.
func (p *Program) Identifiers() []string {
	if p == nil || p.root == nil {
		return nil
	}
	seen := map[string]struct{}{}
	p.root.idents(func(ident string) {
		if strings.HasPrefix(strings.ToLower(ident), ExtrasPrefix) {
			return
		}
		seen[ident] = struct{}{}
	})
	out := make([]string, 0, len(seen))
	for ident := range seen {
		out = append(out, ident)
	}
	sort.Strings(out)
	return out
}

// Identifiers compiles condition and returns the field ids it references.
func Identifiers(condition string) ([]string, error) {
	program, err := Compile(condition)
	if err != nil {
		return nil, err
	}
	return program.Identifiers(), nil
}

// Evaluator implements visibility.Evaluator, caching compiled programs by
// source text. It is safe for concurrent use.
type Evaluator struct {
	cache sync.Map
}

func New() *Evaluator { return &Evaluator{} }

func (e *Evaluator) Eval(fieldID, condition string, ctx visibility.Context) (bool, error) {
	_ = fieldID
	if cached, ok := e.cache.Load(condition); ok {
		return cached.(*Program).Eval(ctx), nil
	}
	program, err := Compile(condition)
	if err != nil {
		return false, err
	}
	e.cache.Store(condition, program)
	return program.Eval(ctx), nil
}

type env struct {
	ctx visibility.Context
}

func (e env) resolve(ident string) any {
	if strings.HasPrefix(strings.ToLower(ident), ExtrasPrefix) {
		value, _ := lookupPath(e.ctx.Extras, ident[len(ExtrasPrefix):])
		return value
	}
	value, ok := e.ctx.Values[ident]
	if !ok {
		return nil
	}
	return value.Interface()
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func equalsLiteral(value any, lit token) bool {
	switch lit.kind {
	case tokenNull:
		return value == nil
	case tokenBool:
		return asBool(value) == (lit.text == "true")
	case tokenNumber:
		want, _ := strconv.ParseFloat(lit.text, 64)
		got, ok := asNumber(value)
		return ok && got == want
	default:
		return asString(value) == lit.text
	}
}

// truthy treats empty strings, zero, false, null and empty collections as
// false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
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

func asBool(value any) bool {
	if s, ok := value.(string); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed
		}
	}
	return truthy(value)
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	converted, err := form.FromAny(value)
	if err != nil {
		return ""
	}
	return converted.String()
}
