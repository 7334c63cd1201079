package expr

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

func TestEvaluatorConditions(t *testing.T) {
	t.Parallel()

	values := form.Values{
		"country":    form.String("ru"),
		"agree":      form.Bool(true),
		"newsletter": form.Bool(false),
		"age":        form.Number(42),
		"comment":    form.String(""),
		"tags":       form.List("a"),
		"nothing":    form.Null(),
	}
	ctx := visibility.Context{
		Values: values,
		Extras: map[string]any{
			"role": "admin",
			"user": map[string]any{"beta": true},
		},
	}

	cases := []struct {
		condition string
		want      bool
	}{
		{``, true},
		{`agree`, true},
		{`!newsletter`, true},
		{`comment`, false},
		{`tags`, true},
		{`country == "ru"`, true},
		{`country != 'ru'`, false},
		{`country == "ru" && agree`, true},
		{`country == "de" || newsletter`, false},
		{`!(country == "de" || newsletter)`, true},
		{`age == 42`, true},
		{`age != 41.5`, true},
		{`agree == true && newsletter == false`, true},
		{`nothing == null`, true},
		{`missing == null`, true},
		{`missing`, false},
		{`comment != null`, true},
		{`extras.role == "admin"`, true},
		{`extras.user.beta`, true},
		{`extras.user.alpha`, false},
		{`tags == "a"`, true},
	}

	eval := New()
	for _, tc := range cases {
		got, err := eval.Eval("field", tc.condition, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.condition, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.condition, got, tc.want)
		}
	}
}

func TestStringBoolCoercion(t *testing.T) {
	t.Parallel()

	program, err := Compile(`enabled == true`)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	ctx := visibility.Context{Values: form.Values{"enabled": form.String("true")}}
	if !program.Eval(ctx) {
		t.Fatalf("expected string \"true\" to equal true")
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	bad := []string{
		`a = 1`,
		`a & b`,
		`a | b`,
		`(a`,
		`a ==`,
		`a == b`,
		`"open`,
		`&& a`,
		`a b`,
	}
	for _, condition := range bad {
		if _, err := Compile(condition); err == nil {
			t.Fatalf("Compile(%q) expected error", condition)
		}
	}
}

func TestEvaluatorReportsCompileError(t *testing.T) {
	t.Parallel()

	if _, err := New().Eval("x", `a ==`, visibility.Context{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()

	got, err := Identifiers(`country == "ru" && (agree || !country) && extras.role == "admin"`)
	if err != nil {
		t.Fatalf("Identifiers returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"agree", "country"}, got); diff != "" {
		t.Fatalf("identifiers mismatch (-want +got):\n%s", diff)
	}

	empty, err := Identifiers("  ")
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty condition: %v, %v", empty, err)
	}
}
