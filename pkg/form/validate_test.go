package form_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
)

const emailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

func TestValidateField_RequiredEmptyValues(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "name", Type: form.FieldTypeInput, Label: "Name", Required: true}
	checkbox := form.Field{ID: "agree", Type: form.FieldTypeCheckbox, Label: "Agree", Required: true}

	cases := []struct {
		name  string
		field form.Field
		value form.Value
	}{
		{"null", field, form.Null()},
		{"empty string", field, form.String("")},
		{"empty list", field, form.List()},
		{"false checkbox", checkbox, form.Bool(false)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := form.Check(tc.field, tc.value)
			if got.Rule != form.RuleRequired {
				t.Fatalf("rule = %q, want required", got.Rule)
			}
			want := tc.field.Label + " - обязательное поле"
			if got.Message != want {
				t.Fatalf("message = %q, want %q", got.Message, want)
			}
		})
	}
}

func TestValidateField_RequiredNonEmptyValues(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "name", Type: form.FieldTypeInput, Label: "Name", Required: true}
	for _, value := range []form.Value{
		form.String("Ann"),
		form.Number(0),
		form.Bool(false), // false only counts as empty for checkboxes
		form.List("a"),
	} {
		if msg := form.ValidateField(field, value); msg != "" {
			t.Fatalf("ValidateField(%v) = %q, want none", value, msg)
		}
	}
}

func TestValidateField_OptionalValues(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "note", Type: form.FieldTypeInput, Label: "Note", MinLength: 3, Pattern: `^\d+$`}
	if msg := form.ValidateField(field, form.Null()); msg != "" {
		t.Fatalf("null value: got %q", msg)
	}
	if got := form.Check(field, form.String("")); got.Rule != form.RuleMinLength {
		t.Fatalf("empty string still subject to minLength, got %q", got.Rule)
	}
}

func TestValidateField_LengthBounds(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "nick", Type: form.FieldTypeInput, Label: "Nick", MinLength: 3, MaxLength: 5}

	if got := form.ValidateField(field, form.String("ab")); got != "Nick - минимум 3 символов" {
		t.Fatalf("too short: %q", got)
	}
	if got := form.ValidateField(field, form.String("abcdef")); got != "Nick - максимум 5 символов" {
		t.Fatalf("too long: %q", got)
	}
	if got := form.ValidateField(field, form.String("абвг")); got != "" {
		t.Fatalf("code points should be counted, got %q", got)
	}
	if got := form.ValidateField(field, form.Number(1)); got != "" {
		t.Fatalf("length rules only apply to strings, got %q", got)
	}
}

func TestValidateField_Pattern(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "email", Type: form.FieldTypeInput, Label: "Email", Pattern: emailPattern}

	if got := form.ValidateField(field, form.String("test@example.com")); got != "" {
		t.Fatalf("valid email rejected: %q", got)
	}
	if got := form.ValidateField(field, form.String("invalid")); got != "Email - некорректный формат" {
		t.Fatalf("invalid email: %q", got)
	}
	if got := form.ValidateField(field, form.String("")); got != "" {
		t.Fatalf("empty strings never fail the pattern rule, got %q", got)
	}

	field.ErrorMessage = "Введите email"
	if got := form.ValidateField(field, form.String("invalid")); got != "Введите email" {
		t.Fatalf("custom message not used: %q", got)
	}
}

func TestValidateField_PatternIsFullMatch(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "code", Type: form.FieldTypeInput, Label: "Code", Pattern: `\d+`}
	if got := form.ValidateField(field, form.String("123")); got != "" {
		t.Fatalf("digits rejected: %q", got)
	}
	if got := form.ValidateField(field, form.String("abc123")); got == "" {
		t.Fatalf("partial match accepted")
	}
}

func TestValidateField_InvalidPatternNeverMatches(t *testing.T) {
	t.Parallel()

	field := form.Field{ID: "code", Type: form.FieldTypeInput, Label: "Code", Pattern: `(`}
	if got := form.Check(field, form.String("x")); got.Rule != form.RulePattern {
		t.Fatalf("rule = %q, want pattern", got.Rule)
	}
}

func TestValidateField_RulePriority(t *testing.T) {
	t.Parallel()

	field := form.Field{
		ID:        "pin",
		Type:      form.FieldTypeInput,
		Label:     "PIN",
		Required:  true,
		MinLength: 4,
		Pattern:   `^\d+$`,
	}
	if got := form.Check(field, form.String("")); got.Rule != form.RuleRequired {
		t.Fatalf("empty: %q", got.Rule)
	}
	if got := form.Check(field, form.String("ab")); got.Rule != form.RuleMinLength {
		t.Fatalf("short non-digit: %q", got.Rule)
	}
	if got := form.Check(field, form.String("abcd")); got.Rule != form.RulePattern {
		t.Fatalf("long non-digit: %q", got.Rule)
	}
}

func TestValidateField_LabelFallsBackToID(t *testing.T) {
	t.Parallel()

	got := form.ValidateField(form.Field{ID: "name", Required: true}, form.String(""))
	if !strings.HasPrefix(got, "name - ") {
		t.Fatalf("message = %q", got)
	}
}

func TestValidator_CustomMessages(t *testing.T) {
	t.Parallel()

	v := form.NewValidator(form.WithMessages(form.Messages{
		Required:  "{label} is required",
		MaxLength: "{label} must be at most {max} characters",
	}))
	field := form.Field{ID: "title", Label: "Title", Required: true, MaxLength: 2}

	if got := v.ValidateField(field, form.Null()); got != "Title is required" {
		t.Fatalf("required: %q", got)
	}
	if got := v.ValidateField(field, form.String("abc")); got != "Title must be at most 2 characters" {
		t.Fatalf("maxLength: %q", got)
	}
	if got := v.Messages().Pattern; got != form.DefaultMessages().Pattern {
		t.Fatalf("unset templates must keep defaults, got %q", got)
	}
}

func TestValidateForm_OnlyFailingFields(t *testing.T) {
	t.Parallel()

	fields := contactFields()
	values := form.Values{
		"email": form.String("invalid"),
		// name missing entirely: treated as null
		"message": form.String("hello"),
	}

	got := form.ValidateForm(fields, values)
	want := form.Errors{
		"email": "Email - некорректный формат",
		"name":  "Name - обязательное поле",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !got.HasErrors() {
		t.Fatalf("HasErrors() = false")
	}

	valid := form.ValidateForm(fields, form.Values{
		"email": form.String("a@b.co"),
		"name":  form.String("Ann"),
	})
	if valid.HasErrors() {
		t.Fatalf("expected no errors, got %v", valid)
	}
}

func contactFields() []form.Field {
	return []form.Field{
		{ID: "email", Type: form.FieldTypeInput, Label: "Email", Required: true, Pattern: emailPattern},
		{ID: "name", Type: form.FieldTypeInput, Label: "Name", Required: true},
		{ID: "message", Type: form.FieldTypeTextarea, Label: "Message"},
	}
}
