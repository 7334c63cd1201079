package form_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formstate/pkg/form"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	good := form.Config{ID: "contact", Fields: contactFields()}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := form.Config{
		ID: "broken",
		Fields: []form.Field{
			{ID: "a", Type: form.FieldTypeInput},
			{ID: "a", Type: form.FieldTypeInput},
			{ID: "", Type: form.FieldTypeInput},
			{ID: "b", Type: "slider"},
			{ID: "c", Type: form.FieldTypeInput, Pattern: "("},
			{ID: "d", Type: form.FieldTypeInput, MinLength: 5, MaxLength: 2},
			{ID: "e", Type: form.FieldTypeSelect},
		},
	}
	err := bad.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Fatalf("expected joined error, got %T", err)
	}
	if got := len(joined.Unwrap()); got != 6 {
		t.Fatalf("issues = %d, want 6: %v", got, err)
	}

	var cfgErr form.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.FormID != "broken" {
		t.Fatalf("expected ConfigError for form broken, got %v", err)
	}
}

func TestConfigFieldLookupAndClone(t *testing.T) {
	t.Parallel()

	def := form.List("x")
	cfg := form.Config{ID: "f", Fields: []form.Field{
		{ID: "tags", Type: form.FieldTypeInput, Default: &def},
	}}
	clone := cfg.Clone()
	*clone.Fields[0].Default = form.String("changed")

	field, ok := cfg.Field("tags")
	if !ok {
		t.Fatalf("field not found")
	}
	if !field.Default.Equal(form.List("x")) {
		t.Fatalf("clone shares default with original")
	}
	if _, ok := cfg.Field("missing"); ok {
		t.Fatalf("unexpected field")
	}
}
