package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

type stubRenderer struct {
	name string
	err  error
}

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(_ context.Context, view render.View, _ render.Options) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(view.Config.ID), nil
}

func seeded(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.InitializeForm(form.Config{
		ID: "order",
		Fields: []form.Field{
			{ID: "delivery", Type: form.FieldTypeCheckbox, Label: "Delivery"},
			{ID: "address", Type: form.FieldTypeInput, Label: "Address", Required: true, Condition: "delivery"},
			{ID: "note", Type: form.FieldTypeTextarea, Label: "Note", Required: true},
		},
	}, nil)
	return reg
}

func TestNewView(t *testing.T) {
	reg := seeded(t)

	if _, err := render.NewView(reg, "missing", nil); !errors.Is(err, render.ErrUnknownForm) {
		t.Fatalf("expected ErrUnknownForm, got %v", err)
	}

	reg.SetFieldValue("order", "delivery", form.Bool(true))
	view, err := render.NewView(reg, "order", nil)
	if err != nil {
		t.Fatalf("NewView returned error: %v", err)
	}
	fields, err := view.VisibleFields(expr.New())
	if err != nil {
		t.Fatalf("VisibleFields returned error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected address to be visible, got %d fields", len(fields))
	}

	reg.SetFieldValue("order", "delivery", form.Bool(false))
	view, _ = render.NewView(reg, "order", nil)
	fields, _ = view.VisibleFields(expr.New())
	if len(fields) != 2 {
		t.Fatalf("expected address to be hidden, got %d fields", len(fields))
	}
}

func TestFieldErrorRespectsTouched(t *testing.T) {
	reg := seeded(t)
	reg.ValidateForm("order")
	reg.TouchField("order", "note")

	view, _ := render.NewView(reg, "order", nil)
	if view.FieldError("address", false) != "" {
		t.Fatalf("untouched error should be hidden")
	}
	if view.FieldError("address", true) == "" {
		t.Fatalf("ShowAllErrors should reveal untouched errors")
	}
	if view.FieldError("note", false) == "" {
		t.Fatalf("touched error should be shown")
	}
	if view.FieldError("delivery", true) != "" {
		t.Fatalf("valid field has no error")
	}
}

func TestRegistry(t *testing.T) {
	reg := render.NewRegistry(stubRenderer{name: "text"})

	if err := reg.Register(stubRenderer{name: "text"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := reg.Register(stubRenderer{}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	boom := errors.New("boom")
	reg.MustRegister(stubRenderer{name: "broken", err: boom})

	if diff := cmp.Diff([]string{"broken", "text"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	view := render.View{Config: form.Config{ID: "order"}}
	out, contentType, err := reg.Render(context.Background(), "text", view, render.Options{})
	if err != nil || string(out) != "order" || contentType != "text/plain" {
		t.Fatalf("Render = %q, %q, %v", out, contentType, err)
	}
	if _, _, err := reg.Render(context.Background(), "broken", view, render.Options{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped renderer error, got %v", err)
	}
	if _, _, err := reg.Render(context.Background(), "nope", view, render.Options{}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
}

func TestHiddenFields(t *testing.T) {
	opts := render.Options{Hidden: map[string]string{" existing ": "keep", "": "dropped"}}
	opts = opts.WithHidden(render.CSRFToken("_csrf", "t0k"), render.Hidden(" version ", 4), render.Hidden(" ", "x"))

	want := []render.HiddenField{
		{Name: "_csrf", Value: "t0k"},
		{Name: "existing", Value: "keep"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(want, opts.HiddenFields()); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
}
