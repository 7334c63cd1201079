package jsonview_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/jsonview"
)

func TestRender(t *testing.T) {
	reg := registry.New()
	reg.InitializeForm(form.Config{
		ID: "prefs",
		Fields: []form.Field{
			{ID: "email", Type: form.FieldTypeInput, Label: "Email", Required: true},
			{ID: "name", Type: form.FieldTypeInput, Label: "Name", Required: true},
			{ID: "company", Type: form.FieldTypeInput, Label: "Company", Condition: "extras.business"},
		},
	}, nil)
	reg.ValidateForm("prefs")
	reg.TouchField("prefs", "email")

	view, err := render.NewView(reg, "prefs", nil)
	if err != nil {
		t.Fatalf("NewView returned error: %v", err)
	}

	out, err := jsonview.New().Render(context.Background(), view, render.Options{})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	var got struct {
		Visible []string          `json:"visible"`
		Shown   map[string]string `json:"shownErrors"`
		State   struct {
			Valid  bool              `json:"isValid"`
			Values map[string]any    `json:"values"`
			Errors map[string]string `json:"errors"`
		} `json:"state"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	if diff := cmp.Diff([]string{"email", "name"}, got.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"email": "Email - обязательное поле"}, got.Shown); diff != "" {
		t.Fatalf("shown errors mismatch (-want +got):\n%s", diff)
	}
	if got.State.Valid || len(got.State.Errors) != 2 {
		t.Fatalf("state not carried: %+v", got.State)
	}
	if got.State.Values["company"] != "" {
		t.Fatalf("values not carried: %+v", got.State.Values)
	}
}
