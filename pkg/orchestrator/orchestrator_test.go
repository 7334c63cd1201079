package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

type jsonDocument struct {
	Visible []string    `json:"visible"`
	Shown   form.Errors `json:"shownErrors"`
}

func decodeJSON(t *testing.T, data []byte) jsonDocument {
	t.Helper()
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, data)
	}
	return doc
}

func TestGenerate_CatalogFormWithValues(t *testing.T) {
	orch := orchestrator.New()

	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		FormID: "feedback",
		Values: form.Values{"rating": form.Number(4)},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("expected html by default, got %q", result.ContentType)
	}
	if !strings.Contains(string(result.Output), `name="details"`) {
		t.Fatalf("details should be visible once rating != 5:\n%s", result.Output)
	}
	if !result.State.IsTouched("rating") || !result.State.IsDirty("rating") {
		t.Fatalf("values should be written through the registry, got %+v", result.State)
	}
	if !orch.Registry().Has("feedback") {
		t.Fatalf("expected instance to live in the orchestrator registry")
	}
}

func TestGenerate_OpenAPIWithPreset(t *testing.T) {
	preset, err := orchestrator.NewPresetTransformerFromFS(os.DirFS("testdata"), "preset.yaml")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	orch := orchestrator.New(
		orchestrator.WithFetcher(openapi.Fetcher{FS: os.DirFS("testdata")}),
		orchestrator.WithSchemaTransformer(preset),
	)

	req := orchestrator.Request{
		FormID:   "signup",
		OpenAPI:  &orchestrator.OpenAPISource{Location: "signup.yaml", OperationID: "createAccount"},
		Renderer: "json",
	}

	cfg, err := orch.Resolve(testsupport.Context(), req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ID != "signup" || cfg.Title != "Регистрация команды" || cfg.SubmitLabel != "Продолжить" {
		t.Fatalf("form-level preset not applied: %+v", cfg)
	}
	company, _ := cfg.Field("company")
	if company.Label != "Компания" || !company.Required {
		t.Fatalf("field preset not applied: %+v", company)
	}
	email, _ := cfg.Field("email")
	if email.Hint != "Рабочий адрес" || !email.Required {
		t.Fatalf("expected imported email field with hint, got %+v", email)
	}

	result, err := orch.Generate(testsupport.Context(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	doc := decodeJSON(t, result.Output)
	if diff := cmp.Diff([]string{"email", "plan"}, doc.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Submit(t *testing.T) {
	cfg := testsupport.LoadConfig(t, filepath.Join("testdata", "inline.json"))
	reg := testsupport.NewRegistry()
	orch := orchestrator.New(orchestrator.WithFormRegistry(reg), orchestrator.WithDefaultRenderer("json"))

	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Config: &cfg,
		Values: form.Values{"name": form.String("  Анна ")},
		Submit: true,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Submitted {
		t.Fatalf("expected submit to succeed: %+v", result.State)
	}
	want := []registry.Submission{{
		ID:        "sub-1",
		FormID:    "inline",
		Values:    form.Values{"name": form.String("Анна")},
		Timestamp: testsupport.FixedTime,
	}}
	if diff := cmp.Diff(want, reg.SubmissionHistory()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_FailedSubmitShowsAllErrors(t *testing.T) {
	cfg := testsupport.LoadConfig(t, filepath.Join("testdata", "inline.json"))
	orch := orchestrator.New()

	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Config:   &cfg,
		Submit:   true,
		Renderer: "json",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Submitted {
		t.Fatalf("expected submit to fail")
	}
	doc := decodeJSON(t, result.Output)
	if doc.Shown["name"] != "Name - обязательное поле" {
		t.Fatalf("expected untouched field error to be shown, got %v", doc.Shown)
	}
}

func TestGenerate_TransformerFunc(t *testing.T) {
	orch := orchestrator.New(orchestrator.WithSchemaTransformer(orchestrator.TransformerFunc(
		func(_ context.Context, cfg *form.Config) error {
			cfg.Title = strings.ToUpper(cfg.Title)
			return nil
		},
	)))
	cfg, err := orch.Resolve(testsupport.Context(), orchestrator.Request{FormID: "contact"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Title != "ОБРАТНАЯ СВЯЗЬ" {
		t.Fatalf("transformer not applied, title %q", cfg.Title)
	}
}

func TestGenerate_Errors(t *testing.T) {
	ctx := testsupport.Context()
	orch := orchestrator.New()

	if _, err := orch.Generate(ctx, orchestrator.Request{}); err == nil {
		t.Fatalf("expected error for empty request")
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{FormID: "missing"}); err == nil {
		t.Fatalf("expected error for unknown form")
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{FormID: "contact", Renderer: "pdf"}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}

	bad := form.Config{ID: "bad", Fields: []form.Field{
		{ID: "a", Type: form.FieldTypeInput, Condition: `ghost == "x"`},
	}}
	if _, err := orch.Generate(ctx, orchestrator.Request{Config: &bad}); err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected condition check error, got %v", err)
	}

	preset, err := orchestrator.NewPresetTransformer([]byte("fields:\n  nope:\n    label: X\n"))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	withPreset := orchestrator.New(orchestrator.WithSchemaTransformer(preset))
	if _, err := withPreset.Resolve(ctx, orchestrator.Request{FormID: "contact"}); err == nil {
		t.Fatalf("expected error for preset targeting unknown field")
	}

	if _, err := orchestrator.NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty preset")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := orch.Generate(canceled, orchestrator.Request{FormID: "contact"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
