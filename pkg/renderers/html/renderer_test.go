package html_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
)

func signupConfig() form.Config {
	return form.Config{
		ID:          "signup",
		Title:       "Sign up",
		Description: `Read the <strong>rules</strong><script>alert(1)</script>`,
		Fields: []form.Field{
			{ID: "email", Type: form.FieldTypeInput, Label: "Email", Required: true, Pattern: `[^@]+@[^@]+`, Placeholder: "you@example.com"},
			{ID: "plan", Type: form.FieldTypeSelect, Label: "Plan", Options: []form.Option{
				{Label: "Free", Value: form.String("free")},
				{Label: "Pro", Value: form.String("pro")},
			}},
			{ID: "seats", Type: form.FieldTypeInput, Label: "Seats", Condition: `plan == "pro"`},
			{ID: "bio", Type: form.FieldTypeTextarea, Label: "Bio", MaxLength: 200, Hint: `<em>short</em> <img src=x onerror=alert(1)>`},
			{ID: "terms", Type: form.FieldTypeCheckbox, Label: "Terms", Required: true, Attributes: map[string]string{"data-track": "terms", "bad attr": "x"}},
		},
	}
}

func renderSignup(t *testing.T, reg *registry.Registry, opts render.Options) string {
	t.Helper()
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	view, err := render.NewView(reg, "signup", nil)
	if err != nil {
		t.Fatalf("NewView returned error: %v", err)
	}
	out, err := renderer.Render(context.Background(), view, opts)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	return string(out)
}

func TestRenderForm(t *testing.T) {
	reg := registry.New()
	reg.InitializeForm(signupConfig(), form.Values{"bio": form.String("<b>hi</b>")})
	reg.SetFieldValue("signup", "terms", form.Bool(true))

	out := renderSignup(t, reg, render.Options{Action: "/signup"}.WithHidden(render.CSRFToken("_csrf", "tok")))

	wants := []string{
		`<form id="form-signup"`,
		`action="/signup"`,
		`method="post"`,
		`<h2 class="form-generator__title">Sign up</h2>`,
		`Read the <strong>rules</strong>`,
		`<input type="hidden" name="_csrf" value="tok">`,
		`id="signup-email" name="email" value=""`,
		`placeholder="you@example.com"`,
		`<option value="free" selected>Free</option>`,
		`<option value="pro">Pro</option>`,
		`maxlength="200"`,
		`&lt;b&gt;hi&lt;/b&gt;</textarea>`,
		`<em>short</em>`,
		`value="true" checked required`,
		`data-track="terms"`,
		`<button type="submit">Отправить</button>`,
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	for _, unwanted := range []string{"<script>", "onerror", `name="seats"`, "bad attr", "form-field__error"} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("output should not contain %q:\n%s", unwanted, out)
		}
	}
}

func TestRenderDropsScriptableAttributes(t *testing.T) {
	cfg := signupConfig()
	cfg.Fields[0].Attributes = map[string]string{
		"autofocus":  "",
		"onfocus":    "alert(document.cookie)",
		"OnClick":    "alert(1)",
		"style":      "background:url(javascript:alert(1))",
		"formaction": "javascript:alert(1)",
		"data-role":  "primary",
	}
	reg := registry.New()
	reg.InitializeForm(cfg, nil)

	out := renderSignup(t, reg, render.Options{})

	for _, want := range []string{"autofocus", `data-role="primary"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	lower := strings.ToLower(out)
	for _, unwanted := range []string{"onfocus", "onclick", "style=", "formaction", "javascript:", "document.cookie"} {
		if strings.Contains(lower, unwanted) {
			t.Fatalf("output should not contain %q:\n%s", unwanted, out)
		}
	}
}

func TestRenderConditionalField(t *testing.T) {
	reg := registry.New()
	reg.InitializeForm(signupConfig(), nil)
	reg.SetFieldValue("signup", "plan", form.String("pro"))

	out := renderSignup(t, reg, render.Options{})
	if !strings.Contains(out, `name="seats"`) {
		t.Fatalf("seats should be visible for pro plan:\n%s", out)
	}
	if !strings.Contains(out, `<option value="pro" selected>Pro</option>`) {
		t.Fatalf("pro option should be selected:\n%s", out)
	}
}

func TestRenderErrors(t *testing.T) {
	reg := registry.New()
	reg.InitializeForm(signupConfig(), nil)
	reg.ValidateForm("signup")
	reg.TouchField("signup", "email")

	out := renderSignup(t, reg, render.Options{})
	if !strings.Contains(out, `role="alert">Email - обязательное поле</p>`) {
		t.Fatalf("touched error missing:\n%s", out)
	}
	if strings.Contains(out, "Terms - обязательное поле") {
		t.Fatalf("untouched error should be hidden:\n%s", out)
	}
	if !strings.Contains(out, "form-generator--invalid") {
		t.Fatalf("invalid marker missing")
	}

	out = renderSignup(t, reg, render.Options{ShowAllErrors: true})
	if !strings.Contains(out, "Terms - обязательное поле") {
		t.Fatalf("ShowAllErrors should reveal every error:\n%s", out)
	}
}

func TestCustomTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"mini.html": {Data: []byte(`{{ form.id }}:{% for f in fields %}{{ f.id }}={{ f.value }};{% endfor %}`)},
	}
	renderer, err := html.New(html.WithTemplateFS(fsys, "mini.html"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	reg := registry.New()
	reg.InitializeForm(form.Config{ID: "tiny", Fields: []form.Field{{ID: "a", Type: form.FieldTypeInput}}}, form.Values{"a": form.String("x")})
	view, _ := render.NewView(reg, "tiny", nil)

	out, err := renderer.Render(context.Background(), view, render.Options{})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if got := string(out); got != "tiny:a=x;" {
		t.Fatalf("custom template output = %q", got)
	}
}

func TestMissingTemplate(t *testing.T) {
	if _, err := html.New(html.WithTemplateFS(fstest.MapFS{}, "nope.html")); err == nil {
		t.Fatalf("expected error for missing template")
	}
}
