package html

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const (
	defaultTemplate    = "form.html"
	defaultSubmitLabel = "Отправить"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// textSanitizer allows the inline markup authors reasonably put in
// descriptions and hints, nothing else.
func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("b", "strong", "i", "em", "code", "br", "p", "ul", "ol", "li", "span")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowElements("a")
		policy.RequireNoFollowOnLinks(true)
		policy.AllowStandardURLs()
		policy.AllowAttrs("class").Globally()
		textPolicy = policy
	})
	return textPolicy
}

// Renderer produces an HTML <form> from a View using a pongo2 template.
type Renderer struct {
	templates   fs.FS
	name        string
	evaluator   visibility.Evaluator
	sanitizer   *bluemonday.Policy
	submitLabel string

	tpl *pongo2.Template
}

// Option configures the renderer.
type Option func(*Renderer)

// WithTemplateFS renders with the template called name inside fsys instead of
// the embedded default.
func WithTemplateFS(fsys fs.FS, name string) Option {
	return func(r *Renderer) {
		r.templates = fsys
		if strings.TrimSpace(name) != "" {
			r.name = name
		}
	}
}

// WithEvaluator replaces the condition evaluator (expr by default).
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(r *Renderer) {
		r.evaluator = eval
	}
}

// WithSanitizer replaces the policy applied to descriptions and hints.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(r *Renderer) {
		if policy != nil {
			r.sanitizer = policy
		}
	}
}

// WithSubmitLabel sets the button text used when a form defines none.
func WithSubmitLabel(label string) Option {
	return func(r *Renderer) {
		r.submitLabel = label
	}
}

// TemplatesFS exposes the built-in templates so callers can copy or extend
// them and pass the result back through WithTemplateFS.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// New parses the template up front so rendering never fails on syntax.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		templates:   TemplatesFS(),
		name:        defaultTemplate,
		evaluator:   expr.New(),
		sanitizer:   textSanitizer(),
		submitLabel: defaultSubmitLabel,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	set := pongo2.NewSet("formstate-html", pongo2.NewFSLoader(r.templates))
	tpl, err := set.FromFile(r.name)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", r.name, err)
	}
	r.tpl = tpl
	return r, nil
}

func (r *Renderer) Name() string        { return "html" }
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *Renderer) Render(ctx context.Context, view render.View, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := view.VisibleFields(r.evaluator)
	if err != nil {
		return nil, err
	}

	data := pongo2.Context{
		"form":   r.formData(view, options),
		"fields": r.fieldsData(view, fields, options.ShowAllErrors),
	}

	var buf bytes.Buffer
	if err := r.tpl.ExecuteWriter(data, &buf); err != nil {
		return nil, fmt.Errorf("html: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) formData(view render.View, options render.Options) map[string]any {
	cfg := view.Config
	method := strings.ToLower(strings.TrimSpace(options.Method))
	if method == "" {
		method = "post"
	}
	submit := cfg.SubmitLabel
	if submit == "" {
		submit = r.submitLabel
	}

	hidden := make([]map[string]any, 0, len(options.Hidden))
	for _, field := range options.HiddenFields() {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	return map[string]any{
		"id":          cfg.ID,
		"title":       cfg.Title,
		"description": r.sanitize(cfg.Description),
		"submitLabel": submit,
		"cancelLabel": cfg.CancelLabel,
		"action":      options.Action,
		"method":      method,
		"hidden":      hidden,
		"valid":       view.State.Valid,
		"submitting":  view.State.Submitting,
	}
}

func (r *Renderer) fieldsData(view render.View, fields []form.Field, showAll bool) []map[string]any {
	out := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		current := view.State.Values.Get(field.ID)

		entry := map[string]any{
			"id":          field.ID,
			"domId":       view.Config.ID + "-" + field.ID,
			"type":        string(field.Type),
			"label":       field.DisplayLabel(),
			"required":    field.Required,
			"disabled":    field.Disabled,
			"placeholder": field.Placeholder,
			"pattern":     field.Pattern,
			"minLength":   field.MinLength,
			"maxLength":   field.MaxLength,
			"className":   field.ClassName,
			"hint":        r.sanitize(field.Hint),
			"value":       current.String(),
			"checked":     current.Truthy(),
			"error":       view.FieldError(field.ID, showAll),
			"attributes":  attributes(field.Attributes),
		}
		if field.Type == form.FieldTypeSelect {
			entry["options"] = selectOptions(field.Options, current)
		}
		out = append(out, entry)
	}
	return out
}

func (r *Renderer) sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(r.sanitizer.Sanitize(trimmed))
}

func selectOptions(opts []form.Option, current form.Value) []map[string]any {
	out := make([]map[string]any, 0, len(opts))
	for _, opt := range opts {
		out = append(out, map[string]any{
			"label":    opt.Label,
			"value":    opt.Value.String(),
			"selected": opt.Value.Equal(current) || (!current.IsNull() && opt.Value.String() == current.String()),
			"disabled": opt.Disabled,
		})
	}
	return out
}

func attributes(attrs map[string]string) []map[string]any {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		if validAttrName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]any{"name": name, "value": attrs[name]})
	}
	return out
}

// unsafeAttrs carry script or URLs the browser will follow, so schema authors
// cannot set them. Event handlers (on*) are rejected separately.
var unsafeAttrs = map[string]struct{}{
	"style":      {},
	"srcdoc":     {},
	"href":       {},
	"src":        {},
	"action":     {},
	"formaction": {},
	"xlink:href": {},
	"background": {},
	"poster":     {},
	"data":       {},
	"codebase":   {},
}

func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "on") {
		return false
	}
	if _, blocked := unsafeAttrs[lower]; blocked {
		return false
	}
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == ':':
		default:
			return false
		}
	}
	return true
}
