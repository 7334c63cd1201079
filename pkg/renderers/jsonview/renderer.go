package jsonview

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

// Renderer emits the view as a JSON document for API clients.
type Renderer struct {
	evaluator visibility.Evaluator
	indent    bool
}

// Option configures the renderer.
type Option func(*Renderer)

// WithEvaluator replaces the condition evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(r *Renderer) {
		r.evaluator = eval
	}
}

// WithIndent pretty-prints the output.
func WithIndent() Option {
	return func(r *Renderer) {
		r.indent = true
	}
}

func New(options ...Option) *Renderer {
	r := &Renderer{evaluator: expr.New()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string        { return "json" }
func (r *Renderer) ContentType() string { return "application/json" }

type document struct {
	Form    form.Config    `json:"form"`
	State   registry.State `json:"state"`
	Visible []string       `json:"visible"`
	Shown   form.Errors    `json:"shownErrors"`
}

func (r *Renderer) Render(ctx context.Context, view render.View, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := view.VisibleFields(r.evaluator)
	if err != nil {
		return nil, err
	}

	doc := document{
		Form:    view.Config,
		State:   view.State,
		Visible: make([]string, 0, len(fields)),
		Shown:   form.Errors{},
	}
	for _, field := range fields {
		doc.Visible = append(doc.Visible, field.ID)
		if msg := view.FieldError(field.ID, options.ShowAllErrors); msg != "" {
			doc.Shown[field.ID] = msg
		}
	}

	var out []byte
	if r.indent {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("jsonview: encode: %w", err)
	}
	return out, nil
}
