package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// ErrUnknownForm is returned when a view is requested for a form id the
// registry does not hold. ErrUnknownRenderer wraps lookups of unregistered
// renderer names.
var (
	ErrUnknownForm     = errors.New("render: unknown form")
	ErrUnknownRenderer = errors.New("render: unknown renderer")
)

// Renderer turns a View into a byte representation (HTML, JSON, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options Options) ([]byte, error)
}

// View is everything a renderer needs: the schema, a state snapshot and the
// extra context conditions may read.
type View struct {
	Config form.Config
	State  registry.State
	Extras map[string]any
}

// NewView snapshots formID from reg.
func NewView(reg *registry.Registry, formID string, extras map[string]any) (View, error) {
	cfg, ok := reg.Config(formID)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}
	state, ok := reg.State(formID)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}
	return View{Config: cfg, State: state, Extras: extras}, nil
}

// VisibilityContext exposes the view to condition evaluators.
func (v View) VisibilityContext() visibility.Context {
	return visibility.Context{Values: v.State.Values, Extras: v.Extras}
}

// VisibleFields filters the schema through eval.
func (v View) VisibleFields(eval visibility.Evaluator) ([]form.Field, error) {
	return visibility.Filter(eval, v.Config.Fields, v.VisibilityContext())
}

// FieldError returns the message to display for fieldID. Unless showAll is
// set, errors of untouched fields stay hidden.
func (v View) FieldError(fieldID string, showAll bool) string {
	msg := v.State.Errors[fieldID]
	if msg == "" {
		return ""
	}
	if showAll || v.State.IsTouched(fieldID) {
		return msg
	}
	return ""
}
