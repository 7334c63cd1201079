package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Transformer mutates a resolved config before it is checked and loaded into
// the registry. Implementations can relabel fields, tighten rules or perform
// arbitrary rewrites.
type Transformer interface {
	Transform(ctx context.Context, cfg *form.Config) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, cfg *form.Config) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, cfg *form.Config) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, cfg)
}

// PresetTransformer applies declarative overrides loaded from a JSON or YAML
// document. The shape supports form-level text and per-field patches:
//
//	title: Sign up
//	submitLabel: Continue
//	fields:
//	  email:
//	    label: Work email
//	    required: true
//	    errorMessage: Use your company address
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	SubmitLabel string                `yaml:"submitLabel"`
	CancelLabel string                `yaml:"cancelLabel"`
	Fields      map[string]fieldPatch `yaml:"fields"`
}

type fieldPatch struct {
	Label        string            `yaml:"label"`
	Hint         string            `yaml:"hint"`
	Placeholder  string            `yaml:"placeholder"`
	ErrorMessage string            `yaml:"errorMessage"`
	Condition    string            `yaml:"condition"`
	Required     *bool             `yaml:"required"`
	Disabled     *bool             `yaml:"disabled"`
	MinLength    *int              `yaml:"minLength"`
	MaxLength    *int              `yaml:"maxLength"`
	Pattern      *string           `yaml:"pattern"`
	Attributes   map[string]string `yaml:"attributes"`
}

// NewPresetTransformer constructs a transformer from raw JSON or YAML bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches onto cfg. Patching a field the form does not
// have is an error.
func (t *PresetTransformer) Transform(ctx context.Context, cfg *form.Config) error {
	if cfg == nil {
		return errors.New("preset transformer: config is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := t.document
	if doc.Title != "" {
		cfg.Title = doc.Title
	}
	if doc.Description != "" {
		cfg.Description = doc.Description
	}
	if doc.SubmitLabel != "" {
		cfg.SubmitLabel = doc.SubmitLabel
	}
	if doc.CancelLabel != "" {
		cfg.CancelLabel = doc.CancelLabel
	}

	for id, patch := range doc.Fields {
		field := findField(cfg.Fields, id)
		if field == nil {
			return fmt.Errorf("preset transformer: field %q not found", id)
		}
		applyFieldPatch(field, patch)
	}
	return nil
}

func applyFieldPatch(field *form.Field, patch fieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Hint != "" {
		field.Hint = patch.Hint
	}
	if patch.Placeholder != "" {
		field.Placeholder = patch.Placeholder
	}
	if patch.ErrorMessage != "" {
		field.ErrorMessage = patch.ErrorMessage
	}
	if patch.Condition != "" {
		field.Condition = patch.Condition
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Disabled != nil {
		field.Disabled = *patch.Disabled
	}
	if patch.MinLength != nil {
		field.MinLength = *patch.MinLength
	}
	if patch.MaxLength != nil {
		field.MaxLength = *patch.MaxLength
	}
	if patch.Pattern != nil {
		field.Pattern = *patch.Pattern
	}
	if len(patch.Attributes) > 0 {
		field.Attributes = mergeStringMap(field.Attributes, patch.Attributes)
	}
}

func findField(fields []form.Field, id string) *form.Field {
	for idx := range fields {
		if fields[idx].ID == id {
			return &fields[idx]
		}
	}
	return nil
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
