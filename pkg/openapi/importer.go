package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
)

const (
	// OrderExtension lists property names in display order on the request
	// body schema.
	OrderExtension = "x-formstate-order"
	// ConditionExtension carries a visibility condition on a property.
	ConditionExtension = "x-formstate-condition"

	textareaThreshold = 255
	integerPattern    = `-?\d+`
	numberPattern     = `-?\d+(\.\d+)?`
)

// ErrOperationNotFound is returned when no operation matches the requested id.
var ErrOperationNotFound = errors.New("openapi: operation not found")

type importOptions struct {
	formID       string
	externalRefs bool
	validate     bool
	logger       zerolog.Logger
}

// Option configures Import.
type Option func(*importOptions)

// WithFormID overrides the id of the generated form (operation id by default).
func WithFormID(id string) Option {
	return func(o *importOptions) {
		o.formID = id
	}
}

// WithExternalRefs lets the loader follow references outside the document.
func WithExternalRefs(allowed bool) Option {
	return func(o *importOptions) {
		o.externalRefs = allowed
	}
}

// WithValidation runs kin-openapi document validation before mapping.
func WithValidation() Option {
	return func(o *importOptions) {
		o.validate = true
	}
}

// WithLogger reports skipped properties.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *importOptions) {
		o.logger = logger
	}
}

// Import builds a form config from the JSON request body of operationID.
// The operation may be named by its operationId or as "method:/path".
func Import(ctx context.Context, data []byte, operationID string, options ...Option) (form.Config, error) {
	opts := importOptions{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	if len(data) == 0 {
		return form.Config{}, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: opts.externalRefs,
	}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return form.Config{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return form.Config{}, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	op := findOperation(doc, operationID)
	if op == nil {
		return form.Config{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(op.RequestBody)
	if body == nil {
		return form.Config{}, fmt.Errorf("openapi: operation %q has no JSON request body schema", operationID)
	}

	cfg := form.Config{
		ID:          opts.formID,
		Title:       op.Summary,
		Description: op.Description,
	}
	if cfg.ID == "" {
		cfg.ID = operationID
	}
	if cfg.Title == "" {
		cfg.Title = body.Title
	}

	required := make(map[string]struct{}, len(body.Required))
	for _, name := range body.Required {
		required[name] = struct{}{}
	}

	for _, name := range propertyOrder(body) {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, ok := mapProperty(name, ref.Value)
		if !ok {
			opts.logger.Debug().Str("operation", operationID).Str("property", name).Msg("skipping unsupported property")
			continue
		}
		_, field.Required = required[name]
		cfg.Fields = append(cfg.Fields, field)
	}

	if err := cfg.Validate(); err != nil {
		return form.Config{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}
	return cfg, nil
}

func findOperation(doc *openapi3.T, id string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	paths := doc.Paths.Map()
	names := make([]string, 0, len(paths))
	for path := range paths {
		names = append(names, path)
	}
	sort.Strings(names)

	for _, path := range names {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			if op.OperationID == id || strings.ToLower(method)+":"+path == strings.ToLower(id) {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := body.Value.Content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func propertyOrder(schema *openapi3.Schema) []string {
	var ordered []string
	seen := make(map[string]struct{}, len(schema.Properties))
	if raw, ok := schema.Extensions[OrderExtension].([]any); ok {
		for _, item := range raw {
			name, ok := item.(string)
			if !ok {
				continue
			}
			if _, exists := schema.Properties[name]; !exists {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			ordered = append(ordered, name)
		}
	}

	rest := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func mapProperty(name string, src *openapi3.Schema) (form.Field, bool) {
	field := form.Field{
		ID:    name,
		Type:  form.FieldTypeInput,
		Label: src.Title,
		Hint:  src.Description,
	}
	if field.Label == "" {
		field.Label = name
	}
	if condition, ok := src.Extensions[ConditionExtension].(string); ok {
		field.Condition = condition
	}

	typ := schemaType(src.Type)
	switch {
	case typ == "object":
		return form.Field{}, false
	case len(src.Enum) > 0:
		field.Type = form.FieldTypeSelect
		for _, raw := range src.Enum {
			value, err := form.FromAny(raw)
			if err != nil {
				continue
			}
			field.Options = append(field.Options, form.Option{Label: value.String(), Value: value})
		}
		if len(field.Options) == 0 {
			return form.Field{}, false
		}
	case typ == "boolean":
		field.Type = form.FieldTypeCheckbox
	case typ == "integer":
		field.Pattern = integerPattern
	case typ == "number":
		field.Pattern = numberPattern
	case src.Format == "textarea" || (src.MaxLength != nil && *src.MaxLength > textareaThreshold):
		field.Type = form.FieldTypeTextarea
	}

	if typ == "string" || typ == "" {
		if src.Pattern != "" {
			field.Pattern = searchPattern(src.Pattern)
		}
		field.MinLength = int(src.MinLength)
		if src.MaxLength != nil {
			field.MaxLength = int(*src.MaxLength)
		}
		if src.Format == "email" && field.Pattern == "" {
			field.Pattern = `[^\s@]+@[^\s@]+\.[^\s@]+`
		}
	}

	if src.Default != nil {
		if value, err := form.FromAny(src.Default); err == nil {
			if field.Type == form.FieldTypeInput && value.Kind() == form.KindNumber {
				value = form.String(value.String())
			}
			field.Default = &value
		}
	}
	return field, true
}

func schemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, typ := range types.Slice() {
		if typ != "null" {
			return typ
		}
	}
	return ""
}

// searchPattern turns a schema pattern, which matches anywhere in the value,
// into one that holds under the full-match anchoring fields apply. Anchors in
// the source keep their meaning since ^ and $ still bind to the text edges.
func searchPattern(pattern string) string {
	return `(?s:.*)(?:` + pattern + `)(?s:.*)`
}
