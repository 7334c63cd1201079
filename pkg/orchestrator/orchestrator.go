package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
	"github.com/goliatone/go-formstate/pkg/renderers/jsonview"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithCatalog supplies the schemas requests can name by id. The embedded
// demo catalog is used otherwise.
func WithCatalog(source schema.Source) Option {
	return func(o *Orchestrator) {
		o.catalog = source
	}
}

// WithFetcher configures how OpenAPI documents are read.
func WithFetcher(fetcher openapi.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithFormRegistry makes Generate operate on an existing registry instead of
// a private one.
func WithFormRegistry(reg *registry.Registry) Option {
	return func(o *Orchestrator) {
		o.forms = reg
	}
}

// WithRenderers injects a renderer registry.
func WithRenderers(renderers *render.Registry) Option {
	return func(o *Orchestrator) {
		o.renderers = renderers
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that can rewrite configs
// after they are resolved and before they are checked.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithCheckOptions configures how resolved configs are checked, e.g. with a
// different condition language.
func WithCheckOptions(options ...schema.CheckOption) Option {
	return func(o *Orchestrator) {
		o.checkOptions = append(o.checkOptions, options...)
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates the full pipeline from a schema to rendered
// output. Missing dependencies fall back to the built-in implementations
// (embedded catalog, html + json renderers, a private registry).
type Orchestrator struct {
	catalog         schema.Source
	fetcher         openapi.Fetcher
	forms           *registry.Registry
	renderers       *render.Registry
	defaultRenderer string
	transformers    []Transformer
	checkOptions    []schema.CheckOption
	logger          zerolog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// OpenAPISource points at an OpenAPI operation to import.
type OpenAPISource struct {
	// Location is a file path, fs path or http(s) URL resolved by the Fetcher.
	Location string
	// OperationID is an operationId or "method:/path".
	OperationID string
	// ExternalRefs permits $ref to other documents.
	ExternalRefs bool
}

// Request describes the inputs required to produce a form.
type Request struct {
	// FormID names a catalog entry. With Config or OpenAPI set it overrides
	// the resulting form id instead.
	FormID string

	// Config bypasses the catalog with an inline schema.
	Config *form.Config

	// OpenAPI imports the schema from an OpenAPI operation.
	OpenAPI *OpenAPISource

	// Values are written field by field (normalized, validated and touched)
	// after the instance is initialized, in schema order.
	Values form.Values

	// Submit runs SubmitForm after Values are applied. A failed submit makes
	// every error visible in the rendered output.
	Submit bool

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// RenderOptions carries per-request presentation settings.
	RenderOptions render.Options

	// Extras feeds the `extras.` namespace of conditions.
	Extras map[string]any
}

// Result is what Generate produced.
type Result struct {
	Output      []byte
	ContentType string
	State       registry.State
	Submitted   bool
}

// Registry returns the form registry Generate writes to.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.forms
}

// Resolve returns the checked config a request refers to without touching
// the registry.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (form.Config, error) {
	if ctx == nil {
		return form.Config{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return form.Config{}, err
	}
	if err := o.initialiseErr; err != nil {
		return form.Config{}, err
	}

	cfg, source, err := o.resolveConfig(ctx, req)
	if err != nil {
		return form.Config{}, err
	}
	for _, t := range o.transformers {
		if err := t.Transform(ctx, &cfg); err != nil {
			return form.Config{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	if err := schema.Check(cfg, source, o.checkOptions...); err != nil {
		return form.Config{}, fmt.Errorf("orchestrator: %w", err)
	}
	return cfg, nil
}

// Generate executes the resolve → initialize → apply values → render
// sequence.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	cfg, err := o.Resolve(ctx, req)
	if err != nil {
		return Result{}, err
	}

	o.forms.InitializeForm(cfg, nil)
	for _, field := range cfg.Fields {
		value, ok := req.Values[field.ID]
		if !ok {
			continue
		}
		o.forms.SetFieldValue(cfg.ID, field.ID, form.Normalize(field.Type, value))
		o.forms.TouchField(cfg.ID, field.ID)
	}

	opts := req.RenderOptions
	submitted := false
	if req.Submit {
		submitted = o.forms.SubmitForm(cfg.ID)
		if !submitted {
			opts.ShowAllErrors = true
		}
	}

	view, err := render.NewView(o.forms, cfg.ID, req.Extras)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: %w", err)
	}

	name := o.rendererFor(req.Renderer)
	output, contentType, err := o.renderers.Render(ctx, name, view, opts)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: render output: %w", err)
	}

	o.logger.Debug().
		Str("form_id", cfg.ID).
		Str("renderer", name).
		Bool("submitted", submitted).
		Msg("form generated")

	return Result{
		Output:      output,
		ContentType: contentType,
		State:       view.State,
		Submitted:   submitted,
	}, nil
}

func (o *Orchestrator) resolveConfig(ctx context.Context, req Request) (form.Config, string, error) {
	switch {
	case req.Config != nil:
		cfg := req.Config.Clone()
		if req.FormID != "" {
			cfg.ID = req.FormID
		}
		return cfg, "inline config", nil

	case req.OpenAPI != nil:
		src := req.OpenAPI
		if strings.TrimSpace(src.OperationID) == "" {
			return form.Config{}, "", errors.New("orchestrator: operation id is required")
		}
		data, err := o.fetcher.Fetch(ctx, src.Location)
		if err != nil {
			return form.Config{}, "", fmt.Errorf("orchestrator: load document: %w", err)
		}
		options := []openapi.Option{openapi.WithLogger(o.logger)}
		if req.FormID != "" {
			options = append(options, openapi.WithFormID(req.FormID))
		}
		if src.ExternalRefs {
			options = append(options, openapi.WithExternalRefs(true))
		}
		cfg, err := openapi.Import(ctx, data, src.OperationID, options...)
		if err != nil {
			return form.Config{}, "", fmt.Errorf("orchestrator: import %s: %w", src.Location, err)
		}
		return cfg, src.Location, nil

	default:
		if strings.TrimSpace(req.FormID) == "" {
			return form.Config{}, "", errors.New("orchestrator: form id, config or openapi source is required")
		}
		catalog := o.catalog.Get()
		cfg, ok := catalog.Form(req.FormID)
		if !ok {
			return form.Config{}, "", fmt.Errorf("orchestrator: form %q not found", req.FormID)
		}
		return cfg, catalog.Source(req.FormID), nil
	}
}

func (o *Orchestrator) rendererFor(name string) string {
	if name != "" {
		return name
	}
	if o.defaultRenderer != "" {
		return o.defaultRenderer
	}
	if names := o.renderers.List(); len(names) > 0 {
		return names[0]
	}
	return defaultRendererName
}

func (o *Orchestrator) applyDefaults() {
	if o.forms == nil {
		o.forms = registry.New(registry.WithLogger(o.logger))
	}
	if o.catalog == nil {
		catalog, err := schema.Embedded()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load embedded catalog: %w", err)
		}
		o.catalog = schema.Static{Catalog: catalog}
	}
	if o.renderers == nil {
		o.renderers = render.NewRegistry(jsonview.New())
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.renderers.MustRegister(renderer)
		}
	}
}
