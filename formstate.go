package formstate

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
)

// RenderOptions aliases render.Options for callers of the root package.
type RenderOptions = render.Options

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders the catalog form formID as HTML. It is the simplest
// entry point for callers that just want markup for one of the bundled or
// configured schemas.
func GenerateHTML(ctx context.Context, formID string, options ...orchestrator.Option) ([]byte, error) {
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		FormID:   formID,
		Renderer: "html",
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// GenerateHTMLFromOpenAPI imports operationID from the OpenAPI document at
// location and renders it as HTML.
func GenerateHTMLFromOpenAPI(ctx context.Context, location, operationID string, options ...orchestrator.Option) ([]byte, error) {
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		OpenAPI:  &orchestrator.OpenAPISource{Location: location, OperationID: operationID},
		Renderer: "html",
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
