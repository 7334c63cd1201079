package formstate

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
)

func TestGenerateHTML(t *testing.T) {
	out, err := GenerateHTML(context.Background(), "contact")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `<form id="form-contact"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestGenerateHTMLFromOpenAPI(t *testing.T) {
	doc := `
openapi: 3.0.3
info: {title: Notes, version: "1"}
paths:
  /notes:
    post:
      operationId: createNote
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                body: {type: string, maxLength: 2000}
      responses:
        "201": {description: created}
`
	fetcher := openapi.Fetcher{FS: fstest.MapFS{"notes.yaml": {Data: []byte(doc)}}}
	out, err := GenerateHTMLFromOpenAPI(context.Background(), "notes.yaml", "createNote", orchestrator.WithFetcher(fetcher))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `<textarea`) {
		t.Fatalf("expected long string to map to a textarea:\n%s", out)
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.ReadFile(EmbeddedTemplates(), "form.html"); err != nil {
		t.Fatalf("expected form template to be readable: %v", err)
	}
}
