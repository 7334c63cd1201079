package openapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/openapi"
)

const signupDoc = `
openapi: 3.0.3
info:
  title: Accounts
  version: 1.0.0
paths:
  /signup:
    post:
      operationId: createAccount
      summary: Create account
      description: Open a new account.
      requestBody:
        content:
          application/json:
            schema:
              type: object
              x-formstate-order: [email, plan, bio]
              required: [email, plan]
              properties:
                email:
                  type: string
                  title: Email
                  format: email
                plan:
                  type: string
                  enum: [free, pro]
                  default: free
                bio:
                  type: string
                  maxLength: 1000
                  description: Tell us about yourself
                age:
                  type: integer
                  default: 18
                newsletter:
                  type: boolean
                  x-formstate-condition: plan == "pro"
                address:
                  type: object
                  properties:
                    city:
                      type: string
                username:
                  type: string
                  minLength: 3
                  maxLength: 20
                  pattern: '[a-z]+'
      responses:
        "201":
          description: created
  /ping:
    get:
      responses:
        "200":
          description: ok
`

func TestImport(t *testing.T) {
	cfg, err := openapi.Import(context.Background(), []byte(signupDoc), "createAccount")
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	plan := form.String("free")
	age := form.String("18")
	want := form.Config{
		ID:          "createAccount",
		Title:       "Create account",
		Description: "Open a new account.",
		Fields: []form.Field{
			{ID: "email", Type: form.FieldTypeInput, Label: "Email", Required: true, Pattern: `[^\s@]+@[^\s@]+\.[^\s@]+`},
			{ID: "plan", Type: form.FieldTypeSelect, Label: "plan", Required: true, Default: &plan, Options: []form.Option{
				{Label: "free", Value: form.String("free")},
				{Label: "pro", Value: form.String("pro")},
			}},
			{ID: "bio", Type: form.FieldTypeTextarea, Label: "bio", Hint: "Tell us about yourself", MaxLength: 1000},
			{ID: "age", Type: form.FieldTypeInput, Label: "age", Pattern: `-?\d+`, Default: &age},
			{ID: "newsletter", Type: form.FieldTypeCheckbox, Label: "newsletter", Condition: `plan == "pro"`},
			{ID: "username", Type: form.FieldTypeInput, Label: "username", MinLength: 3, MaxLength: 20, Pattern: "(?s:.*)(?:[a-z]+)(?s:.*)"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

const patternDoc = `
openapi: 3.0.3
info:
  title: Codes
  version: 1.0.0
paths:
  /codes:
    post:
      operationId: createCode
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                code:
                  type: string
                  pattern: '[0-9]'
                slug:
                  type: string
                  pattern: '^[a-z]+$'
      responses:
        "201":
          description: created
`

func TestImportPatternMatchesAnywhere(t *testing.T) {
	cfg, err := openapi.Import(context.Background(), []byte(patternDoc), "createCode")
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("imported config invalid: %v", err)
	}
	fields := map[string]form.Field{}
	for _, field := range cfg.Fields {
		fields[field.ID] = field
	}

	cases := []struct {
		field string
		value string
		want  string
	}{
		{"code", "abc123", ""},
		{"code", "7", ""},
		{"code", "line\nwith 1 digit", ""},
		{"code", "abc", "code - некорректный формат"},
		{"slug", "hello", ""},
		{"slug", "Hello", "slug - некорректный формат"},
		{"slug", "hello world", "slug - некорректный формат"},
	}
	for _, tc := range cases {
		if got := form.ValidateField(fields[tc.field], form.String(tc.value)); got != tc.want {
			t.Fatalf("%s=%q: got %q, want %q", tc.field, tc.value, got, tc.want)
		}
	}
}

func TestImportByMethodAndPath(t *testing.T) {
	cfg, err := openapi.Import(context.Background(), []byte(signupDoc), "post:/signup", openapi.WithFormID("signup"))
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if cfg.ID != "signup" || len(cfg.Fields) == 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := openapi.Import(ctx, nil, "x"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := openapi.Import(ctx, []byte(signupDoc), "missing"); !errors.Is(err, openapi.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := openapi.Import(ctx, []byte(signupDoc), "get:/ping"); err == nil {
		t.Fatalf("expected error for operation without body")
	}
}

func TestFetcher(t *testing.T) {
	ctx := context.Background()

	data, err := openapi.Fetcher{FS: fstest.MapFS{"api.yaml": {Data: []byte(signupDoc)}}}.Fetch(ctx, "api.yaml")
	if err != nil || string(data) != signupDoc {
		t.Fatalf("fs fetch = %d bytes, %v", len(data), err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(signupDoc))
	}))
	defer server.Close()

	if _, err := (openapi.Fetcher{}).Fetch(ctx, server.URL+"/api.yaml"); err == nil {
		t.Fatalf("expected error without http client")
	}

	fetcher := openapi.Fetcher{Client: server.Client()}
	data, err = fetcher.Fetch(ctx, server.URL+"/api.yaml")
	if err != nil || string(data) != signupDoc {
		t.Fatalf("http fetch = %d bytes, %v", len(data), err)
	}
	if _, err := fetcher.Fetch(ctx, server.URL+"/missing"); err == nil {
		t.Fatalf("expected status error")
	}
}
