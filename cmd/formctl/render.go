package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
)

type renderOptions struct {
	renderer  string
	openAPI   string
	operation string
	preset    string
	set       []string
	extras    []string
	submit    bool
	action    string
	method    string
	showAll   bool
	outFile   string
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render [formID]",
		Short: "Render a form as HTML or JSON",
		Long: `render resolves a form from the catalog or from an OpenAPI operation,
applies --set values through the form registry and prints the rendered form.
With --submit the form is submitted first and every error is shown when it
fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := orchestrator.Request{
				Renderer: opts.renderer,
				Submit:   opts.submit,
				RenderOptions: render.Options{
					Action:        opts.action,
					Method:        opts.method,
					ShowAllErrors: opts.showAll,
				},
			}
			if len(args) == 1 {
				req.FormID = args[0]
			}
			if opts.openAPI != "" {
				if opts.operation == "" {
					return fmt.Errorf("--operation is required with --openapi")
				}
				req.OpenAPI = &orchestrator.OpenAPISource{Location: opts.openAPI, OperationID: opts.operation}
			} else if req.FormID == "" {
				return fmt.Errorf("a form id or --openapi is required")
			}

			values, err := parseAssignments(opts.set)
			if err != nil {
				return err
			}
			req.Values = values
			if req.Extras, err = parseExtras(opts.extras); err != nil {
				return err
			}

			catalog, err := root.loadCatalog()
			if err != nil {
				return err
			}
			renderers, err := root.renderers()
			if err != nil {
				return err
			}
			options := []orchestrator.Option{
				orchestrator.WithCatalog(schema.Static{Catalog: catalog}),
				orchestrator.WithRenderers(renderers),
				orchestrator.WithCheckOptions(root.checkOptions()...),
				orchestrator.WithFetcher(openapi.Fetcher{Client: &http.Client{Timeout: 30 * time.Second}}),
				orchestrator.WithLogger(root.logger),
			}
			if opts.preset != "" {
				preset, err := orchestrator.NewPresetTransformerFromFS(os.DirFS("."), opts.preset)
				if err != nil {
					return err
				}
				options = append(options, orchestrator.WithSchemaTransformer(preset))
			}

			result, err := orchestrator.New(options...).Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.submit && !result.Submitted {
				root.logger.Warn().Str("form_id", result.State.FormID).Msg("submit failed, rendering errors")
			}
			return writeOutput(cmd, opts.outFile, result.Output)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.renderer, "renderer", "r", "html", "Renderer name (html, json)")
	flags.StringVar(&opts.openAPI, "openapi", "", "OpenAPI document path or URL to import the form from")
	flags.StringVar(&opts.operation, "operation", "", "OpenAPI operationId or method:/path")
	flags.StringVar(&opts.preset, "preset", "", "YAML/JSON preset applied to the resolved form")
	flags.StringArrayVar(&opts.set, "set", nil, "Field value as field=value (repeatable)")
	flags.StringArrayVar(&opts.extras, "extra", nil, "Condition extras as key=value (repeatable)")
	flags.BoolVar(&opts.submit, "submit", false, "Submit the form before rendering")
	flags.StringVar(&opts.action, "action", "", "Form action URL")
	flags.StringVar(&opts.method, "method", "", "Form method")
	flags.BoolVar(&opts.showAll, "show-all", false, "Show errors of untouched fields")
	flags.StringVarP(&opts.outFile, "output", "o", "", "Write the output to a file instead of stdout")
	return cmd
}
