package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/schema"
)

type importOptions struct {
	formID       string
	format       string
	outFile      string
	externalRefs bool
	validate     bool
	timeout      time.Duration
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <location> <operation>",
		Short: "Convert an OpenAPI operation into a form schema",
		Long: `import reads an OpenAPI 3 document from a path or URL and writes the
request body of the named operation (operationId or method:/path) as a form
schema that the catalog can load.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := openapi.Fetcher{Client: &http.Client{Timeout: opts.timeout}}
			data, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			options := []openapi.Option{openapi.WithLogger(root.logger)}
			if opts.formID != "" {
				options = append(options, openapi.WithFormID(opts.formID))
			}
			if opts.externalRefs {
				options = append(options, openapi.WithExternalRefs(true))
			}
			if opts.validate {
				options = append(options, openapi.WithValidation())
			}
			cfg, err := openapi.Import(cmd.Context(), data, args[1], options...)
			if err != nil {
				return err
			}
			if err := schema.Check(cfg, args[0], root.checkOptions()...); err != nil {
				return err
			}

			var out []byte
			switch opts.format {
			case "yaml", "yml":
				out, err = yaml.Marshal(cfg)
			case "json":
				out, err = json.MarshalIndent(cfg, "", "  ")
			default:
				return fmt.Errorf("unknown format %q", opts.format)
			}
			if err != nil {
				return fmt.Errorf("encode form: %w", err)
			}
			return writeOutput(cmd, opts.outFile, out)
		},
	}

	cmd.Flags().StringVar(&opts.formID, "form-id", "", "Form id (defaults to the operation id)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "yaml", "Output format (yaml, json)")
	cmd.Flags().StringVarP(&opts.outFile, "output", "o", "", "Write the schema to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.externalRefs, "external-refs", false, "Allow $ref to other documents")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate the OpenAPI document before importing")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP fetch timeout")
	return cmd
}
