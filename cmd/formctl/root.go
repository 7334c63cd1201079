package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
	"github.com/goliatone/go-formstate/pkg/renderers/jsonview"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
	"github.com/goliatone/go-formstate/pkg/visibility/exprlang"
)

const (
	conditionsNative = "native"
	conditionsExpr   = "expr"
)

type rootOptions struct {
	schemaDir  string
	logLevel   string
	logFormat  string
	conditions string

	logger zerolog.Logger
}

// newRootCmd assembles the command tree. Commands write to cmd.OutOrStdout
// so tests can capture output.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "formctl",
		Short: "formctl loads, fills, renders and serves declarative forms",
		Long: `formctl works with JSON/YAML form schemas: it lists and checks them,
fills them interactively in the terminal, renders them as HTML or JSON and
hosts them over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.conditions {
			case conditionsNative, conditionsExpr:
			default:
				return fmt.Errorf("unknown condition language %q", opts.conditions)
			}
			logger, err := logging.New(logging.Config{
				Level:  opts.logLevel,
				Format: opts.logFormat,
				Out:    cmd.ErrOrStderr(),
			}.FromEnv())
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.schemaDir, "schemas", "s", "", "Directory of form schemas (bundled demo forms when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (console, json)")
	root.PersistentFlags().StringVar(&opts.conditions, "conditions", conditionsNative, "Condition language (native, expr)")

	root.AddCommand(
		newFormsCmd(opts),
		newCheckCmd(opts),
		newFillCmd(opts),
		newRenderCmd(opts),
		newServeCmd(opts),
		newImportCmd(opts),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) loadCatalog() (*schema.Catalog, error) {
	if o.schemaDir == "" {
		return schema.Embedded()
	}
	return schema.LoadFS(os.DirFS(o.schemaDir), o.checkOptions()...)
}

// evaluator returns the condition evaluator matching --conditions.
func (o *rootOptions) evaluator() visibility.Evaluator {
	if o.conditions == conditionsExpr {
		return exprlang.New()
	}
	return expr.New()
}

func (o *rootOptions) checkOptions() []schema.CheckOption {
	if o.conditions == conditionsExpr {
		return []schema.CheckOption{schema.WithConditionLanguage(exprlang.Identifiers)}
	}
	return nil
}

// renderers builds the html and json renderers around the selected
// evaluator.
func (o *rootOptions) renderers() (*render.Registry, error) {
	eval := o.evaluator()
	htmlRenderer, err := html.New(html.WithEvaluator(eval))
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(htmlRenderer, jsonview.New(jsonview.WithEvaluator(eval))), nil
}

// parseAssignments turns field=value pairs into values. The right-hand side
// is read as a YAML scalar so numbers and booleans keep their type.
func parseAssignments(pairs []string) (form.Values, error) {
	values := make(form.Values, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid assignment %q, want field=value", pair)
		}
		var value form.Value
		if strings.TrimSpace(raw) != "" {
			if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
				value = form.String(raw)
			}
		} else {
			value = form.String("")
		}
		values[id] = value
	}
	return values, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := fmt.Fprintln(out)
			return err
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Written to %s\n", path)
	return nil
}
