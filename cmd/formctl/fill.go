package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

type fillOptions struct {
	output      string
	outFile     string
	maxAttempts int
	extras      []string
	force       bool
}

func newFillCmd(root *rootOptions) *cobra.Command {
	opts := &fillOptions{}
	cmd := &cobra.Command{
		Use:   "fill <formID>",
		Short: "Fill a form interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := tui.OutputFormat(opts.output)
			switch format {
			case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
			default:
				return fmt.Errorf("unknown output format %q", opts.output)
			}

			if !opts.force && !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("fill needs an interactive terminal on stdin")
			}

			catalog, err := root.loadCatalog()
			if err != nil {
				return err
			}
			cfg, ok := catalog.Form(args[0])
			if !ok {
				return fmt.Errorf("form %q not found", args[0])
			}
			extras, err := parseExtras(opts.extras)
			if err != nil {
				return err
			}

			reg := registry.New(registry.WithLogger(root.logger))
			reg.InitializeForm(cfg, nil)

			session, err := tui.NewSession(reg,
				tui.WithEvaluator(root.evaluator()),
				tui.WithMaxAttempts(opts.maxAttempts),
				tui.WithExtras(extras),
				tui.WithLogger(root.logger),
			)
			if err != nil {
				return err
			}
			result, err := session.Fill(cmd.Context(), cfg.ID)
			if err != nil {
				return err
			}
			if !result.Submitted {
				return fmt.Errorf("form %q has errors", cfg.ID)
			}

			data, err := result.Encode(format)
			if err != nil {
				return err
			}
			return writeOutput(cmd, opts.outFile, data)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "format", "f", string(tui.OutputFormatJSON), "Output format (json, form, pretty)")
	cmd.Flags().StringVarP(&opts.outFile, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 5, "Re-prompts per invalid field before giving up (0 = unlimited)")
	cmd.Flags().StringArrayVar(&opts.extras, "extra", nil, "Condition extras as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Prompt even when stdin is not a terminal")
	return cmd
}

// parseExtras reads key=value pairs into the extras namespace of conditions.
func parseExtras(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values, err := parseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	extras := make(map[string]any, len(values))
	for key, value := range values {
		extras[key] = value.Interface()
	}
	return extras, nil
}
