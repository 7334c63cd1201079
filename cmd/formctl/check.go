package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/schema"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Validate form schema files",
		Long: `check parses each file and verifies its forms: unique field ids, known
field types, compilable patterns and conditions that only reference fields of
the same form. Without arguments the whole --schemas directory is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				catalog, err := opts.loadCatalog()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "OK: %d forms\n", catalog.Len())
				return nil
			}

			var failed []error
			for _, path := range args {
				if err := checkFile(path, opts.checkOptions()...); err != nil {
					fmt.Fprintf(out, "FAIL %s\n", path)
					failed = append(failed, err)
					continue
				}
				fmt.Fprintf(out, "OK   %s\n", path)
			}
			if len(failed) > 0 {
				return errors.Join(failed...)
			}
			return nil
		},
	}
}

func checkFile(path string, options ...schema.CheckOption) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	forms, err := schema.ParseDocument(data, path)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(forms))
	for _, cfg := range forms {
		if _, dup := seen[cfg.ID]; dup {
			return fmt.Errorf("schema: duplicate form %q in %s", cfg.ID, path)
		}
		seen[cfg.ID] = struct{}{}
		if err := schema.Check(cfg, path, options...); err != nil {
			return err
		}
	}
	return nil
}
