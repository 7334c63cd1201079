package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFormsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the forms in the schema catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			if catalog.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "no forms found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tFIELDS\tSOURCE")
			for _, cfg := range catalog.Forms() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", cfg.ID, cfg.Title, len(cfg.Fields), catalog.Source(cfg.ID))
			}
			return w.Flush()
		},
	}
}
