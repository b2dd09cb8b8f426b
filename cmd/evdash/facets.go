package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixlim/evdash/internal/dataset"
)

func newFacetsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Print the distinct categories and streamers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ds, err := loadOnce(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			facets := dataset.ExtractFacets(ds.Records)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string][]string{
					"categories": facets.Categories,
					"streamers":  facets.Streamers,
				})
			}
			fmt.Fprintln(out, "Categories:")
			for _, c := range facets.Categories {
				fmt.Fprintf(out, "  %s\n", plain(c))
			}
			fmt.Fprintln(out, "Streamers:")
			for _, s := range facets.Streamers {
				fmt.Fprintf(out, "  %s\n", plain(s))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
