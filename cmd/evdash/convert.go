package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newConvertCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [output]",
		Short: "Write the normalized records as canonical JSON",
		Long: `Load the source (JSON or CSV, any field naming) and write the records with
canonical field names. Output goes to stdout unless a file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ds, err := loadOnce(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				return writeJSON(cmd.OutOrStdout(), ds.Records)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			if err := writeJSON(f, ds.Records); err != nil {
				f.Close()
				return fmt.Errorf("writing output: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "evdash: wrote %d records to %s\n", ds.Len(), args[0])
			return nil
		},
	}
}
