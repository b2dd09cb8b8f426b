package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/nixlim/evdash/internal/storage"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent loads from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !a.persistent {
				fmt.Fprintln(cmd.ErrOrStderr(), "evdash: no journal configured; set storage.db_path to keep load history")
			}
			entries, err := a.journal.Recent(limit)
			if err != nil {
				return fmt.Errorf("reading journal: %w", err)
			}
			if asJSON {
				return writeJSON(out, entries)
			}
			writeHistory(out, entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeHistory(w io.Writer, entries []storage.LoadEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No loads recorded yet")
		return
	}
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		runewidth.FillRight("WHEN", 16),
		runewidth.FillRight("STATUS", 6),
		runewidth.FillLeft("RECORDS", 8),
		runewidth.FillLeft("TOOK", 8),
		"SOURCE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			runewidth.FillRight(humanize.Time(e.StartedAt), 16),
			runewidth.FillRight(e.Status, 6),
			runewidth.FillLeft(humanize.Comma(int64(e.Records)), 8),
			runewidth.FillLeft(e.Duration.Round(time.Millisecond).String(), 8),
			plain(e.Source))
		if e.Failed() {
			fmt.Fprintf(w, "    %s: %s\n", e.Stage, plain(e.Error))
		}
	}
}
