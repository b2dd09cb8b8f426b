package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/nixlim/evdash/internal/dataset"
	"github.com/nixlim/evdash/internal/events"
)

// loadOnce runs a single load and turns a failure into a command error.
func loadOnce(cmd *cobra.Command, flags *globalFlags) (*app, dataset.Dataset, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, dataset.Dataset{}, err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, dataset.Dataset{}, err
	}
	ds := a.loader.Load(cmd.Context(), cfg.Source.Location)
	if ds.Failed() {
		a.Close()
		return nil, ds, ds.Failure
	}
	return a, ds, nil
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		filter  dataset.FilterState
		asJSON  bool
		details bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the records matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ds, err := loadOnce(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			v := dataset.NewView(ds)
			v.SetObserver(a.metrics)
			v.SetFilter(filter)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, v.Visible())
			}
			writeTable(out, v, a.cfg.Display.SummaryWidth, details)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.SearchText, "search", "", "case-insensitive text to look for")
	cmd.Flags().StringVar(&filter.Category, "category", dataset.All, "event category, or \"all\"")
	cmd.Flags().StringVar(&filter.Streamer, "streamer", dataset.All, "primary streamer, or \"all\"")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the matching records as JSON")
	cmd.Flags().BoolVar(&details, "details", false, "print every record's detail fields")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var listColumns = []struct {
	title string
	width int
}{
	{"DATE", 10},
	{"CATEGORY", 14},
	{"STREAMER", 16},
	{"VOD", 4},
}

func writeTable(w io.Writer, v *dataset.View, summaryWidth int, details bool) {
	rows := v.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No matching events")
		return
	}

	var hdr strings.Builder
	for _, c := range listColumns {
		hdr.WriteString(runewidth.FillRight(c.title, c.width) + "  ")
	}
	hdr.WriteString("SUMMARY")
	fmt.Fprintln(w, hdr.String())

	for _, row := range rows {
		e := row.Event
		vod := "-"
		if _, ok := e.VODLink(); ok {
			vod = "yes"
		}
		cells := []string{e.Date, e.EventCategory, e.PrimaryStreamer, vod}
		var line strings.Builder
		for i, c := range listColumns {
			line.WriteString(runewidth.FillRight(runewidth.Truncate(plain(cells[i]), c.width, "…"), c.width) + "  ")
		}
		line.WriteString(runewidth.Truncate(plain(e.Summary), summaryWidth, "…"))
		fmt.Fprintln(w, line.String())

		if details {
			for _, d := range events.Details(e) {
				fmt.Fprintf(w, "    %s: %s\n", plain(d.Label), plain(d.Value))
			}
		}
	}
	fmt.Fprintf(w, "\n%d of %d events\n", v.VisibleCount(), v.Total())
}

// plain prepares record text for the terminal; blank values print as "-".
func plain(s string) string {
	s = events.PlainText(s)
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
