package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nixlim/evdash/internal/config"
	"github.com/nixlim/evdash/internal/dataset"
	"github.com/nixlim/evdash/internal/logging"
	"github.com/nixlim/evdash/internal/metrics"
	"github.com/nixlim/evdash/internal/notify"
	"github.com/nixlim/evdash/internal/source"
	"github.com/nixlim/evdash/internal/storage"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	source     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "evdash",
		Short: "Browse and filter a streaming-event dataset",
		Long: `evdash loads an event dataset (JSON or CSV, local or over HTTP) and lets
you search and filter it by category and streamer, in the terminal or in a
browser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ~/.config/evdash/config.toml)")
	root.PersistentFlags().StringVar(&flags.source, "source", "", "data location: path, file:// or http(s) URL (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newTUICmd(flags),
		newServeCmd(flags),
		newListCmd(flags),
		newFacetsCmd(flags),
		newConvertCmd(flags),
		newHistoryCmd(flags),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.Config, error) {
	var (
		result *config.LoadResult
		err    error
	)
	if flags.configPath != "" {
		result, err = config.LoadFrom(flags.configPath)
	} else {
		result, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "evdash: config warning: %s\n", w)
	}

	cfg := result.Config
	if flags.source != "" {
		cfg.Source.Location = flags.source
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	return cfg, nil
}

// app holds the components every subcommand wires the same way.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	journal    storage.Journal
	persistent bool
	metrics    *metrics.Metrics
	loader     *dataset.Loader
	logFile    io.Closer
}

// newApp builds the shared components. Logs go to logOut unless the config
// names a log file.
func newApp(cfg config.Config, logOut io.Writer) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.Logging.File != "" {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return nil, err
		}
		a.logFile = f
		logOut = f
	}
	a.logger = logging.Init(logOut, cfg.Logging.JSON, logging.ParseLevel(cfg.Logging.Level))

	a.journal, a.persistent = storage.NewJournal(cfg.Storage, a.logger)
	a.metrics = metrics.New()

	fetcher := source.New(
		source.WithTimeout(time.Duration(cfg.Source.TimeoutSeconds)*time.Second),
		source.WithRetries(cfg.Source.Retries),
	)
	a.loader = dataset.NewLoader(fetcher, dataset.WithReporter(dataset.NewMultiReporter(
		dataset.NewLogReporter(a.logger),
		storage.NewReporter(a.journal),
		a.metrics,
		notify.NewReporter(notify.NewPlatformNotifier(cfg.Alerts.SystemNotify)),
	)))
	return a, nil
}

// Close flushes the journal and closes the log file.
func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		a.logger.Warn("closing journal", "error", err)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
