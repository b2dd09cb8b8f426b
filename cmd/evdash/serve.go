package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nixlim/evdash/internal/web"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		bind string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard to a browser",
		Long: `Serve the dashboard as an HTML page. Filter state lives in the query string.
Prometheus metrics are exposed at /metrics. Send SIGHUP to reload the data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind = bind
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			addr := net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port))
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				a.Close()
				return fmt.Errorf("listening on %s: %w", addr, err)
			}

			srv := web.New(a.loader, cfg.Source.Location,
				web.WithMetrics(a.metrics.Handler()),
				web.WithFilterObserver(a.metrics),
				web.WithLogger(a.logger),
				web.WithLayout(cfg.Display.Layout),
			)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			reloadDone := make(chan struct{})
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			go func() {
				defer close(reloadDone)
				srv.Reload(ctx)
				for {
					select {
					case <-hup:
						if !srv.Reload(ctx) {
							a.logger.Info("reload already in flight")
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			shutdownMgr := web.NewShutdownManager()
			shutdownMgr.StopServer = srv.Shutdown
			shutdownMgr.StopReload = func() {
				signal.Stop(hup)
				cancel()
				<-reloadDone
			}
			shutdownMgr.Cleanup = a.Close

			serveErr := make(chan error, 1)
			go func() { serveErr <- srv.Serve(ln) }()
			fmt.Fprintf(cmd.OutOrStdout(), "evdash: serving http://%s\n", ln.Addr())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-sigCh:
				a.logger.Info("shutting down")
				return shutdownMgr.Shutdown()
			case err := <-serveErr:
				_ = shutdownMgr.Shutdown()
				return err
			}
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (overrides config)")
	return cmd
}
