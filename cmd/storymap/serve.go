package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-storymap/pkg/api"
	"github.com/dd0wney/cluso-storymap/pkg/metrics"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := api.NewServer(a.cfg, a.logger, metrics.NewRegistry())
			if err != nil {
				return err
			}

			brand.Fprintf(cmd.ErrOrStderr(), "storymap %s", api.Version)
			subtle.Fprintf(cmd.ErrOrStderr(), "  listening on %s, Ctrl+C to stop\n", a.cfg.Server.Addr)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides the config)")
	return cmd
}
