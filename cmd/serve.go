package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/namespace-stats/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the statistics and contributor reports as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := a.cfg.Server
		if addr, _ := cmd.Flags().GetString("address"); addr != "" {
			cfg.Address = addr
		}

		// Warm the statistics so the first dashboard request is served from memory.
		go func() {
			if _, err := a.stats.Load(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("initial statistics load failed")
			}
		}()

		srv := server.New(server.Config{
			Address:        cfg.Address,
			RequestTimeout: cfg.RequestTimeout,
			AllowedOrigins: cfg.AllowedOrigins,
		}, a.stats, a.contributors, a.logger)
		return srv.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("address", "a", "", "Listen address (defaults to SERVER_ADDRESS)")
}
