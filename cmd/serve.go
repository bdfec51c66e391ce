package cmd

import (
	"evmwallet/pkg/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run headless, exposing the wallet state over HTTP and WebSocket",
		Long: `Runs the background balance and receipt polling without the terminal UI
and serves /api/status, /ws and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := opts.newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.session.HasWallet() {
				log.Warn().Msg("No wallet loaded, serving empty state")
			}
			a.session.Start(ctx)

			return server.NewServer(a.session).Start(ctx, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port for API server")
	return cmd
}
