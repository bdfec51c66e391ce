package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"evmwallet/pkg/server"
	"evmwallet/pkg/tui"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, opts *rootOptions, apiPort int, version string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := opts.newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.Start(ctx)

	if apiPort > 0 {
		srv := server.NewServer(a.session)
		go func() {
			if err := srv.Start(ctx, apiPort); err != nil {
				log.Error().Err(err).Msg("API server error")
			}
		}()
	}

	return tui.Start(ctx, a.session, tui.Options{
		ExplorerURL:     a.cfg.ExplorerURL,
		BalanceDecimals: a.cfg.BalanceDecimals,
		Version:         version,
	})
}
