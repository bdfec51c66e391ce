package cmd

import (
	"fmt"
	"strings"

	"evmwallet/pkg/rpc"
	"evmwallet/pkg/session"
	"evmwallet/pkg/units"
	"evmwallet/pkg/utils"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		wait int
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "send <to> <amount>",
		Short: "Send ETH to an address",
		Long: `Signs and submits a plain value transfer. The amount is in ETH.
With --wait N the command blocks until the transfer has N confirmations or
the wait timeout passes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, amount := args[0], args[1]

			a, err := opts.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireWallet(); err != nil {
				return err
			}
			if err := validateTransfer(to, amount); err != nil {
				return err
			}
			// The insufficient-balance guard needs a fresh reading.
			if err := a.session.RefreshBalance(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd.InOrStdin(), out,
				fmt.Sprintf("Send %s %s to %s?", amount, a.cfg.Symbol, to)) {
				return errAborted
			}

			tx, err := a.session.Send(cmd.Context(), to, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Transaction sent: %s\n", tx.Hash)
			if u := utils.ExplorerTxURL(a.cfg.ExplorerURL, tx.Hash); u != "" {
				fmt.Fprintf(out, "Explorer: %s\n", u)
			}

			if wait <= 0 {
				return nil
			}
			fmt.Fprintf(out, "Waiting for %d confirmation(s)...\n", wait)
			receipt := a.client.WaitForConfirmation(cmd.Context(), tx.Hash, wait)
			if receipt == nil {
				fmt.Fprintln(out, "Not confirmed yet, status stays pending")
				return nil
			}
			if err := a.session.Reconcile(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("Could not update transaction status")
			}
			for _, t := range a.session.Transactions() {
				if t.Hash == tx.Hash {
					fmt.Fprintf(out, "Status: %s (block %d, gas used %d)\n", t.Status, t.BlockNumber, t.GasUsed)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&wait, "wait", 0, "Wait for this many confirmations")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// validateTransfer rejects a malformed recipient or amount before any
// endpoint is contacted.
func validateTransfer(to, amount string) error {
	if !rpc.IsValidAddress(strings.TrimSpace(to)) {
		return rpc.ErrInvalidRecipient
	}
	if _, err := units.ParseAmount(amount); err != nil {
		return session.ErrInvalidAmount
	}
	return nil
}
