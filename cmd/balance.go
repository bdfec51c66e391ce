package cmd

import (
	"fmt"

	"evmwallet/pkg/units"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	var fees bool
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Fetch the wallet balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireWallet(); err != nil {
				return err
			}
			if err := a.session.RefreshBalance(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := a.session.Snapshot()
			fmt.Fprintf(out, "Address: %s\n", st.Address)
			fmt.Fprintf(out, "Balance: %s %s (%s)\n", units.Display(st.Balance, int32(a.cfg.BalanceDecimals)), st.Symbol, st.Network)

			if fees {
				if err := a.session.RefreshFees(cmd.Context()); err != nil {
					log.Warn().Err(err).Msg("Could not fetch fee data")
					return nil
				}
				if f := a.session.Snapshot().FeeData; f != nil {
					fmt.Fprintf(out, "Gas price: %s Gwei\n", units.FormatGwei(f.GasPrice))
					fmt.Fprintf(out, "Max fee:   %s Gwei (tip %s Gwei)\n", units.FormatGwei(f.MaxFeePerGas), units.FormatGwei(f.MaxPriorityFeePerGas))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fees, "fees", false, "Also show current network fees")
	return cmd
}
