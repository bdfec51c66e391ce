package cmd

import (
	"encoding/json"
	"fmt"

	"evmwallet/pkg/config"
	"evmwallet/pkg/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON    bool
		reconcile bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transactions sent from this wallet",
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
			if reconcile {
				if err := a.session.Reconcile(cmd.Context()); err != nil {
					return err
				}
			}

			txs := a.session.Transactions()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(txs)
			}
			if len(txs) == 0 {
				fmt.Fprintln(out, "No transactions yet.")
				if a.cfg.Store.Backend != config.StoreSQLite {
					fmt.Fprintln(out, "History is only kept between runs with the sqlite store backend.")
				}
				return nil
			}

			fmt.Fprintln(out, historyTable(txs, a.cfg.Symbol))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&reconcile, "check", false, "Fetch receipts for pending transactions first")
	return cmd
}

func historyTable(txs []models.Transaction, symbol string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "HASH", "TO", "VALUE", "STATUS")
	for _, tx := range txs {
		t.Row(
			tx.Timestamp.Local().Format("2006-01-02 15:04"),
			tx.Hash, tx.To, tx.Value+" "+symbol, string(tx.Status))
	}
	return t.String()
}
