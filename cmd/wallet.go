package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"evmwallet/pkg/utils"

	"github.com/spf13/cobra"
)

var errNoKey = errors.New("no private key given")

func newNewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a new wallet",
		Long: `Generates a random private key, stores it and prints it once.
Anyone holding the key controls the account.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			cred, err := a.session.CreateWallet()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "New wallet created")
			fmt.Fprintln(out, "---------------------------------------------------")
			fmt.Fprintf(out, "Address:     %s\n", cred.Address)
			fmt.Fprintf(out, "Private key: %s\n", cred.PrivateKey)
			fmt.Fprintln(out, "---------------------------------------------------")
			fmt.Fprintln(out, "Save this key now. It will not be shown again.")
			if u := utils.ExplorerAddressURL(a.cfg.ExplorerURL, cred.Address); u != "" {
				fmt.Fprintf(out, "Explorer:    %s\n", u)
			}
			return nil
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [private-key|-]",
		Short: "Import a wallet from a hex private key",
		Long: `Imports an existing account. Pass "-" or no argument to read the key
from stdin, which keeps it out of the shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 && args[0] != "-" {
				raw = args[0]
			} else {
				var err error
				if raw, err = readKey(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			a, err := opts.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			cred, err := a.session.ImportWallet(raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wallet imported: %s\n", cred.Address)
			return nil
		},
	}
}

// readKey reads the first non-empty line of in.
func readKey(in io.Reader) (string, error) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read private key: %w", err)
	}
	return "", errNoKey
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored wallet and its history",
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
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Remove wallet %s? Make sure you have saved your private key.", a.session.Address())) {
				return errAborted
			}
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
