package cmd

import (
	"fmt"
	"os"

	"evmwallet/pkg/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	v          *viper.Viper
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{v: config.NewViper()}
	var apiPort int

	root := &cobra.Command{
		Use:     "evmwallet",
		Short:   "Ethereum Sepolia testnet wallet",
		Version: version,
		Long: `evmwallet holds a single Sepolia account, shows its balance and
sends ETH through a list of public RPC endpoints, falling back to the next
endpoint whenever one fails.

Without a subcommand the terminal UI is started.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, apiPort, version)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to configuration file (default ~/"+config.ConfigFileName+")")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Write logs to this file")
	pf.String("rpc-urls", "", "Comma separated RPC endpoints, overriding the config file")
	pf.String("store-path", "", "Wallet store location, overriding the config file")
	_ = opts.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = opts.v.BindPFlag("log_file", pf.Lookup("log-file"))
	_ = opts.v.BindPFlag("rpc_urls", pf.Lookup("rpc-urls"))
	_ = opts.v.BindPFlag("store_path", pf.Lookup("store-path"))

	root.Flags().IntVar(&apiPort, "api-port", 0, "Also serve the status API on this port while the UI runs")

	root.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newConfigCmd(opts),
		newNewCmd(opts),
		newImportCmd(opts),
		newBalanceCmd(opts),
		newSendCmd(opts),
		newHistoryCmd(opts),
		newLogoutCmd(opts),
		newVersionCmd(version),
	)
	return root
}

// Execute runs the command tree. It is called once by main.main().
func Execute(version string) {
	if err := newRootCmd(version).Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "evmwallet version %s\n", version)
		},
	}
}
