package cmd

import (
	"encoding/json"
	"fmt"

	"evmwallet/pkg/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration or roll it back",
	}
	cmd.AddCommand(newConfigShowCmd(opts), newConfigRestoreCmd(opts))
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, overrides applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := opts.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "# %s\n", path)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

func newConfigRestoreCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the config file with its newest backup",
		Long: `Every save (for example the chain ID write-back of "check") keeps a
timestamped .bak copy of the previous file. This puts the newest one back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath(opts.configPath)
			if err != nil {
				return fmt.Errorf("determine config path: %w", err)
			}
			backups, err := config.Backups(path)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				return config.ErrNoBackup
			}

			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd.InOrStdin(), out,
				fmt.Sprintf("Restore %s from %s?", path, backups[len(backups)-1])) {
				return errAborted
			}
			used, err := config.RestoreLastBackup(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Configuration restored from %s\n", used)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
