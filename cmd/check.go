package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"evmwallet/pkg/config"
	"evmwallet/pkg/models"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("configuration check failed")

// prober reports the chain ID served by one endpoint.
type prober interface {
	ProbeEndpoint(ctx context.Context, url string) models.RPCResult
}

type checkOptions struct {
	json   bool
	dryRun bool
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var co checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test configuration and RPC endpoints, then exit",
		Long: `Validates the configuration and asks every RPC endpoint for its chain ID.
When the configured chain ID is 0 the observed one is written back to the
config file, unless --dry-run is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logs, err := setupLogging(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = logs.Close() }()

			var p prober
			if _, client, err := newClient(cfg); err == nil {
				p = client
			}
			_, err = runCheck(cmd.Context(), cmd.OutOrStdout(), p, &cfg, path, co)
			return err
		},
	}
	cmd.Flags().BoolVar(&co.json, "json", false, "Output test results as JSON")
	cmd.Flags().BoolVar(&co.dryRun, "dry-run", false, "Perform a trial run with no changes made")
	return cmd
}

// runCheck queries every endpoint of cfg and prints a report. p may be nil
// when the structure check is expected to fail.
func runCheck(ctx context.Context, out io.Writer, p prober, cfg *config.Config, path string, co checkOptions) (models.CheckReport, error) {
	report := models.CheckReport{
		ConfigPath:     path,
		ValidStructure: true,
		DryRun:         co.dryRun,
	}
	say := func(format string, a ...any) {
		if !co.json {
			fmt.Fprintf(out, format, a...)
		}
	}
	emit := func() {
		if co.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		}
	}

	say("Testing configuration at: %s\n", path)

	if problems := cfg.Problems(); len(problems) > 0 || p == nil {
		report.ValidStructure = false
		report.StructureErrors = problems
		for _, msg := range problems {
			say("Error: %s\n", msg)
		}
		emit()
		return report, errCheckFailed
	}

	report.EndpointCount = len(cfg.RPCURLs)
	say("Found %d RPC endpoints for %s.\n", report.EndpointCount, cfg.NetworkName)

	chain := models.ChainResult{
		Name:          cfg.NetworkName,
		Symbol:        cfg.Symbol,
		ConfigChainID: cfg.ChainID,
	}
	say("Testing Chain: %s (%s)\n", cfg.NetworkName, cfg.Symbol)

	var observed int64
	healthy := 0
	for _, url := range cfg.RPCURLs {
		say("  RPC: %s ... ", url)
		res := p.ProbeEndpoint(ctx, url)
		if res.Status != "ok" {
			say("Failed: %s\n", res.Error)
			chain.RPCs = append(chain.RPCs, res)
			continue
		}
		healthy++
		say("OK (ChainID: %d, %s)", res.ChainID, res.Latency.Round(time.Millisecond))

		if observed == 0 {
			observed = res.ChainID
			chain.ObservedChainID = res.ChainID
		} else if observed != res.ChainID {
			say(" - WARNING: ChainID mismatch with previous RPC (%d)", observed)
			chain.Inconsistent = true
		}

		switch {
		case cfg.ChainID == 0:
			chain.ChainIDUpdated = true
			say(" - UPDATED CONFIG")
			if co.dryRun {
				say(" (DRY RUN)")
			}
		case res.ChainID != cfg.ChainID:
			res.Error = fmt.Sprintf("Mismatch! Expected %d", cfg.ChainID)
			say(" - MISMATCH! Expected %d", cfg.ChainID)
		default:
			say(" - Verified")
		}
		say("\n")
		chain.RPCs = append(chain.RPCs, res)
	}
	report.Chain = chain

	if chain.Inconsistent {
		say("\nWARNING: Inconsistent RPCs detected!\n")
		say("Endpoints for %s return conflicting Chain IDs.\n", cfg.NetworkName)
	}

	if chain.ChainIDUpdated && !chain.Inconsistent {
		report.ConfigUpdated = true
		cfg.ChainID = observed
		say("\nUpdating configuration with fetched Chain ID...\n")
		if co.dryRun {
			say("Dry run enabled: Configuration NOT saved.\n")
		} else if err := config.SaveConfig(*cfg, path); err != nil {
			report.SaveError = err.Error()
			say("Failed to save config: %v\n", err)
		} else {
			say("Configuration saved successfully.\n")
		}
	}

	emit()
	if healthy == 0 {
		return report, fmt.Errorf("%w: no endpoint answered", errCheckFailed)
	}
	return report, nil
}
