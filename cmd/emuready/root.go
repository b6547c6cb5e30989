package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/emuready-client/pkg/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	logPretty   bool
	metricsAddr string
	showStats   bool
)

// rootCmd is the base command. Subcommands build their own app from the
// loaded configuration.
var rootCmd = &cobra.Command{
	Use:   "emuready",
	Short: "Browse EmuReady games and compatibility reports",
	Long: `emuready queries the EmuReady catalogue over its RPC interface.

Configuration comes from defaults, an optional YAML file (--config or
EMUREADY_CONFIG) and EMUREADY_* environment variables, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if metricsAddr == "" {
			return nil
		}
		go func() {
			if err := metrics.Serve(cmd.Context(), metricsAddr); err != nil {
				log.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server failed")
			}
		}()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if !showStats {
			return nil
		}
		return renderStats(cmd.OutOrStdout(), metrics.Gatherer)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	flags.BoolVar(&logPretty, "pretty", false, "Human-readable log output")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.BoolVar(&showStats, "stats", false, "Print request and cache counters after the command")
}
