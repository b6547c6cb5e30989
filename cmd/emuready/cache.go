package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("cache is not enabled (set cache_enabled or EMUREADY_CACHE_ENABLED=true)")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge [procedure]",
	Short: "Delete cached responses of one procedure, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cache == nil {
			return errCacheDisabled
		}

		procedure := ""
		if len(args) == 1 {
			procedure = args[0]
		}

		n, err := a.cache.Purge(cmd.Context(), procedure)
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}

		scope := "all procedures"
		if procedure != "" {
			scope = procedure
		}
		fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("Purged %d cached responses (%s)", n, scope))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
