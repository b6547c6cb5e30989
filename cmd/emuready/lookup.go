package main

import (
	"github.com/spf13/cobra"
)

var gameCmd = &cobra.Command{
	Use:   "game <id>",
	Short: "Show one game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		game, err := a.svc.Game(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderBox(cmd.OutOrStdout(), game.Title, gameFields(game))
	},
}

var listingCmd = &cobra.Command{
	Use:   "listing <id>",
	Short: "Show one compatibility report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := a.svc.Listing(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderBox(cmd.OutOrStdout(), "Listing "+listing.ID, listingFields(listing))
	},
}

func init() {
	rootCmd.AddCommand(gameCmd, listingCmd)
}
