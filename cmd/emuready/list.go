package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/emuready-client/pkg/emuready"
	"github.com/Sternrassler/emuready-client/pkg/pagination"
	"github.com/spf13/cobra"
)

// listOptions are the paging flags shared by the list commands.
type listOptions struct {
	page     int
	pageSize int
	pages    int
}

func (o *listOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.page, "page", 1, "First page to show (1-based)")
	cmd.Flags().IntVar(&o.pageSize, "page-size", 0, "Rows per page (default from config)")
	cmd.Flags().IntVar(&o.pages, "pages", 1, "Number of consecutive pages to load")
}

func (o listOptions) validate() error {
	if o.page < 1 {
		return fmt.Errorf("--page must be >= 1 (got %d)", o.page)
	}
	if o.pageSize < 0 {
		return fmt.Errorf("--page-size must be >= 0 (got %d)", o.pageSize)
	}
	if o.pages < 1 {
		return fmt.Errorf("--pages must be >= 1 (got %d)", o.pages)
	}
	return nil
}

// startKey converts a 1-based page index into the key of conv.
func startKey(conv pagination.Convention, page, pageSize int) int {
	return conv.Start() + (page-1)*conv.Step(pageSize)
}

// loadPages loads the requested range and flattens it. more reports whether
// the last loaded page has a successor.
func loadPages[R, T any](ctx context.Context, a *app, ctrl *pagination.Controller[R, T], o listOptions) (items []T, more bool, err error) {
	size := o.pageSize
	if size == 0 {
		size = a.cfg.PageSize
	}
	from := startKey(ctrl.Convention(), o.page, size)

	pages, err := ctrl.LoadRange(ctx, &from, size, o.pages, pagination.BatchConfig{
		MaxConcurrency: a.cfg.MaxConcurrency,
		Timeout:        a.cfg.Timeout,
	})
	if err != nil {
		return nil, false, err
	}

	for _, p := range pages {
		items = append(items, p.Data...)
	}
	if n := len(pages); n > 0 {
		more = pages[n-1].NextKey != nil
	}
	return items, more, nil
}

var gamesOpts struct {
	listOptions
	search string
	system string
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gamesOpts.validate(); err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctrl, err := a.svc.Games(emuready.GamesFilter{
			Search:   gamesOpts.search,
			SystemID: gamesOpts.system,
		})
		if err != nil {
			return err
		}

		games, more, err := loadPages(cmd.Context(), a, ctrl, gamesOpts.listOptions)
		if err != nil {
			return err
		}
		return renderTable(cmd.OutOrStdout(), gameRows(games), more)
	},
}

// listingFlags are the filters of listings and compat.
type listingFlags struct {
	listOptions
	game     string
	system   string
	device   string
	emulator string
	search   string
}

func (f *listingFlags) register(cmd *cobra.Command) {
	f.listOptions.register(cmd)
	cmd.Flags().StringVar(&f.game, "game", "", "Only listings of this game id")
	cmd.Flags().StringVar(&f.system, "system", "", "Only listings of this system id")
	cmd.Flags().StringVar(&f.device, "device", "", "Only listings of this device id")
	cmd.Flags().StringVar(&f.emulator, "emulator", "", "Only listings of this emulator id")
	cmd.Flags().StringVar(&f.search, "search", "", "Search term")
}

func (f *listingFlags) filter() emuready.ListingsFilter {
	return emuready.ListingsFilter{
		GameID:     f.game,
		SystemID:   f.system,
		DeviceID:   f.device,
		EmulatorID: f.emulator,
		Search:     f.search,
	}
}

var listingsOpts listingFlags

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List compatibility reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := listingsOpts.validate(); err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctrl, err := a.svc.Listings(listingsOpts.filter())
		if err != nil {
			return err
		}

		listings, more, err := loadPages(cmd.Context(), a, ctrl, listingsOpts.listOptions)
		if err != nil {
			return err
		}
		return renderTable(cmd.OutOrStdout(), listingRows(listings), more)
	},
}

var compatOpts listingFlags

var compatCmd = &cobra.Command{
	Use:   "compat",
	Short: "Summarize compatibility per game",
	Long: `compat loads listing pages and folds them into one row per game with
the number of rated reports and the normalized mean performance.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := compatOpts.validate(); err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctrl, err := a.svc.Compatibility(compatOpts.filter())
		if err != nil {
			return err
		}

		summaries, more, err := loadPages(cmd.Context(), a, ctrl, compatOpts.listOptions)
		if err != nil {
			return err
		}
		return renderTable(cmd.OutOrStdout(), summaryRows(emuready.MergeSummaries(summaries)), more)
	},
}

func init() {
	gamesOpts.register(gamesCmd)
	gamesCmd.Flags().StringVar(&gamesOpts.search, "search", "", "Search term")
	gamesCmd.Flags().StringVar(&gamesOpts.system, "system", "", "Only games of this system id")

	listingsOpts.register(listingsCmd)
	compatOpts.register(compatCmd)

	rootCmd.AddCommand(gamesCmd, listingsCmd, compatCmd)
}
