package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"credsearch/internal/search/models"
)

const flagLimit = "limit"

func newCacheCommand(st *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the persisted result cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache counters and local store size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := st.loadApp(cmd)
				if err != nil {
					return err
				}
				defer app.Close()
				app.Cache.Load(cmd.Context())

				var counts *models.StoreCounts
				if c, err := app.Store.Count(cmd.Context()); err != nil {
					app.Logger.WarnContext(cmd.Context(), "store count failed", "error", err)
				} else {
					counts = &c
				}
				renderStats(cmd.OutOrStdout(), app.Cache.Stats(), counts)
				return nil
			},
		},
		newPopularCommand(st),
		&cobra.Command{
			Use:   "clear",
			Short: "Drop every cached entry and reset the counters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := st.loadApp(cmd)
				if err != nil {
					return err
				}
				defer app.Close()
				app.Cache.Clear(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
				return nil
			},
		},
	)
	return cmd
}

func newPopularCommand(st *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the most requested cached keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt(flagLimit)
			if err != nil {
				return err
			}
			app, err := st.loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			app.Cache.Load(cmd.Context())
			renderPopular(cmd.OutOrStdout(), app.Cache.Popular(limit))
			return nil
		},
	}
	cmd.Flags().Int(flagLimit, 10, "number of keys to list")
	return cmd
}
