package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/namespace-stats/internal/view"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects or clears the cached contributor datasets",
	Long: `Inspects or clears the cached contributor datasets. The cache only survives
between invocations with CACHE_DRIVER=sqlite.`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows how long the cached dataset of a user stays valid",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		user := a.user(cmd)
		remaining, _ := a.contributors.CacheTimeRemaining(cmd.Context(), user)
		if remaining <= 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No cached data for %s\n", user)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cached data for %s expires in %s\n", user, view.FormatRemaining(remaining))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drops the cached dataset of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		user := a.user(cmd)
		if err := a.contributors.ClearCache(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared cached data for %s\n", user)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)
	cacheCmd.PersistentFlags().StringP("user", "u", "", "Target GitHub user or organization (defaults to GITHUB_USER)")
}
