package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/usecase"
	"github.com/naka-gawa/namespace-stats/internal/view"
)

var contributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Aggregates the contributors of every repository of a GitHub user",
	Long: `Lists every repository of a GitHub user or organization, fetches the contributors
of each one and prints a summary: totals, top contributors, top repositories and the
contribution distribution. Results are cached; use --refresh to bypass the cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		user := a.user(cmd)
		refresh, _ := cmd.Flags().GetBool("refresh")
		result, err := a.contributors.Aggregate(cmd.Context(), user, refresh)
		if err != nil {
			return fmt.Errorf("failed to aggregate contributors: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(out, result)
		}

		term, _ := cmd.Flags().GetString("search")
		printContributors(out, user, result, term)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contributorsCmd)
	contributorsCmd.Flags().StringP("user", "u", "", "Target GitHub user or organization (defaults to GITHUB_USER)")
	contributorsCmd.Flags().BoolP("refresh", "r", false, "Ignore the cache and fetch fresh data")
	contributorsCmd.Flags().StringP("search", "s", "", "Only show contributors and repositories matching this term")
	contributorsCmd.Flags().Bool("json", false, "Print the full dataset as JSON")
}

func printContributors(w io.Writer, user string, result *usecase.ContributorResult, term string) {
	s := result.Dataset.Summary
	source := "live"
	if result.FromCache {
		source = "cache"
	}
	fmt.Fprintf(w, "Contributors of %s (%s, fetched %s)\n\n", user, source, result.FetchedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(w, "  %-28s %d\n", "Repositories", s.TotalRepositories)
	fmt.Fprintf(w, "  %-28s %d\n", "Repositories w/ contributors", s.RepositoriesWithContributors)
	fmt.Fprintf(w, "  %-28s %d public / %d private\n", "Visibility", s.PublicRepositories, s.PrivateRepositories)
	fmt.Fprintf(w, "  %-28s %d\n", "Unique contributors", s.UniqueContributors)
	fmt.Fprintf(w, "  %-28s %s\n", "Total contributions", view.FormatNumber(int64(s.TotalContributions)))
	fmt.Fprintf(w, "  %-28s mean %.1f / median %.1f / p90 %.1f\n", "Contributions per person",
		s.Distribution.Mean, s.Distribution.Median, s.Distribution.Percentile90)

	humans := view.HumanContributions(domain.MergeContributors(result.Dataset.AllContributors))
	fmt.Fprintf(w, "  %-28s %d (%s contributions, %d bots)\n", "Human contributors",
		humans.Contributors, view.FormatNumber(int64(humans.TotalContributions)), humans.Bots)

	fmt.Fprintln(w, "\nTop contributors")
	for i, c := range view.FilterContributors(s.TopContributors, term) {
		fmt.Fprintf(w, "  %2d. %-24s %6d in %d repositories\n", i+1, c.Login, c.TotalContributions, len(c.Repositories))
	}

	fmt.Fprintln(w, "\nRepositories")
	for _, r := range view.FilterRepositories(result.Dataset.ContributorsByRepo, term) {
		card := view.NewRepositoryCard(r)
		fmt.Fprintf(w, "  %-40s %-7s %3d contributors %6d contributions\n", r.FullName, card.Visibility, r.ContributorCount, r.TotalContributions)
		for _, c := range card.Chips {
			fmt.Fprintf(w, "      %s (%d)\n", c.Login, c.Contributions)
		}
		if card.More > 0 {
			fmt.Fprintf(w, "      +%d more\n", card.More)
		}
	}
}
