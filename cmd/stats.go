package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/namespace-stats/internal/view"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetches the Namespace platform statistics and prints the dashboard",
	Long: `Fetches the five statistics documents (L2 registries, offchain names, listings,
resolutions and subnames) concurrently and prints the dashboard. The load is
all-or-nothing: if any document fails, nothing is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		snapshot, err := a.stats.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", a.stats.State().Error, err)
		}

		dashboard := view.BuildDashboard(snapshot)
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(out, dashboard)
		}

		names, _ := cmd.Flags().GetInt("names")
		printDashboard(out, dashboard, view.OffchainNames(snapshot.Offchain, names))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Print the dashboard as JSON")
	statsCmd.Flags().Int("names", view.DefaultVisibleOffchainNames, "Number of offchain names to list")
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printDashboard(w io.Writer, d view.Dashboard, names view.OffchainNameList) {
	section := func(title string, cards []view.Card) {
		fmt.Fprintf(w, "\n%s\n", title)
		for _, c := range cards {
			fmt.Fprintf(w, "  %-22s %s\n", c.Title, c.Formatted)
		}
	}
	section("Overview", d.Overview)
	section("Subnames", d.Subnames)
	section("Listings", d.Listings)
	section("Registries", d.Registry)

	for _, chart := range d.Charts {
		fmt.Fprintf(w, "\n%s (%s)\n", chart.Title, view.FormatNumber(chart.Total))
		for _, s := range chart.Slices {
			fmt.Fprintf(w, "  %-30s %s\n", s.Label, view.FormatPercent(s.Percent))
		}
	}

	fmt.Fprintf(w, "\nOffchain names (%d of %d)\n", names.Visible, names.Total)
	for i, e := range names.Entries {
		fmt.Fprintf(w, "  %2d. %-30s %s\n", i+1, e.Name, view.FormatNumber(e.Count))
	}
	if names.HasMore {
		fmt.Fprintf(w, "  ... %d more\n", names.Remaining)
	}
	if d.Core.Repository != "" {
		t := d.Core.Totals
		fmt.Fprintf(w, "\nDevelopment team (%s)\n", d.Core.Repository)
		fmt.Fprintf(w, "  %d contributors, %s commits, top %s, %d bots\n",
			t.Contributors, view.FormatNumber(int64(t.TotalContributions)), view.FormatNumber(int64(t.MaxContributions)), t.Bots)
		for _, c := range d.Core.Humans {
			fmt.Fprintf(w, "  %-30s %s commits\n", c.Login, view.FormatNumber(int64(c.TotalContributions)))
		}
	}
	fmt.Fprintf(w, "\nLast updated: %s\n", d.FetchedAt)
}
