package usecase

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

// Default sizes of the ranked lists in a Summary.
const (
	DefaultTopContributors = 20
	DefaultTopRepositories = 10
)

// summarizeRepository builds the summary of one repository from its contributors.
func summarizeRepository(repo domain.Repository, contributors []domain.Contributor) domain.RepositorySummary {
	total := 0
	for _, c := range contributors {
		total += c.Contributions
	}
	return domain.RepositorySummary{
		Repository:         repo,
		Contributors:       contributors,
		ContributorCount:   len(contributors),
		TotalContributions: total,
	}
}

// Summarize computes the global statistics of a dataset.
// Ties in the ranked lists keep first-seen order; repositories are ranked in listing order.
func Summarize(repos []domain.Repository, byRepo map[string]domain.RepositorySummary, all []domain.Contributor, topContributors, topRepositories int) domain.Summary {
	summary := domain.Summary{
		TotalRepositories:            len(repos),
		RepositoriesWithContributors: len(byRepo),
		TotalContributors:            len(all),
	}
	for _, r := range repos {
		if r.Private {
			summary.PrivateRepositories++
		} else {
			summary.PublicRepositories++
		}
	}
	for _, c := range all {
		summary.TotalContributions += c.Contributions
	}

	merged := domain.MergeContributors(all)
	summary.UniqueContributors = len(merged)
	summary.Distribution = distribution(merged)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TotalContributions > merged[j].TotalContributions
	})
	summary.TopContributors = head(merged, topContributors)

	ranked := make([]domain.RepositorySummary, 0, len(byRepo))
	for _, r := range repos {
		if rs, ok := byRepo[r.FullName]; ok {
			ranked = append(ranked, rs)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ContributorCount > ranked[j].ContributorCount
	})
	summary.TopRepositories = head(ranked, topRepositories)

	return summary
}

func distribution(merged []domain.ContributorSummary) domain.ContributionStats {
	if len(merged) == 0 {
		return domain.ContributionStats{}
	}
	totals := make(stats.Float64Data, 0, len(merged))
	for _, m := range merged {
		totals = append(totals, float64(m.TotalContributions))
	}
	return domain.ContributionStats{
		Mean:         orZero(totals.Mean()),
		Median:       orZero(totals.Median()),
		Percentile90: orZero(totals.Percentile(90)),
	}
}

// orZero keeps NaN out of the JSON encoding when a statistic is undefined.
func orZero(v float64, err error) float64 {
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
