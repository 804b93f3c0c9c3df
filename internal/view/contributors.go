package view

import (
	"sort"
	"strings"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

// MaxContributorChips is how many contributors a repository card shows before "+N more".
const MaxContributorChips = 10

// FilterContributors keeps the contributors whose login contains term, case-insensitively.
func FilterContributors(contributors []domain.ContributorSummary, term string) []domain.ContributorSummary {
	term = strings.ToLower(term)
	out := make([]domain.ContributorSummary, 0, len(contributors))
	for _, c := range contributors {
		if strings.Contains(strings.ToLower(c.Login), term) {
			out = append(out, c)
		}
	}
	return out
}

// FilterRepositories keeps the repositories whose full name or language contains term,
// ordered by contributor count (descending, then by name).
func FilterRepositories(byRepo map[string]domain.RepositorySummary, term string) []domain.RepositorySummary {
	term = strings.ToLower(term)
	out := make([]domain.RepositorySummary, 0, len(byRepo))
	for _, r := range byRepo {
		if strings.Contains(strings.ToLower(r.FullName), term) ||
			(r.Language != "" && strings.Contains(strings.ToLower(r.Language), term)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContributorCount != out[j].ContributorCount {
			return out[i].ContributorCount > out[j].ContributorCount
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}

// RepositoryCard is a repository with its leading contributors.
type RepositoryCard struct {
	domain.RepositorySummary
	Visibility string               `json:"visibility"`
	Chips      []domain.Contributor `json:"chips"`
	More       int                  `json:"more"`
}

// NewRepositoryCard keeps the first MaxContributorChips contributors and counts the rest.
func NewRepositoryCard(r domain.RepositorySummary) RepositoryCard {
	card := RepositoryCard{RepositorySummary: r, Visibility: "Public", Chips: r.Contributors}
	if r.Private {
		card.Visibility = "Private"
	}
	if len(r.Contributors) > MaxContributorChips {
		card.Chips = r.Contributors[:MaxContributorChips]
		card.More = len(r.Contributors) - MaxContributorChips
	}
	return card
}

// HumanTotals summarizes the accounts that are not bots, and counts the bots.
type HumanTotals struct {
	Contributors       int `json:"contributors"`
	TotalContributions int `json:"totalContributions"`
	MaxContributions   int `json:"maxContributions"`
	Bots               int `json:"bots"`
}

// HumanContributions sums and maximizes per-person totals over non-bot accounts.
// Pass merged summaries: one entry per login, never one per repository.
func HumanContributions(contributors []domain.ContributorSummary) HumanTotals {
	var totals HumanTotals
	for _, c := range contributors {
		if c.IsBot() {
			totals.Bots++
			continue
		}
		totals.Contributors++
		totals.TotalContributions += c.TotalContributions
		totals.MaxContributions = max(totals.MaxContributions, c.TotalContributions)
	}
	return totals
}

// CoreContributors is the development team section of the dashboard.
type CoreContributors struct {
	Repository string                      `json:"repository"`
	Humans     []domain.ContributorSummary `json:"humans"`
	Totals     HumanTotals                 `json:"totals"`
}

// NewCoreContributors keeps the non-bot accounts of records in upstream order.
func NewCoreContributors(repository string, records []domain.Contributor) CoreContributors {
	merged := domain.MergeContributors(records)
	humans := make([]domain.ContributorSummary, 0, len(merged))
	for _, c := range merged {
		if !c.IsBot() {
			humans = append(humans, c)
		}
	}
	return CoreContributors{
		Repository: repository,
		Humans:     humans,
		Totals:     HumanContributions(merged),
	}
}
