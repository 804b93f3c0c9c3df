package domain

// ContributorTypeBot is the account type GitHub reports for automation accounts.
const ContributorTypeBot = "Bot"

// Repository holds the metadata of a single repository owned by the requested identity.
type Repository struct {
	FullName    string `json:"full_name"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Private     bool   `json:"private"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
}

// Contributor is one contributor of one repository.
type Contributor struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	HTMLURL       string `json:"html_url"`
	Type          string `json:"type,omitempty"`
	Contributions int    `json:"contributions"`
	Repository    string `json:"repository"`
}

// RepoContribution is the number of contributions a contributor made to one repository.
type RepoContribution struct {
	Repo          string `json:"repo"`
	Contributions int    `json:"contributions"`
}

// ContributorSummary merges every Contributor record sharing a login.
type ContributorSummary struct {
	Login              string             `json:"login"`
	AvatarURL          string             `json:"avatar_url"`
	HTMLURL            string             `json:"html_url"`
	Type               string             `json:"type,omitempty"`
	TotalContributions int                `json:"totalContributions"`
	Repositories       []RepoContribution `json:"repositories"`
}

// IsBot reports whether the account is an automation account.
func (c ContributorSummary) IsBot() bool {
	return c.Type == ContributorTypeBot
}

// MergeContributors merges records by login in first-seen order.
func MergeContributors(records []Contributor) []ContributorSummary {
	index := make(map[string]int)
	merged := make([]ContributorSummary, 0)
	for _, c := range records {
		i, ok := index[c.Login]
		if !ok {
			i = len(merged)
			index[c.Login] = i
			merged = append(merged, ContributorSummary{
				Login:     c.Login,
				AvatarURL: c.AvatarURL,
				HTMLURL:   c.HTMLURL,
				Type:      c.Type,
			})
		}
		merged[i].TotalContributions += c.Contributions
		merged[i].Repositories = append(merged[i].Repositories, RepoContribution{
			Repo:          c.Repository,
			Contributions: c.Contributions,
		})
	}
	return merged
}

// RepositorySummary is a repository together with its resolved contributors.
type RepositorySummary struct {
	Repository
	Contributors       []Contributor `json:"contributors"`
	ContributorCount   int           `json:"contributorCount"`
	TotalContributions int           `json:"totalContributions"`
}

// ContributionStats describes the distribution of per-contributor totals.
type ContributionStats struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Percentile90 float64 `json:"p90"`
}

// Summary holds the global statistics of a contributor dataset.
type Summary struct {
	TotalRepositories            int                  `json:"totalRepositories"`
	RepositoriesWithContributors int                  `json:"repositoriesWithContributors"`
	PrivateRepositories          int                  `json:"privateRepositories"`
	PublicRepositories           int                  `json:"publicRepositories"`
	UniqueContributors           int                  `json:"uniqueContributors"`
	TotalContributors            int                  `json:"totalContributors"`
	TotalContributions           int                  `json:"totalContributions"`
	TopContributors              []ContributorSummary `json:"topContributors"`
	TopRepositories              []RepositorySummary  `json:"topRepositories"`
	Distribution                 ContributionStats    `json:"distribution"`
}

// ContributorDataset is the merged result of one contributor aggregation.
// ContributorsByRepo is keyed by repository full name and only holds repositories
// that have at least one contributor.
type ContributorDataset struct {
	Repositories       []Repository                 `json:"repositories"`
	ContributorsByRepo map[string]RepositorySummary `json:"contributorsByRepo"`
	AllContributors    []Contributor                `json:"allContributors"`
	Summary            Summary                      `json:"summary"`
}

// Progress reports how far an aggregation has come.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Stage   string `json:"stage"`
}
