// Package gateway provides gateways to the upstream HTTP APIs,
// abstracting away the underlying REST clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

// contributorsPerPage matches the single page the contributor listing asks for.
const contributorsPerPage = 100

// RepositoryPage is one page of a repository listing.
// NextPage is zero when the upstream reports no further pages. Last is set only when
// the pagination links positively mark this page as the final one; responses without
// pagination links leave it false.
type RepositoryPage struct {
	Repositories []domain.Repository
	NextPage     int
	Last         bool
}

// RepositoryFetcher defines the behavior of a gateway for fetching repositories and contributors.
type RepositoryFetcher interface {
	ListRepositories(ctx context.Context, user string, page, perPage int) (*RepositoryPage, error)
	ListContributors(ctx context.Context, owner, repo string) ([]domain.Contributor, error)
}

// GitHubOptions configures the GitHub gateway.
type GitHubOptions struct {
	// Token is optional; without it requests are sent unauthenticated.
	Token string
	// APIURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	APIURL string
	// SleepLimit caps a single secondary rate-limit sleep.
	SleepLimit time.Duration
}

// GitHubGateway is the concrete implementation of the RepositoryFetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	logger     zerolog.Logger
}

var _ RepositoryFetcher = (*GitHubGateway)(nil)

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts GitHubOptions, logger zerolog.Logger) (*GitHubGateway, error) {
	sleepLimit := opts.SleepLimit
	if sleepLimit <= 0 {
		sleepLimit = time.Hour
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(sleepLimit, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	restClient := github.NewClient(&http.Client{Transport: transport})

	if opts.APIURL != "" {
		baseURL, err := parseBaseURL(opts.APIURL)
		if err != nil {
			return nil, err
		}
		restClient.BaseURL = baseURL
	}

	return &GitHubGateway{
		restClient: restClient,
		logger:     logger.With().Str("gateway", "github").Logger(),
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GitHub API URL %q: %w", raw, err)
	}
	return u, nil
}

// ListRepositories fetches a single page of the user's repositories (all types).
func (g *GitHubGateway) ListRepositories(ctx context.Context, user string, page, perPage int) (*RepositoryPage, error) {
	g.logger.Debug().Str("user", user).Int("page", page).Msg("fetching repositories")
	opts := &github.RepositoryListByUserOptions{
		Type:        "all",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	repos, resp, err := g.restClient.Repositories.ListByUser(ctx, user, opts)
	if err != nil {
		return nil, newStatusError("list repositories", resp, err)
	}

	result := &RepositoryPage{Repositories: make([]domain.Repository, 0, len(repos))}
	for _, r := range repos {
		result.Repositories = append(result.Repositories, toRepository(r))
	}
	if resp != nil {
		result.NextPage = resp.NextPage
		result.Last = resp.NextPage == 0 && resp.PrevPage != 0
	}
	return result, nil
}

// ListContributors fetches the contributors of a single repository.
func (g *GitHubGateway) ListContributors(ctx context.Context, owner, repo string) ([]domain.Contributor, error) {
	fullName := owner + "/" + repo
	g.logger.Debug().Str("repo", fullName).Msg("fetching contributors")
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: contributorsPerPage}}
	contributors, resp, err := g.restClient.Repositories.ListContributors(ctx, owner, repo, opts)
	if err != nil {
		return nil, newStatusError("list contributors of "+fullName, resp, err)
	}

	result := make([]domain.Contributor, 0, len(contributors))
	for _, c := range contributors {
		result = append(result, domain.Contributor{
			Login:         c.GetLogin(),
			AvatarURL:     c.GetAvatarURL(),
			HTMLURL:       c.GetHTMLURL(),
			Type:          c.GetType(),
			Contributions: c.GetContributions(),
			Repository:    fullName,
		})
	}
	return result, nil
}

func toRepository(r *github.Repository) domain.Repository {
	return domain.Repository{
		FullName:    r.GetFullName(),
		Owner:       r.GetOwner().GetLogin(),
		Name:        r.GetName(),
		Private:     r.GetPrivate(),
		HTMLURL:     r.GetHTMLURL(),
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
	}
}

func newStatusError(op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return &StatusError{Op: op, StatusCode: status, Err: err}
}
