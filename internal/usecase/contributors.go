package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/naka-gawa/namespace-stats/internal/cache"
	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/gateway"
	"github.com/naka-gawa/namespace-stats/internal/pacing"
)

// DefaultPageSize is the number of repositories requested per page.
const DefaultPageSize = 100

var (
	// ErrUserRequired is returned when no identity is given.
	ErrUserRequired = errors.New("username is required")
	// ErrNoRepositories is returned when the identity owns no repositories.
	ErrNoRepositories = errors.New("no repositories found for this user")
)

// DatasetCache persists contributor datasets per identity.
type DatasetCache interface {
	Load(ctx context.Context, user string) (*cache.Entry, error)
	Save(ctx context.Context, user string, dataset domain.ContributorDataset) (*cache.Entry, error)
	Clear(ctx context.Context, user string) error
	Remaining(ctx context.Context, user string) (time.Duration, error)
}

// ContributorOptions tunes a ContributorAggregator. Zero values select the defaults.
type ContributorOptions struct {
	PageSize        int
	TopContributors int
	TopRepositories int
	// PagePacer spaces repository page requests; RepoPacer spaces contributor requests.
	PagePacer pacing.Pacer
	RepoPacer pacing.Pacer
	// OnProgress, when set, is called as the aggregation advances.
	OnProgress func(domain.Progress)
}

// ContributorResult is a dataset together with where it came from.
type ContributorResult struct {
	Dataset   domain.ContributorDataset `json:"data"`
	FromCache bool                      `json:"fromCache"`
	FetchedAt time.Time                 `json:"fetchedAt"`
}

// ContributorAggregator is the use case for aggregating the contributors of every
// repository an identity owns.
type ContributorAggregator struct {
	fetcher gateway.RepositoryFetcher
	cache   DatasetCache
	opts    ContributorOptions
	logger  zerolog.Logger
	now     func() time.Time
}

// NewContributorAggregator creates a new ContributorAggregator instance.
func NewContributorAggregator(fetcher gateway.RepositoryFetcher, c DatasetCache, opts ContributorOptions, logger zerolog.Logger) *ContributorAggregator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.TopContributors <= 0 {
		opts.TopContributors = DefaultTopContributors
	}
	if opts.TopRepositories <= 0 {
		opts.TopRepositories = DefaultTopRepositories
	}
	if opts.PagePacer == nil {
		opts.PagePacer = pacing.Nop{}
	}
	if opts.RepoPacer == nil {
		opts.RepoPacer = pacing.Nop{}
	}
	return &ContributorAggregator{
		fetcher: fetcher,
		cache:   c,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Aggregate returns the contributor dataset of user.
// Unless forceRefresh is set, a valid cached dataset is returned without any network activity.
// Only a failure to list repositories aborts; contributor failures count as zero contributors.
func (a *ContributorAggregator) Aggregate(ctx context.Context, user string, forceRefresh bool) (*ContributorResult, error) {
	if user == "" {
		return nil, ErrUserRequired
	}
	log := a.logger.With().Str("user", user).Logger()

	if !forceRefresh {
		if result, err := a.Cached(ctx, user); err == nil {
			log.Debug().Msg("loaded data from cache")
			return result, nil
		}
	}

	a.progress(domain.Progress{Stage: "Starting..."})
	repos, err := a.fetchRepositories(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRepositories, user)
	}

	total := len(repos)
	a.progress(domain.Progress{Total: total, Stage: fmt.Sprintf("Processing %d repositories...", total)})

	all := make([]domain.Contributor, 0)
	byRepo := make(map[string]domain.RepositorySummary)
	for i, repo := range repos {
		a.progress(domain.Progress{
			Current: i + 1,
			Total:   total,
			Stage:   fmt.Sprintf("Processing %s (%d/%d)", repo.Name, i+1, total),
		})
		if err := a.opts.RepoPacer.Wait(ctx); err != nil {
			return nil, err
		}

		contributors := a.fetchContributors(ctx, log, user, repo)
		if len(contributors) == 0 {
			continue
		}
		all = append(all, contributors...)
		byRepo[repo.FullName] = summarizeRepository(repo, contributors)
	}

	dataset := domain.ContributorDataset{
		Repositories:       repos,
		ContributorsByRepo: byRepo,
		AllContributors:    all,
		Summary:            Summarize(repos, byRepo, all, a.opts.TopContributors, a.opts.TopRepositories),
	}

	result := &ContributorResult{Dataset: dataset, FetchedAt: a.now()}
	if entry, err := a.cache.Save(ctx, user, dataset); err != nil {
		log.Warn().Err(err).Msg("error saving to cache, continuing without caching")
	} else {
		result.FetchedAt = entry.WrittenAt
	}

	a.progress(domain.Progress{Current: total, Total: total, Stage: "Complete!"})
	log.Debug().Int("repositories", total).Int("contributors", dataset.Summary.UniqueContributors).Msg("aggregation complete")
	return result, nil
}

// Cached returns the cached dataset of user without touching the network.
// It returns cache.ErrMiss when nothing valid is cached; read failures are logged and count as a miss.
func (a *ContributorAggregator) Cached(ctx context.Context, user string) (*ContributorResult, error) {
	if user == "" {
		return nil, ErrUserRequired
	}
	entry, err := a.cache.Load(ctx, user)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			a.logger.Warn().Err(err).Str("user", user).Msg("error reading from cache")
		}
		return nil, cache.ErrMiss
	}
	return &ContributorResult{Dataset: entry.Dataset, FromCache: true, FetchedAt: entry.WrittenAt}, nil
}

// ClearCache drops the cached dataset of user.
func (a *ContributorAggregator) ClearCache(ctx context.Context, user string) error {
	if err := a.cache.Clear(ctx, user); err != nil {
		return fmt.Errorf("failed to clear cache for %s: %w", user, err)
	}
	return nil
}

// CacheTimeRemaining reports how long the cached dataset of user stays valid.
func (a *ContributorAggregator) CacheTimeRemaining(ctx context.Context, user string) (time.Duration, error) {
	left, err := a.cache.Remaining(ctx, user)
	if err != nil {
		a.logger.Warn().Err(err).Str("user", user).Msg("error checking cache time")
		return 0, nil
	}
	return left, nil
}

// fetchRepositories pages through the repositories of user until a short (or empty) page,
// or a page the upstream marks as the last one. A missing Link header never ends the loop.
func (a *ContributorAggregator) fetchRepositories(ctx context.Context, user string) ([]domain.Repository, error) {
	a.progress(domain.Progress{Stage: "Fetching repositories..."})
	repos := make([]domain.Repository, 0)
	for page := 1; ; page++ {
		if err := a.opts.PagePacer.Wait(ctx); err != nil {
			return nil, err
		}
		result, err := a.fetcher.ListRepositories(ctx, user, page, a.opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch repositories for %s: %w", user, err)
		}
		repos = append(repos, result.Repositories...)
		a.progress(domain.Progress{Stage: fmt.Sprintf("Found %d repositories...", len(repos))})

		if len(result.Repositories) < a.opts.PageSize || result.Last {
			return repos, nil
		}
	}
}

func (a *ContributorAggregator) fetchContributors(ctx context.Context, log zerolog.Logger, user string, repo domain.Repository) []domain.Contributor {
	owner := repo.Owner
	if owner == "" {
		owner = user
	}
	contributors, err := a.fetcher.ListContributors(ctx, owner, repo.Name)
	switch {
	case err == nil:
		return contributors
	case errors.Is(err, gateway.ErrForbidden):
		log.Warn().Str("repo", repo.FullName).Msg("rate limited or no access")
	case errors.Is(err, gateway.ErrNotFound):
		log.Warn().Str("repo", repo.FullName).Msg("repository not found or no contributors")
	default:
		log.Error().Err(err).Str("repo", repo.FullName).Msg("error fetching contributors")
	}
	return nil
}

func (a *ContributorAggregator) progress(p domain.Progress) {
	if a.opts.OnProgress != nil {
		a.opts.OnProgress(p)
	}
}
