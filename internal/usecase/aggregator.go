// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/gateway"
)

// StatsLoadError is the message published when any statistics request fails.
const StatsLoadError = "Failed to load statistics"

// StatsAggregator is the use case for loading the platform statistics.
// It fetches the five statistics documents concurrently and publishes them as one snapshot.
type StatsAggregator struct {
	fetcher gateway.StatsFetcher
	logger  zerolog.Logger
	now     func() time.Time

	core      gateway.RepositoryFetcher
	coreOwner string
	coreRepo  string

	mu    sync.RWMutex
	state domain.StatsState
}

// StatsOption configures a StatsAggregator.
type StatsOption func(*StatsAggregator)

// WithCoreContributors also fetches the contributors of owner/repo alongside the statistics.
func WithCoreContributors(fetcher gateway.RepositoryFetcher, owner, repo string) StatsOption {
	return func(a *StatsAggregator) {
		a.core = fetcher
		a.coreOwner = owner
		a.coreRepo = repo
	}
}

// NewStatsAggregator creates a new StatsAggregator instance.
func NewStatsAggregator(fetcher gateway.StatsFetcher, logger zerolog.Logger, opts ...StatsOption) *StatsAggregator {
	a := &StatsAggregator{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load fetches all five documents concurrently and waits for all of them.
// On success the new snapshot replaces the previous one and the error is cleared.
// On any failure the error state is published and the previous snapshot is kept.
// The core contributors, when configured, are fetched alongside; their failure only empties that list.
func (a *StatsAggregator) Load(ctx context.Context) (*domain.StatsSnapshot, error) {
	a.logger.Debug().Msg("loading statistics")
	a.setLoading()

	var (
		l2         *domain.GlobalL2Statistics
		offchain   *domain.OffchainStats
		listing    *domain.ListingStats
		resolution *domain.ResolutionStats
		subname    *domain.SubnameStats
		core       = make([]domain.Contributor, 0)
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		l2, err = a.fetcher.FetchL2Stats(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		offchain, err = a.fetcher.FetchOffchainStats(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		listing, err = a.fetcher.FetchListingStats(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		resolution, err = a.fetcher.FetchResolutionStats(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		subname, err = a.fetcher.FetchSubnameStats(egCtx)
		return err
	})

	if a.core != nil {
		eg.Go(func() error {
			contributors, err := a.core.ListContributors(egCtx, a.coreOwner, a.coreRepo)
			if err != nil {
				a.logger.Warn().Err(err).Str("repo", a.coreOwner+"/"+a.coreRepo).Msg("error fetching core contributors")
				return nil
			}
			core = contributors
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		a.logger.Error().Err(err).Msg("error fetching stats")
		a.publishError()
		return nil, err
	}

	snapshot := &domain.StatsSnapshot{
		L2:         *l2,
		Offchain:   *offchain,
		Listing:    *listing,
		Resolution: *resolution,
		Subname:    *subname,

		CoreContributors: core,
		FetchedAt:        a.now(),
	}
	if a.core != nil {
		snapshot.CoreRepository = a.coreOwner + "/" + a.coreRepo
	}
	a.publishSnapshot(snapshot)
	a.logger.Debug().Time("fetched_at", snapshot.FetchedAt).Msg("statistics loaded")
	return snapshot, nil
}

// Refresh is the manual re-invocation of Load.
func (a *StatsAggregator) Refresh(ctx context.Context) (*domain.StatsSnapshot, error) {
	return a.Load(ctx)
}

// State returns the currently published state.
func (a *StatsAggregator) State() domain.StatsState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *StatsAggregator) setLoading() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Loading = true
	a.state.Error = ""
}

func (a *StatsAggregator) publishSnapshot(s *domain.StatsSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = domain.StatsState{Snapshot: s}
}

func (a *StatsAggregator) publishError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Loading = false
	a.state.Error = StatsLoadError
}
