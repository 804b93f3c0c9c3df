package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/namespace-stats/internal/cache"
	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/gateway"
)

// mockRepoFetcher is a mock implementation of the gateway.RepositoryFetcher interface.
type mockRepoFetcher struct {
	mock.Mock
}

func (m *mockRepoFetcher) ListRepositories(ctx context.Context, user string, page, perPage int) (*gateway.RepositoryPage, error) {
	args := m.Called(ctx, user, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RepositoryPage), args.Error(1)
}

func (m *mockRepoFetcher) ListContributors(ctx context.Context, owner, repo string) ([]domain.Contributor, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contributor), args.Error(1)
}

// mockDatasetCache lets tests make the cache fail.
type mockDatasetCache struct {
	mock.Mock
}

func (m *mockDatasetCache) Load(ctx context.Context, user string) (*cache.Entry, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Entry), args.Error(1)
}

func (m *mockDatasetCache) Save(ctx context.Context, user string, dataset domain.ContributorDataset) (*cache.Entry, error) {
	args := m.Called(ctx, user, dataset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Entry), args.Error(1)
}

func (m *mockDatasetCache) Clear(ctx context.Context, user string) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockDatasetCache) Remaining(ctx context.Context, user string) (time.Duration, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(time.Duration), args.Error(1)
}

func repo(name string) domain.Repository {
	return domain.Repository{FullName: "acme/" + name, Owner: "acme", Name: name}
}

func contributor(login string, n int, repoName string) domain.Contributor {
	return domain.Contributor{Login: login, Contributions: n, Repository: "acme/" + repoName}
}

func newTestCache(now func() time.Time) *cache.ContributorCache {
	return cache.NewContributorCache(cache.NewMemoryStore(cache.WithClock(now)), 30*time.Minute, cache.WithClock(now))
}

func statusErr(code int) error {
	return &gateway.StatusError{Op: "list contributors", StatusCode: code, Err: errors.New(http.StatusText(code))}
}

func TestContributorAggregator_TwoRepositoryScenario(t *testing.T) {
	fetcher := new(mockRepoFetcher)
	fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).
		Return(&gateway.RepositoryPage{Repositories: []domain.Repository{repo("A"), repo("B")}}, nil).Once()
	fetcher.On("ListContributors", mock.Anything, "acme", "A").
		Return([]domain.Contributor{contributor("alice", 10, "A")}, nil).Once()
	fetcher.On("ListContributors", mock.Anything, "acme", "B").
		Return([]domain.Contributor{contributor("alice", 5, "B"), contributor("bob", 3, "B")}, nil).Once()

	aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{}, zerolog.Nop())
	result, err := aggregator.Aggregate(context.Background(), "acme", false)
	require.NoError(t, err)
	assert.False(t, result.FromCache)

	summary := result.Dataset.Summary
	assert.Equal(t, 2, summary.UniqueContributors)
	assert.Equal(t, 3, summary.TotalContributors)
	assert.Equal(t, 18, summary.TotalContributions)
	require.Len(t, summary.TopContributors, 2)
	assert.Equal(t, "alice", summary.TopContributors[0].Login)
	assert.Equal(t, 15, summary.TopContributors[0].TotalContributions)
	assert.Equal(t, []domain.RepoContribution{{Repo: "acme/A", Contributions: 10}, {Repo: "acme/B", Contributions: 5}}, summary.TopContributors[0].Repositories)
	assert.Equal(t, "bob", summary.TopContributors[1].Login)
	assert.Equal(t, 3, summary.TopContributors[1].TotalContributions)

	require.Len(t, summary.TopRepositories, 2)
	assert.Equal(t, "acme/B", summary.TopRepositories[0].FullName)
	assert.Equal(t, 2, summary.TopRepositories[0].ContributorCount)
	assert.Equal(t, 8, summary.TopRepositories[0].TotalContributions)

	fetcher.AssertExpectations(t)
}

func TestContributorAggregator_PaginationTerminates(t *testing.T) {
	testCases := []struct {
		repoCount int
		pageSize  int
	}{
		{repoCount: 1, pageSize: 100},
		{repoCount: 99, pageSize: 100},
		{repoCount: 200, pageSize: 100},
		{repoCount: 250, pageSize: 100},
		{repoCount: 7, pageSize: 3},
		{repoCount: 9, pageSize: 3},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d repos / page size %d", tc.repoCount, tc.pageSize), func(t *testing.T) {
			fetcher := new(mockRepoFetcher)
			pages := (tc.repoCount + tc.pageSize - 1) / tc.pageSize
			for p := 1; p <= pages; p++ {
				start := (p - 1) * tc.pageSize
				end := min(start+tc.pageSize, tc.repoCount)
				page := &gateway.RepositoryPage{}
				for i := start; i < end; i++ {
					page.Repositories = append(page.Repositories, repo(fmt.Sprintf("r%03d", i)))
				}
				if p < pages {
					page.NextPage = p + 1
				} else {
					page.Last = p > 1
				}
				fetcher.On("ListRepositories", mock.Anything, "acme", p, tc.pageSize).Return(page, nil).Once()
			}
			fetcher.On("ListContributors", mock.Anything, "acme", mock.Anything).Return([]domain.Contributor{}, nil)

			aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{PageSize: tc.pageSize}, zerolog.Nop())
			result, err := aggregator.Aggregate(context.Background(), "acme", true)
			require.NoError(t, err)

			assert.Len(t, result.Dataset.Repositories, tc.repoCount)
			fetcher.AssertNumberOfCalls(t, "ListRepositories", pages)
			fetcher.AssertNumberOfCalls(t, "ListContributors", tc.repoCount)
		})
	}
}

func TestContributorAggregator_ShortPageEndsPaginationWithoutNextLink(t *testing.T) {
	fetcher := new(mockRepoFetcher)
	fetcher.On("ListRepositories", mock.Anything, "acme", 1, 2).
		Return(&gateway.RepositoryPage{Repositories: []domain.Repository{repo("A")}, NextPage: 2}, nil).Once()
	fetcher.On("ListContributors", mock.Anything, "acme", "A").Return([]domain.Contributor{}, nil)

	aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{PageSize: 2}, zerolog.Nop())
	_, err := aggregator.Aggregate(context.Background(), "acme", true)
	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "ListRepositories", 1)
}

func TestContributorAggregator_PaginationWithoutLinkHeaders(t *testing.T) {
	testCases := []struct {
		name          string
		pages         [][]domain.Repository
		expectedCalls int
	}{
		{
			name:          "full pages continue until a short page",
			pages:         [][]domain.Repository{{repo("A"), repo("B")}, {repo("C"), repo("D")}, {repo("E")}},
			expectedCalls: 3,
		},
		{
			name:          "an empty page ends the loop",
			pages:         [][]domain.Repository{{repo("A"), repo("B")}, {}},
			expectedCalls: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockRepoFetcher)
			total := 0
			for i, repos := range tc.pages {
				total += len(repos)
				fetcher.On("ListRepositories", mock.Anything, "acme", i+1, 2).
					Return(&gateway.RepositoryPage{Repositories: repos}, nil).Once()
			}
			fetcher.On("ListContributors", mock.Anything, "acme", mock.Anything).Return([]domain.Contributor{}, nil)

			aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{PageSize: 2}, zerolog.Nop())
			result, err := aggregator.Aggregate(context.Background(), "acme", true)
			require.NoError(t, err)

			assert.Len(t, result.Dataset.Repositories, total)
			fetcher.AssertNumberOfCalls(t, "ListRepositories", tc.expectedCalls)
		})
	}
}

func TestContributorAggregator_ContributorFailuresAreNotFatal(t *testing.T) {
	fetcher := new(mockRepoFetcher)
	fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).
		Return(&gateway.RepositoryPage{Repositories: []domain.Repository{repo("forbidden"), repo("missing"), repo("broken"), repo("ok")}}, nil)
	fetcher.On("ListContributors", mock.Anything, "acme", "forbidden").Return(nil, statusErr(http.StatusForbidden))
	fetcher.On("ListContributors", mock.Anything, "acme", "missing").Return(nil, statusErr(http.StatusNotFound))
	fetcher.On("ListContributors", mock.Anything, "acme", "broken").Return(nil, statusErr(http.StatusBadGateway))
	fetcher.On("ListContributors", mock.Anything, "acme", "ok").Return([]domain.Contributor{contributor("carol", 4, "ok")}, nil)

	aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{}, zerolog.Nop())
	result, err := aggregator.Aggregate(context.Background(), "acme", false)
	require.NoError(t, err)

	dataset := result.Dataset
	assert.Len(t, dataset.Repositories, 4)
	assert.Len(t, dataset.ContributorsByRepo, 1)
	assert.Contains(t, dataset.ContributorsByRepo, "acme/ok")
	assert.Equal(t, 4, dataset.Summary.TotalRepositories)
	assert.Equal(t, 1, dataset.Summary.RepositoriesWithContributors)
	assert.Equal(t, 1, dataset.Summary.UniqueContributors)
	fetcher.AssertNumberOfCalls(t, "ListContributors", 4)
}

func TestContributorAggregator_FatalErrors(t *testing.T) {
	t.Run("repository listing fails", func(t *testing.T) {
		fetcher := new(mockRepoFetcher)
		fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).Return(nil, statusErr(http.StatusForbidden))

		aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{}, zerolog.Nop())
		result, err := aggregator.Aggregate(context.Background(), "acme", false)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, gateway.ErrForbidden)
		assert.Contains(t, err.Error(), "failed to fetch repositories for acme")
		fetcher.AssertNotCalled(t, "ListContributors", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no repositories", func(t *testing.T) {
		fetcher := new(mockRepoFetcher)
		fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).Return(&gateway.RepositoryPage{}, nil)

		aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{}, zerolog.Nop())
		_, err := aggregator.Aggregate(context.Background(), "acme", false)
		assert.ErrorIs(t, err, ErrNoRepositories)
	})

	t.Run("missing user", func(t *testing.T) {
		aggregator := NewContributorAggregator(new(mockRepoFetcher), newTestCache(time.Now), ContributorOptions{}, zerolog.Nop())
		_, err := aggregator.Aggregate(context.Background(), "", false)
		assert.ErrorIs(t, err, ErrUserRequired)
	})
}

func TestContributorAggregator_CacheLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	fetcher := new(mockRepoFetcher)
	fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).
		Return(&gateway.RepositoryPage{Repositories: []domain.Repository{repo("A")}}, nil)
	fetcher.On("ListContributors", mock.Anything, "acme", "A").
		Return([]domain.Contributor{contributor("alice", 10, "A")}, nil)

	aggregator := NewContributorAggregator(fetcher, newTestCache(clock), ContributorOptions{}, zerolog.Nop())

	// T: first load goes to the network and populates the cache.
	first, err := aggregator.Aggregate(ctx, "acme", false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, now, first.FetchedAt)
	fetcher.AssertNumberOfCalls(t, "ListRepositories", 1)

	// T+10m: served from the cache without network activity.
	now = now.Add(10 * time.Minute)
	second, err := aggregator.Aggregate(ctx, "acme", false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Dataset, second.Dataset)
	fetcher.AssertNumberOfCalls(t, "ListRepositories", 1)

	left, err := aggregator.CacheTimeRemaining(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, left)

	// forced refresh ignores the cache.
	third, err := aggregator.Aggregate(ctx, "acme", true)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	fetcher.AssertNumberOfCalls(t, "ListRepositories", 2)

	// T+10m+31m: the entry written at T+10m has expired, so the network is used again.
	now = now.Add(31 * time.Minute)
	_, err = aggregator.Cached(ctx, "acme")
	assert.ErrorIs(t, err, cache.ErrMiss)
	fourth, err := aggregator.Aggregate(ctx, "acme", false)
	require.NoError(t, err)
	assert.False(t, fourth.FromCache)
	fetcher.AssertNumberOfCalls(t, "ListRepositories", 3)

	// clearing the cache forces the next load to the network.
	require.NoError(t, aggregator.ClearCache(ctx, "acme"))
	_, err = aggregator.Aggregate(ctx, "acme", false)
	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "ListRepositories", 4)
}

func TestContributorAggregator_CachedNeverTouchesNetwork(t *testing.T) {
	fetcher := new(mockRepoFetcher)
	aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), ContributorOptions{}, zerolog.Nop())

	_, err := aggregator.Cached(context.Background(), "acme")
	assert.ErrorIs(t, err, cache.ErrMiss)
	fetcher.AssertNotCalled(t, "ListRepositories", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContributorAggregator_CacheFailuresAreSwallowed(t *testing.T) {
	fetcher := new(mockRepoFetcher)
	fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).
		Return(&gateway.RepositoryPage{Repositories: []domain.Repository{repo("A")}}, nil)
	fetcher.On("ListContributors", mock.Anything, "acme", "A").
		Return([]domain.Contributor{contributor("alice", 1, "A")}, nil)

	c := new(mockDatasetCache)
	c.On("Load", mock.Anything, "acme").Return(nil, errors.New("corrupted entry"))
	c.On("Save", mock.Anything, "acme", mock.Anything).Return(nil, errors.New("quota exceeded"))

	aggregator := NewContributorAggregator(fetcher, c, ContributorOptions{}, zerolog.Nop())
	result, err := aggregator.Aggregate(context.Background(), "acme", false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dataset.Summary.TotalContributions)
	c.AssertExpectations(t)
}

func TestContributorAggregator_ReportsProgress(t *testing.T) {
	fetcher := new(mockRepoFetcher)
	fetcher.On("ListRepositories", mock.Anything, "acme", 1, 100).
		Return(&gateway.RepositoryPage{Repositories: []domain.Repository{repo("A"), repo("B")}}, nil)
	fetcher.On("ListContributors", mock.Anything, "acme", mock.Anything).Return([]domain.Contributor{}, nil)

	var seen []domain.Progress
	opts := ContributorOptions{OnProgress: func(p domain.Progress) { seen = append(seen, p) }}
	aggregator := NewContributorAggregator(fetcher, newTestCache(time.Now), opts, zerolog.Nop())
	_, err := aggregator.Aggregate(context.Background(), "acme", true)
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Contains(t, seen, domain.Progress{Current: 2, Total: 2, Stage: "Processing B (2/2)"})
	assert.Equal(t, domain.Progress{Current: 2, Total: 2, Stage: "Complete!"}, seen[len(seen)-1])
}
