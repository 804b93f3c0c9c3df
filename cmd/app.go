package cmd

import (
	"fmt"
	"net/http"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/namespace-stats/internal/cache"
	"github.com/naka-gawa/namespace-stats/internal/config"
	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/gateway"
	"github.com/naka-gawa/namespace-stats/internal/logger"
	"github.com/naka-gawa/namespace-stats/internal/pacing"
	"github.com/naka-gawa/namespace-stats/internal/usecase"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// app holds the dependencies shared by every command.
type app struct {
	cfg          *config.Config
	logger       zerolog.Logger
	store        cache.Store
	stats        *usecase.StatsAggregator
	contributors *usecase.ContributorAggregator
}

// newApp loads the configuration and injects dependencies.
// One-shot commands only log when --verbose is set; long-running ones log at the configured level.
func newApp(cmd *cobra.Command, longRunning bool) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log := logger.ForCLI(verbose, os.Stderr)
	if longRunning {
		level := cfg.LogLevel
		if verbose {
			level = zerolog.DebugLevel.String()
		}
		log = logger.New(level, os.Stderr)
	}

	store, err := newStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	githubGateway, err := gateway.NewGitHubGateway(gateway.GitHubOptions{
		Token:      cfg.GitHub.Token,
		APIURL:     cfg.GitHub.APIURL,
		SleepLimit: cfg.GitHub.SleepLimit,
	}, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	namespaceGateway := gateway.NewNamespaceGateway(&http.Client{Timeout: cfg.Stats.Timeout}, gateway.Endpoints{
		L2Stats:         cfg.Stats.L2URL,
		OffchainStats:   cfg.Stats.OffchainURL,
		ListingStats:    cfg.Stats.ListingURL,
		ResolutionStats: cfg.Stats.ResolutionURL,
		SubnameStats:    cfg.Stats.SubnameURL,
	}, log)

	opts := usecase.ContributorOptions{
		PageSize:        cfg.Contributors.PageSize,
		TopContributors: cfg.Contributors.TopContributors,
		TopRepositories: cfg.Contributors.TopRepositories,
		PagePacer:       pacing.NewInterval(cfg.Contributors.PageInterval),
		RepoPacer:       pacing.NewInterval(cfg.Contributors.RepoInterval),
	}
	if !longRunning {
		opts.OnProgress = func(p domain.Progress) {
			log.Debug().Int("current", p.Current).Int("total", p.Total).Msg(p.Stage)
		}
	}

	var statsOpts []usecase.StatsOption
	if owner, name, ok := cfg.Stats.CoreRepositoryParts(); ok {
		statsOpts = append(statsOpts, usecase.WithCoreContributors(githubGateway, owner, name))
	}

	return &app{
		cfg:          cfg,
		logger:       log,
		store:        store,
		stats:        usecase.NewStatsAggregator(namespaceGateway, log, statsOpts...),
		contributors: usecase.NewContributorAggregator(githubGateway, cache.NewContributorCache(store, cfg.Cache.Expiry), opts, log),
	}, nil
}

func newStore(cfg config.CacheConfig) (cache.Store, error) {
	if cfg.Driver == config.CacheDriverSQLite {
		store, err := cache.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return store, nil
	}
	return cache.NewMemoryStore(), nil
}

// user resolves the --user flag, falling back to the configured identity.
func (a *app) user(cmd *cobra.Command) string {
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		return user
	}
	return a.cfg.GitHub.User
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close cache")
	}
}
