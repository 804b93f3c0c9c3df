// Package config loads application configuration from an optional YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	GitHub       GitHubConfig       `yaml:"github"`
	Stats        StatsConfig        `yaml:"stats"`
	Contributors ContributorsConfig `yaml:"contributors"`
	Cache        CacheConfig        `yaml:"cache"`
	Server       ServerConfig       `yaml:"server"`
	LogLevel     string             `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// GitHubConfig configures access to the GitHub REST API.
type GitHubConfig struct {
	Token      string        `yaml:"token" env:"GITHUB_TOKEN"`
	APIURL     string        `yaml:"api_url" env:"GITHUB_API_URL"`
	User       string        `yaml:"user" env:"GITHUB_USER" env-default:"thenamespace"`
	SleepLimit time.Duration `yaml:"sleep_limit" env:"GITHUB_SLEEP_LIMIT" env-default:"1h"`
}

// StatsConfig lists the statistics endpoints.
type StatsConfig struct {
	L2URL         string        `yaml:"l2_url" env:"STATS_L2_URL" env-default:"https://indexer.namespace.ninja/api/v1/l2-subnames/stats"`
	OffchainURL   string        `yaml:"offchain_url" env:"STATS_OFFCHAIN_URL" env-default:"https://offchain-manager.namespace.ninja/api/v1/statistics"`
	ListingURL    string        `yaml:"listing_url" env:"STATS_LISTING_URL" env-default:"https://list-manager.namespace.ninja/api/v1/listing/stats"`
	ResolutionURL string        `yaml:"resolution_url" env:"STATS_RESOLUTION_URL" env-default:"https://indexer.namespace.ninja/api/v1/ccip-resolutions/total"`
	SubnameURL    string        `yaml:"subname_url" env:"STATS_SUBNAME_URL" env-default:"https://indexer.namespace.ninja/api/v1/stats/global"`
	// Timeout of 0 keeps the transport default (no timeout).
	Timeout time.Duration `yaml:"timeout" env:"STATS_TIMEOUT"`
	// CoreRepository is the "owner/name" whose contributors make up the development team
	// section. Empty disables that fetch.
	CoreRepository string `yaml:"core_repository" env:"STATS_CORE_REPOSITORY" env-default:"thenamespace/namespacesdk"`
}

// CoreRepositoryParts splits CoreRepository into owner and name.
// ok is false when no core repository is configured.
func (s StatsConfig) CoreRepositoryParts() (owner, name string, ok bool) {
	owner, name, found := strings.Cut(s.CoreRepository, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}

// ContributorsConfig tunes the contributor aggregation.
type ContributorsConfig struct {
	PageSize        int           `yaml:"page_size" env:"CONTRIBUTORS_PAGE_SIZE" env-default:"100"`
	PageInterval    time.Duration `yaml:"page_interval" env:"CONTRIBUTORS_PAGE_INTERVAL" env-default:"100ms"`
	RepoInterval    time.Duration `yaml:"repo_interval" env:"CONTRIBUTORS_REPO_INTERVAL" env-default:"200ms"`
	TopContributors int           `yaml:"top_contributors" env:"CONTRIBUTORS_TOP" env-default:"20"`
	TopRepositories int           `yaml:"top_repositories" env:"CONTRIBUTORS_TOP_REPOSITORIES" env-default:"10"`
}

// CacheConfig selects where contributor datasets are cached.
type CacheConfig struct {
	Driver string        `yaml:"driver" env:"CACHE_DRIVER" env-default:"memory"`
	Path   string        `yaml:"path" env:"CACHE_PATH" env-default:"namespace-stats-cache.db"`
	Expiry time.Duration `yaml:"expiry" env:"CACHE_EXPIRY" env-default:"30m"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address        string        `yaml:"address" env:"SERVER_ADDRESS" env-default:":8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"5m"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load reads the .env file (if any), then the YAML file at path (if given),
// then environment variables, applying defaults for anything left unset.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be corrected silently.
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheDriver, c.Cache.Driver)
	}
	if c.Contributors.PageSize < 1 || c.Contributors.PageSize > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, c.Contributors.PageSize)
	}
	if c.Cache.Expiry <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidExpiry, c.Cache.Expiry)
	}
	if c.Stats.CoreRepository != "" {
		if _, _, ok := c.Stats.CoreRepositoryParts(); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidRepository, c.Stats.CoreRepository)
		}
	}
	return nil
}
