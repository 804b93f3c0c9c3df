package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default statistics endpoints.
const (
	DefaultL2StatsURL         = "https://indexer.namespace.ninja/api/v1/l2-subnames/stats"
	DefaultOffchainStatsURL   = "https://offchain-manager.namespace.ninja/api/v1/statistics"
	DefaultListingStatsURL    = "https://list-manager.namespace.ninja/api/v1/listing/stats"
	DefaultResolutionStatsURL = "https://indexer.namespace.ninja/api/v1/ccip-resolutions/total"
	DefaultSubnameStatsURL    = "https://indexer.namespace.ninja/api/v1/stats/global"
)

// StatsFetcher defines the behavior of a gateway for fetching the platform statistics.
type StatsFetcher interface {
	FetchL2Stats(ctx context.Context) (*domain.GlobalL2Statistics, error)
	FetchOffchainStats(ctx context.Context) (*domain.OffchainStats, error)
	FetchListingStats(ctx context.Context) (*domain.ListingStats, error)
	FetchResolutionStats(ctx context.Context) (*domain.ResolutionStats, error)
	FetchSubnameStats(ctx context.Context) (*domain.SubnameStats, error)
}

// Endpoints holds the URL of each statistics endpoint.
type Endpoints struct {
	L2Stats         string
	OffchainStats   string
	ListingStats    string
	ResolutionStats string
	SubnameStats    string
}

// DefaultEndpoints returns the production statistics endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		L2Stats:         DefaultL2StatsURL,
		OffchainStats:   DefaultOffchainStatsURL,
		ListingStats:    DefaultListingStatsURL,
		ResolutionStats: DefaultResolutionStatsURL,
		SubnameStats:    DefaultSubnameStatsURL,
	}
}

// NamespaceGateway fetches statistics documents from the naming platform APIs.
type NamespaceGateway struct {
	client    *http.Client
	endpoints Endpoints
	logger    zerolog.Logger
}

var _ StatsFetcher = (*NamespaceGateway)(nil)

// NewNamespaceGateway creates a gateway. A nil client falls back to http.DefaultClient
// and empty endpoint URLs fall back to DefaultEndpoints.
func NewNamespaceGateway(client *http.Client, endpoints Endpoints, logger zerolog.Logger) *NamespaceGateway {
	if client == nil {
		client = http.DefaultClient
	}
	defaults := DefaultEndpoints()
	for _, e := range []struct {
		url      *string
		fallback string
	}{
		{&endpoints.L2Stats, defaults.L2Stats},
		{&endpoints.OffchainStats, defaults.OffchainStats},
		{&endpoints.ListingStats, defaults.ListingStats},
		{&endpoints.ResolutionStats, defaults.ResolutionStats},
		{&endpoints.SubnameStats, defaults.SubnameStats},
	} {
		if *e.url == "" {
			*e.url = e.fallback
		}
	}
	return &NamespaceGateway{
		client:    client,
		endpoints: endpoints,
		logger:    logger.With().Str("gateway", "namespace").Logger(),
	}
}

func (g *NamespaceGateway) FetchL2Stats(ctx context.Context) (*domain.GlobalL2Statistics, error) {
	var out domain.GlobalL2Statistics
	if err := g.getJSON(ctx, "fetch L2 stats", g.endpoints.L2Stats, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *NamespaceGateway) FetchOffchainStats(ctx context.Context) (*domain.OffchainStats, error) {
	var out domain.OffchainStats
	if err := g.getJSON(ctx, "fetch offchain stats", g.endpoints.OffchainStats, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *NamespaceGateway) FetchListingStats(ctx context.Context) (*domain.ListingStats, error) {
	var out domain.ListingStats
	if err := g.getJSON(ctx, "fetch listing stats", g.endpoints.ListingStats, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *NamespaceGateway) FetchResolutionStats(ctx context.Context) (*domain.ResolutionStats, error) {
	var out domain.ResolutionStats
	if err := g.getJSON(ctx, "fetch resolution stats", g.endpoints.ResolutionStats, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSubnameStats unwraps the document from the top-level "stats" key.
func (g *NamespaceGateway) FetchSubnameStats(ctx context.Context) (*domain.SubnameStats, error) {
	var out struct {
		Stats *domain.SubnameStats `json:"stats"`
	}
	if err := g.getJSON(ctx, "fetch subname stats", g.endpoints.SubnameStats, &out); err != nil {
		return nil, err
	}
	if out.Stats == nil {
		return nil, &StatusError{Op: "fetch subname stats", StatusCode: http.StatusOK, Err: errors.New("response has no stats object")}
	}
	return out.Stats, nil
}

func (g *NamespaceGateway) getJSON(ctx context.Context, op, url string, v any) error {
	g.logger.Debug().Str("url", url).Msg(op)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &StatusError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return &StatusError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	// every statistics document is a JSON object; null and {} carry no data
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(fields) == 0 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: ErrEmptyDocument}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
