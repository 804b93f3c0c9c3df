// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Chain identifiers used by the L2 registry statistics endpoint.
const (
	ChainIDBase     = "8453"
	ChainIDOptimism = "10"
)

// L2ChainStats holds registry counts for a single layer-2 chain.
type L2ChainStats struct {
	ChainID         int     `json:"chainId"`
	TotalFee        float64 `json:"totalFee"`
	TotalPrice      float64 `json:"totalPrice"`
	TotalSubnames   int64   `json:"totalSubnames"`
	TotalRegistries int64   `json:"totalRegistries"`
}

// GlobalL2Statistics is the document returned by the L2 registry statistics endpoint.
// PerChain is keyed by the decimal chain ID.
type GlobalL2Statistics struct {
	PerChain        map[string]L2ChainStats `json:"perChain"`
	TotalSubnames   int64                   `json:"totalSubnames"`
	TotalPrice      float64                 `json:"totalPrice"`
	TotalFee        float64                 `json:"totalFee"`
	TotalRegistries int64                   `json:"totalRegistries"`
}

// OffchainStats is the document returned by the offchain statistics endpoint.
type OffchainStats struct {
	Total        int64            `json:"total"`
	Names        map[string]int64 `json:"names"`
	TotalAPIKeys int64            `json:"totalApiKeys"`
}

// ListingStats is the document returned by the marketplace listing statistics endpoint.
type ListingStats struct {
	TotalDeployedRegistries struct {
		Base     int64 `json:"base"`
		Optimism int64 `json:"optimism"`
	} `json:"totalDeployedRegistries"`
	TotalListings struct {
		Base     int64 `json:"base"`
		Mainnet  int64 `json:"mainnet"`
		Optimism int64 `json:"optimism"`
	} `json:"totalListings"`
	TotalCount int64 `json:"totalCount"`
}

// ResolutionCounts groups the resolution counters shared by the aggregate and per-type views.
type ResolutionCounts struct {
	Total       int64 `json:"total"`
	TotalAddr   int64 `json:"total_addr"`
	TotalText   int64 `json:"total_text"`
	Contenthash int64 `json:"contenthash"`
}

// ResolutionStats is the document returned by the resolution statistics endpoint.
type ResolutionStats struct {
	ResolutionCounts
	PerType struct {
		Base     ResolutionCounts `json:"base"`
		Optimism ResolutionCounts `json:"optimism"`
		Offchain ResolutionCounts `json:"offchain"`
	} `json:"per_type"`
}

// NameCount pairs a parent name with its number of subnames.
type NameCount struct {
	Name     string `json:"name"`
	Subnames int64  `json:"subnames"`
}

// SubnameTotals holds minting totals for one chain.
type SubnameTotals struct {
	Total        int64       `json:"total"`
	Volume       float64     `json:"volume"`
	UniqueMinter int64       `json:"uniqueMinter"`
	Top5Names    []NameCount `json:"top5Names"`
}

// SubnameStats is the document returned by the global subname statistics endpoint.
// The upstream misspells "overall"; the tag follows the wire format.
type SubnameStats struct {
	TotalL2PerChain map[string]SubnameTotals `json:"totalL2PerChain"`
	TotalL1         SubnameTotals            `json:"totalL1"`
	TotalOverall    int64                    `json:"totalOveral"`
	UniqueMinter    int64                    `json:"uniqueMinter"`
}

// StatsSnapshot bundles the five statistic documents fetched in one load.
// A snapshot is built once and never mutated afterwards.
type StatsSnapshot struct {
	L2         GlobalL2Statistics `json:"l2Stats"`
	Offchain   OffchainStats      `json:"offchainStats"`
	Listing    ListingStats       `json:"listingStats"`
	Resolution ResolutionStats    `json:"resolutionStats"`
	Subname    SubnameStats       `json:"subnameStats"`
	// CoreRepository is "owner/name" of the platform SDK repository; empty when not configured.
	// CoreContributors is empty when its fetch failed; that failure never fails the load.
	CoreRepository   string        `json:"coreRepository,omitempty"`
	CoreContributors []Contributor `json:"coreContributors"`
	FetchedAt        time.Time     `json:"fetchedAt"`
}

// StatsState is what the presentation layer reads: the latest published snapshot,
// the error message of the latest load (if it failed) and whether a load is in flight.
type StatsState struct {
	Snapshot *StatsSnapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
	Loading  bool           `json:"loading"`
}
