package view

import (
	"sort"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

// OffchainPageStep is how many more names "show more" reveals.
const OffchainPageStep = 25

// DefaultVisibleOffchainNames is the length of the collapsed offchain list.
const DefaultVisibleOffchainNames = 5

// Card is a single headline number.
type Card struct {
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// Slice is one segment of a pie chart.
type Slice struct {
	Name    string  `json:"name"`
	Value   int64   `json:"value"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
}

// PieChart is a titled list of slices; Percent ratios sum to 1 unless every value is zero.
type PieChart struct {
	Title  string  `json:"title"`
	Total  int64   `json:"total"`
	Slices []Slice `json:"slices"`
}

// Dashboard is the whole statistics view.
// Core is the development team section; it is empty when its contributor fetch failed.
type Dashboard struct {
	Overview  []Card           `json:"overview"`
	Subnames  []Card           `json:"subnames"`
	Listings  []Card           `json:"listings"`
	Registry  []Card           `json:"registry"`
	Charts    []PieChart       `json:"charts"`
	Core      CoreContributors `json:"core"`
	FetchedAt string           `json:"fetchedAt"`
}

// Dashboard chart titles.
const (
	ChartSubnamesPerChain    = "Subnames per chain"
	ChartRegistriesPerChain  = "L2 registries per chain"
	ChartResolutionsPerChain = "Resolutions per chain"
	ChartResolutionTypes     = "Resolution types"
)

// TotalSubnames is every minted subname: the global onchain total plus offchain names.
func TotalSubnames(s *domain.StatsSnapshot) int64 {
	return s.Subname.TotalOverall + s.Offchain.Total
}

// TotalVolume is the minting volume in ETH across mainnet, Base and Optimism.
func TotalVolume(s *domain.StatsSnapshot) float64 {
	return s.Subname.TotalL1.Volume +
		s.Subname.TotalL2PerChain["base"].Volume +
		s.Subname.TotalL2PerChain["optimism"].Volume
}

// BuildDashboard derives every card and chart from a snapshot.
func BuildDashboard(s *domain.StatsSnapshot) Dashboard {
	base := s.Subname.TotalL2PerChain["base"]
	optimism := s.Subname.TotalL2PerChain["optimism"]
	baseRegistry := s.L2.PerChain[domain.ChainIDBase]
	optimismRegistry := s.L2.PerChain[domain.ChainIDOptimism]

	return Dashboard{
		Overview: []Card{
			countCard("Total Subnames", TotalSubnames(s)),
			{Title: "Total Volume", Value: TotalVolume(s), Formatted: FormatPrice(TotalVolume(s)) + " ETH"},
			countCard("Total Resolutions", s.Resolution.Total),
		},
		Subnames: []Card{
			countCard("Onchain Subnames", s.Subname.TotalOverall),
			countCard("Unique Minters", s.Subname.UniqueMinter),
			countCard("Base Subnames", base.Total),
			countCard("Optimism Subnames", optimism.Total),
			countCard("Mainnet Subnames", s.Subname.TotalL1.Total),
		},
		Listings: []Card{
			countCard("Mainnet Listings", s.Listing.TotalListings.Mainnet),
			countCard("Base Listings", s.Listing.TotalListings.Base),
			countCard("Optimism Listings", s.Listing.TotalListings.Optimism),
		},
		Registry: []Card{
			countCard("Base Registries", baseRegistry.TotalRegistries),
			countCard("Optimism Registries", optimismRegistry.TotalRegistries),
			{Title: "Total Fee", Value: s.L2.TotalFee, Formatted: FormatPrice(s.L2.TotalFee)},
			countCard("Total Registries", s.L2.TotalRegistries),
		},
		Charts: []PieChart{
			NewPieChart(ChartSubnamesPerChain, []Slice{
				{Name: "Mainnet", Value: s.Subname.TotalL1.Total},
				{Name: "Base", Value: base.Total},
				{Name: "Optimism", Value: optimism.Total},
				{Name: "Offchain", Value: s.Offchain.Total},
			}),
			NewPieChart(ChartRegistriesPerChain, []Slice{
				{Name: "Base", Value: baseRegistry.TotalRegistries},
				{Name: "Optimism", Value: optimismRegistry.TotalRegistries},
			}),
			NewPieChart(ChartResolutionsPerChain, []Slice{
				{Name: "Base", Value: s.Resolution.PerType.Base.Total},
				{Name: "Optimism", Value: s.Resolution.PerType.Optimism.Total},
				{Name: "Offchain", Value: s.Resolution.PerType.Offchain.Total},
			}),
			NewPieChart(ChartResolutionTypes, []Slice{
				{Name: "Text", Value: s.Resolution.TotalText},
				{Name: "Address", Value: s.Resolution.TotalAddr},
				{Name: "ContentHash", Value: s.Resolution.Contenthash},
			}),
		},
		Core:      NewCoreContributors(s.CoreRepository, s.CoreContributors),
		FetchedAt: s.FetchedAt.Format("2006-01-02 15:04:05 MST"),
	}
}

func countCard(title string, n int64) Card {
	return Card{Title: title, Value: float64(n), Formatted: FormatNumber(n)}
}

// NewPieChart fills in the total, each slice's percentage and its label.
func NewPieChart(title string, slices []Slice) PieChart {
	var total int64
	for _, s := range slices {
		total += s.Value
	}
	for i := range slices {
		if total > 0 {
			slices[i].Percent = float64(slices[i].Value) / float64(total)
		}
		slices[i].Label = slices[i].Name + ": " + FormatNumber(slices[i].Value)
	}
	return PieChart{Title: title, Total: total, Slices: slices}
}

// NameEntry is one row of the offchain name ranking.
type NameEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// OffchainNameList is the expandable ranking of offchain names.
type OffchainNameList struct {
	Entries   []NameEntry `json:"entries"`
	Visible   int         `json:"visible"`
	Total     int         `json:"total"`
	HasMore   bool        `json:"hasMore"`
	Remaining int         `json:"remaining"`
	// NextStep is how many names the next "show more" would reveal.
	NextStep int `json:"nextStep"`
}

// OffchainNames ranks names by count (descending, then by name) and keeps the first visible ones.
func OffchainNames(stats domain.OffchainStats, visible int) OffchainNameList {
	entries := make([]NameEntry, 0, len(stats.Names))
	for name, count := range stats.Names {
		entries = append(entries, NameEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})

	total := len(entries)
	if visible < 0 {
		visible = 0
	}
	if visible > total {
		visible = total
	}
	remaining := total - visible
	return OffchainNameList{
		Entries:   entries[:visible],
		Visible:   visible,
		Total:     total,
		HasMore:   remaining > 0,
		Remaining: remaining,
		NextStep:  min(OffchainPageStep, remaining),
	}
}

// ShowMore returns the visible count after one "show more" click.
func ShowMore(visible, total int) int {
	return min(visible+OffchainPageStep, total)
}
