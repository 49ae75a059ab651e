// Package universe defines the fixed 30-ETF investable universe and its
// persistence. The catalog is static reference data: the set of tradable
// tickers never changes at runtime.
package universe

import (
	"sort"

	"github.com/quiverlabs/radar/internal/domain"
)

// ETF describes one instrument in the investable universe.
type ETF struct {
	Ticker       string            `json:"ticker"`
	Name         string            `json:"name"`
	Category     domain.Category   `json:"category"`
	Sector       string            `json:"sector"`
	Geography    string            `json:"geography"`
	AssetClass   domain.AssetClass `json:"asset_class"`
	ExpenseRatio float64           `json:"expense_ratio"`
	Description  string            `json:"description"`
}

// catalog is the full universe, grouped by category. Order within each
// group is the canonical listing order.
var catalog = []ETF{
	// Core
	{"IVV", "iShares Core S&P 500 ETF", domain.CategoryCore, "Broad Market", "US", domain.AssetClassEquity, 0.0003, "Tracks the S&P 500 index - core US equity exposure"},
	{"AGG", "iShares Core U.S. Aggregate Bond ETF", domain.CategoryCore, "Fixed Income", "US", domain.AssetClassFixedIncome, 0.0003, "Broad US investment-grade bond exposure"},

	// Major satellites
	{"IEMG", "iShares Core MSCI Emerging Markets ETF", domain.CategoryMajorSatellite, "Broad Market", "Emerging Markets", domain.AssetClassEquity, 0.0009, "Emerging markets equity exposure"},
	{"IJR", "iShares Core S&P Small-Cap ETF", domain.CategoryMajorSatellite, "Small Cap", "US", domain.AssetClassEquity, 0.0006, "US small-cap equity exposure"},
	{"IJH", "iShares Core S&P Mid-Cap ETF", domain.CategoryMajorSatellite, "Mid Cap", "US", domain.AssetClassEquity, 0.0005, "US mid-cap equity exposure"},
	{"IUSG", "iShares Core S&P U.S. Growth ETF", domain.CategoryMajorSatellite, "Growth", "US", domain.AssetClassEquity, 0.0004, "US growth stocks exposure"},
	{"IYW", "iShares U.S. Technology ETF", domain.CategoryMajorSatellite, "Technology", "US", domain.AssetClassEquity, 0.0039, "Technology sector exposure"},
	{"IEV", "iShares Europe ETF", domain.CategoryMajorSatellite, "Broad Market", "Europe", domain.AssetClassEquity, 0.0059, "European equity exposure"},
	{"TLT", "iShares 20+ Year Treasury Bond ETF", domain.CategoryMajorSatellite, "Government Bonds", "US", domain.AssetClassFixedIncome, 0.0015, "Long-duration US Treasury bonds"},
	{"LQD", "iShares iBoxx $ Investment Grade Corporate Bond ETF", domain.CategoryMajorSatellite, "Corporate Bonds", "US", domain.AssetClassFixedIncome, 0.0014, "Investment-grade corporate bonds"},

	// Tactical satellites
	{"ITA", "iShares U.S. Aerospace & Defense ETF", domain.CategoryTacticalSatellite, "Aerospace", "US", domain.AssetClassEquity, 0.0039, "Aerospace and defense sector"},
	{"MCHI", "iShares MSCI China ETF", domain.CategoryTacticalSatellite, "Broad Market", "China", domain.AssetClassEquity, 0.0059, "Chinese equity exposure"},
	{"IBB", "iShares Biotechnology ETF", domain.CategoryTacticalSatellite, "Biotechnology", "US", domain.AssetClassEquity, 0.0044, "Biotechnology sector"},
	{"IYF", "iShares U.S. Financials ETF", domain.CategoryTacticalSatellite, "Financials", "US", domain.AssetClassEquity, 0.0039, "Financial sector exposure"},
	{"EWC", "iShares MSCI Canada ETF", domain.CategoryTacticalSatellite, "Broad Market", "Canada", domain.AssetClassEquity, 0.0047, "Canadian equity exposure"},
	{"IFRA", "iShares U.S. Infrastructure ETF", domain.CategoryTacticalSatellite, "Infrastructure", "US", domain.AssetClassEquity, 0.0030, "US infrastructure sector"},
	{"IYH", "iShares U.S. Healthcare ETF", domain.CategoryTacticalSatellite, "Healthcare", "US", domain.AssetClassEquity, 0.0039, "Healthcare sector exposure"},
	{"IYG", "iShares U.S. Financial Services ETF", domain.CategoryTacticalSatellite, "Financial Services", "US", domain.AssetClassEquity, 0.0039, "Financial services sector"},
	{"IYJ", "iShares U.S. Industrials ETF", domain.CategoryTacticalSatellite, "Industrials", "US", domain.AssetClassEquity, 0.0039, "Industrial sector exposure"},
	{"IYC", "iShares U.S. Consumer Discretionary ETF", domain.CategoryTacticalSatellite, "Consumer Discretionary", "US", domain.AssetClassEquity, 0.0039, "Consumer discretionary sector"},
	{"IYK", "iShares U.S. Consumer Staples ETF", domain.CategoryTacticalSatellite, "Consumer Staples", "US", domain.AssetClassEquity, 0.0039, "Consumer staples sector"},
	{"IYE", "iShares U.S. Energy ETF", domain.CategoryTacticalSatellite, "Energy", "US", domain.AssetClassEquity, 0.0039, "Energy sector exposure"},
	{"IYZ", "iShares U.S. Telecommunications ETF", domain.CategoryTacticalSatellite, "Telecommunications", "US", domain.AssetClassEquity, 0.0039, "Telecommunications sector"},
	{"MBB", "iShares MBS ETF", domain.CategoryTacticalSatellite, "Mortgage-Backed Securities", "US", domain.AssetClassFixedIncome, 0.0004, "Mortgage-backed securities"},
	{"IYR", "iShares U.S. Real Estate ETF", domain.CategoryTacticalSatellite, "Real Estate", "US", domain.AssetClassEquity, 0.0039, "Real estate sector (REITs)"},
	{"IYT", "iShares U.S. Transportation ETF", domain.CategoryTacticalSatellite, "Transportation", "US", domain.AssetClassEquity, 0.0039, "Transportation sector"},

	// Hedging
	{"SGOV", "iShares 0-3 Month Treasury Bond ETF", domain.CategoryHedging, "Cash Equivalent", "US", domain.AssetClassCashEquivalent, 0.0005, "Cash equivalent - short-term treasuries"},
	{"TIP", "iShares TIPS Bond ETF", domain.CategoryHedging, "Inflation-Protected", "US", domain.AssetClassFixedIncome, 0.0019, "Treasury inflation-protected securities"},
	{"IAU", "iShares Gold Trust", domain.CategoryHedging, "Gold", "Global", domain.AssetClassCommodities, 0.0025, "Gold commodity exposure"},
	{"GSG", "iShares S&P GSCI Commodity-Indexed Trust", domain.CategoryHedging, "Commodities", "Global", domain.AssetClassCommodities, 0.0075, "Broad commodity exposure"},
}

var byTicker = func() map[string]ETF {
	m := make(map[string]ETF, len(catalog))
	for _, e := range catalog {
		m[e.Ticker] = e
	}
	return m
}()

// All returns the full universe in canonical order.
func All() []ETF {
	out := make([]ETF, len(catalog))
	copy(out, catalog)
	return out
}

// AllTickers returns every ticker in canonical order.
func AllTickers() []string {
	tickers := make([]string, len(catalog))
	for i, e := range catalog {
		tickers[i] = e.Ticker
	}
	return tickers
}

// Get returns the ETF for a ticker. ok is false for tickers outside the
// universe.
func Get(ticker string) (ETF, bool) {
	e, ok := byTicker[ticker]
	return e, ok
}

// Contains reports whether a ticker belongs to the investable universe.
func Contains(ticker string) bool {
	_, ok := byTicker[ticker]
	return ok
}

// ByCategory returns the tickers in a category, in canonical order.
func ByCategory(category domain.Category) []string {
	var tickers []string
	for _, e := range catalog {
		if e.Category == category {
			tickers = append(tickers, e.Ticker)
		}
	}
	return tickers
}

// BySector returns the tickers in a sector, in canonical order.
func BySector(sector string) []string {
	var tickers []string
	for _, e := range catalog {
		if e.Sector == sector {
			tickers = append(tickers, e.Ticker)
		}
	}
	return tickers
}

// ByAssetClass returns the tickers in an asset class, in canonical order.
func ByAssetClass(class domain.AssetClass) []string {
	var tickers []string
	for _, e := range catalog {
		if e.AssetClass == class {
			tickers = append(tickers, e.Ticker)
		}
	}
	return tickers
}

// Sectors returns the distinct sector names, sorted.
func Sectors() []string {
	seen := make(map[string]struct{})
	for _, e := range catalog {
		seen[e.Sector] = struct{}{}
	}
	sectors := make([]string, 0, len(seen))
	for s := range seen {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	return sectors
}

// SectorOf returns the sector of a ticker, or "" if the ticker is unknown.
func SectorOf(ticker string) string {
	if e, ok := byTicker[ticker]; ok {
		return e.Sector
	}
	return ""
}

// CategoryOf returns the category of a ticker, or "" if the ticker is
// unknown.
func CategoryOf(ticker string) domain.Category {
	if e, ok := byTicker[ticker]; ok {
		return e.Category
	}
	return ""
}
