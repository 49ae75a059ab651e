package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Daily bars only change once per trading day; a few hours is enough to
	// cover repeated analysis runs without going stale across days.
	TTLMarketBars = 4 * time.Hour

	// The volatility index is read once per run and moves intraday.
	TTLVolatilityIndex = time.Hour

	// News lookups are scoped to the last two days, so a short TTL keeps
	// repeated enrichment runs cheap without hiding fresh articles.
	TTLNewsArticles = 6 * time.Hour
)
