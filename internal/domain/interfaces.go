package domain

import "context"

// MarketDataProvider supplies daily price history and the volatility index.
// Implementations wrap retries and caching; the decision core only sees the
// final results.
type MarketDataProvider interface {
	// Fetch returns chronological daily bars for the requested tickers over
	// the lookback window (in days). Tickers with no available data are
	// simply absent from the result; that is not an error.
	Fetch(ctx context.Context, tickers []string, lookbackDays int) (map[string]PriceSeries, error)

	// FetchVolatilityIndex returns the current volatility index reading and
	// its trailing 5-day average.
	FetchVolatilityIndex(ctx context.Context) (current, trailing5Avg float64, err error)
}

// NewsProvider fetches recent news articles for a ticker.
type NewsProvider interface {
	FetchNews(ctx context.Context, ticker, name string, lookbackDays, maxArticles int) ([]NewsArticle, error)
}

// SentimentProvider analyzes articles and produces a qualitative scoring.
// A nil result with nil error means "no result" and callers substitute a
// neutral default.
type SentimentProvider interface {
	Analyze(ctx context.Context, ticker, name string, articles []NewsArticle) (*SentimentResult, error)
}
