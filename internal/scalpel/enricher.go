// Package scalpel performs the deep-dive enrichment of the focus list:
// news retrieval and sentiment analysis per flagged ticker, run as a
// bounded-concurrency batch where any single failure degrades only its own
// entry.
package scalpel

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/internal/universe"
)

// Config bounds the enrichment batch.
type Config struct {
	Concurrency    int
	PerItemTimeout time.Duration
	LookbackDays   int
	MaxArticles    int
	MinRelevance   float64
}

// DefaultConfig returns the standard enrichment settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:    3,
		PerItemTimeout: 30 * time.Second,
		LookbackDays:   2,
		MaxArticles:    5,
		MinRelevance:   0.3,
	}
}

// Enricher attaches sentiment annotations to focus entries.
type Enricher struct {
	cfg       Config
	news      domain.NewsProvider
	sentiment domain.SentimentProvider
	log       zerolog.Logger
}

// NewEnricher creates an enricher over the given providers.
func NewEnricher(cfg Config, news domain.NewsProvider, sentiment domain.SentimentProvider, log zerolog.Logger) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.PerItemTimeout <= 0 {
		cfg.PerItemTimeout = DefaultConfig().PerItemTimeout
	}
	return &Enricher{
		cfg:       cfg,
		news:      news,
		sentiment: sentiment,
		log:       log.With().Str("component", "scalpel").Logger(),
	}
}

// noResult is the neutral default applied when news or analysis is
// unavailable for an entry.
func noResult(summary string, articles []domain.NewsArticle) *domain.SentimentResult {
	relevance := 0.0
	if len(articles) > 0 {
		relevance = 0.5
	}
	return &domain.SentimentResult{
		Summary:      summary,
		Score:        0.0,
		Relevance:    relevance,
		Headlines:    headlines(articles),
		ArticleCount: len(articles),
	}
}

func headlines(articles []domain.NewsArticle) []string {
	var titles []string
	for i, a := range articles {
		if i == 5 {
			break
		}
		titles = append(titles, a.Title)
	}
	return titles
}

// Enrich annotates every focus entry with a sentiment result, in place on
// the returned copy. The batch fans out with bounded concurrency and a
// per-item timeout; a failed item degrades to the neutral default and never
// aborts the batch. The returned list always has the same length and order
// as the input, fully settled.
func (e *Enricher) Enrich(ctx context.Context, focus []domain.FocusEntry) []domain.FocusEntry {
	if len(focus) == 0 {
		return focus
	}

	e.log.Info().Int("entries", len(focus)).Msg("Starting enrichment batch")

	enriched := make([]domain.FocusEntry, len(focus))
	copy(enriched, focus)

	sem := make(chan struct{}, e.cfg.Concurrency)
	done := make(chan int)

	for i := range enriched {
		go func(i int) {
			defer func() { done <- i }()
			sem <- struct{}{}
			defer func() { <-sem }()

			itemCtx, cancel := context.WithTimeout(ctx, e.cfg.PerItemTimeout)
			defer cancel()

			enriched[i].Sentiment = e.enrichOne(itemCtx, enriched[i])
		}(i)
	}
	for range enriched {
		<-done
	}

	e.log.Info().Int("entries", len(enriched)).Msg("Enrichment batch settled")
	return enriched
}

// enrichOne produces the sentiment annotation for a single entry, falling
// back to neutral defaults on any failure.
func (e *Enricher) enrichOne(ctx context.Context, entry domain.FocusEntry) *domain.SentimentResult {
	name := entry.Ticker
	if etf, ok := universe.Get(entry.Ticker); ok {
		name = etf.Name
	}

	articles, err := e.news.FetchNews(ctx, entry.Ticker, name, e.cfg.LookbackDays, e.cfg.MaxArticles)
	if err != nil {
		e.log.Warn().Str("ticker", entry.Ticker).Err(err).Msg("News fetch failed, using neutral default")
		return noResult("News retrieval unavailable", nil)
	}
	if len(articles) == 0 {
		e.log.Debug().Str("ticker", entry.Ticker).Msg("No recent news")
		return noResult("No recent news available for analysis", nil)
	}

	result, err := e.sentiment.Analyze(ctx, entry.Ticker, name, articles)
	if err != nil {
		e.log.Warn().Str("ticker", entry.Ticker).Err(err).Msg("Sentiment analysis failed, using neutral default")
		return noResult("Sentiment analysis unavailable", articles)
	}
	if result == nil {
		return noResult("Sentiment analysis returned no result", articles)
	}

	result.Headlines = headlines(articles)
	result.ArticleCount = len(articles)

	e.log.Debug().Str("ticker", entry.Ticker).Float64("score", result.Score).Int("articles", len(articles)).Msg("Entry enriched")
	return result
}

// FilterByRelevance drops entries whose sentiment relevance is below the
// configured minimum. Entries without sentiment are kept.
func (e *Enricher) FilterByRelevance(focus []domain.FocusEntry) []domain.FocusEntry {
	filtered := make([]domain.FocusEntry, 0, len(focus))
	for _, entry := range focus {
		if entry.Sentiment != nil && entry.Sentiment.ArticleCount > 0 && entry.Sentiment.Relevance < e.cfg.MinRelevance {
			e.log.Debug().Str("ticker", entry.Ticker).Float64("relevance", entry.Sentiment.Relevance).Msg("Dropped below relevance threshold")
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}
