package scalpel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverlabs/radar/internal/domain"
)

type stubNews struct {
	mu       sync.Mutex
	articles map[string][]domain.NewsArticle
	errs     map[string]error
	calls    int32
}

func (s *stubNews) FetchNews(_ context.Context, ticker, _ string, _, _ int) ([]domain.NewsArticle, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[ticker]; ok {
		return nil, err
	}
	return s.articles[ticker], nil
}

type stubSentiment struct {
	mu      sync.Mutex
	results map[string]*domain.SentimentResult
	errs    map[string]error
	active  int32
	maxSeen int32
	delay   time.Duration
}

func (s *stubSentiment) Analyze(_ context.Context, ticker, _ string, _ []domain.NewsArticle) (*domain.SentimentResult, error) {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		max := atomic.LoadInt32(&s.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxSeen, max, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[ticker]; ok {
		return nil, err
	}
	return s.results[ticker], nil
}

func articles(n int) []domain.NewsArticle {
	out := make([]domain.NewsArticle, n)
	for i := range out {
		out[i] = domain.NewsArticle{Title: "headline", Source: "wire"}
	}
	return out
}

func entries(tickers ...string) []domain.FocusEntry {
	out := make([]domain.FocusEntry, len(tickers))
	for i, t := range tickers {
		out[i] = domain.FocusEntry{
			Ticker:      t,
			Triggers:    []domain.Trigger{{Type: domain.TriggerVolumeSpike, Magnitude: 1.5}},
			Preliminary: domain.ActionNeutral,
		}
	}
	return out
}

func TestEnrich_AttachesSentiment(t *testing.T) {
	news := &stubNews{articles: map[string][]domain.NewsArticle{"IYW": articles(3)}}
	sentiment := &stubSentiment{results: map[string]*domain.SentimentResult{
		"IYW": {Summary: "tech momentum", Score: 0.6, Relevance: 0.8},
	}}

	e := NewEnricher(DefaultConfig(), news, sentiment, zerolog.Nop())
	enriched := e.Enrich(context.Background(), entries("IYW"))

	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].Sentiment)
	assert.Equal(t, 0.6, enriched[0].Sentiment.Score)
	assert.Equal(t, 3, enriched[0].Sentiment.ArticleCount)
	assert.Len(t, enriched[0].Sentiment.Headlines, 3)
}

func TestEnrich_NoNewsYieldsNeutralDefault(t *testing.T) {
	news := &stubNews{articles: map[string][]domain.NewsArticle{}}
	sentiment := &stubSentiment{}

	e := NewEnricher(DefaultConfig(), news, sentiment, zerolog.Nop())
	enriched := e.Enrich(context.Background(), entries("GSG"))

	require.NotNil(t, enriched[0].Sentiment)
	assert.Zero(t, enriched[0].Sentiment.Score)
	assert.Zero(t, enriched[0].Sentiment.Relevance)
	assert.Zero(t, enriched[0].Sentiment.ArticleCount)
}

func TestEnrich_SingleFailureDegradesOnlyThatEntry(t *testing.T) {
	news := &stubNews{
		articles: map[string][]domain.NewsArticle{
			"IYW": articles(2),
			"IVV": articles(2),
		},
		errs: map[string]error{"IJR": errors.New("upstream 503")},
	}
	sentiment := &stubSentiment{
		results: map[string]*domain.SentimentResult{
			"IYW": {Score: 0.6, Relevance: 0.8},
		},
		errs: map[string]error{"IVV": errors.New("model overloaded")},
	}

	e := NewEnricher(DefaultConfig(), news, sentiment, zerolog.Nop())
	enriched := e.Enrich(context.Background(), entries("IYW", "IVV", "IJR"))

	require.Len(t, enriched, 3)
	// Successful entry carries real sentiment.
	assert.Equal(t, 0.6, enriched[0].Sentiment.Score)
	// Analysis failure degrades to neutral but keeps article context.
	assert.Zero(t, enriched[1].Sentiment.Score)
	assert.Equal(t, 0.5, enriched[1].Sentiment.Relevance)
	assert.Equal(t, 2, enriched[1].Sentiment.ArticleCount)
	// News failure degrades all the way to the empty default.
	assert.Zero(t, enriched[2].Sentiment.Score)
	assert.Zero(t, enriched[2].Sentiment.ArticleCount)
}

func TestEnrich_BoundsConcurrency(t *testing.T) {
	news := &stubNews{articles: map[string][]domain.NewsArticle{
		"A": articles(1), "B": articles(1), "C": articles(1),
		"D": articles(1), "E": articles(1), "F": articles(1),
	}}
	sentiment := &stubSentiment{delay: 20 * time.Millisecond}

	cfg := DefaultConfig()
	cfg.Concurrency = 2
	e := NewEnricher(cfg, news, sentiment, zerolog.Nop())
	e.Enrich(context.Background(), entries("A", "B", "C", "D", "E", "F"))

	assert.LessOrEqual(t, atomic.LoadInt32(&sentiment.maxSeen), int32(2))
}

func TestEnrich_PreservesOrder(t *testing.T) {
	news := &stubNews{articles: map[string][]domain.NewsArticle{}}
	sentiment := &stubSentiment{}

	e := NewEnricher(DefaultConfig(), news, sentiment, zerolog.Nop())
	enriched := e.Enrich(context.Background(), entries("IYW", "AGG", "GSG"))

	require.Len(t, enriched, 3)
	assert.Equal(t, "IYW", enriched[0].Ticker)
	assert.Equal(t, "AGG", enriched[1].Ticker)
	assert.Equal(t, "GSG", enriched[2].Ticker)
}

func TestFilterByRelevance(t *testing.T) {
	e := NewEnricher(DefaultConfig(), nil, nil, zerolog.Nop())

	focus := entries("IYW", "AGG", "GSG")
	focus[0].Sentiment = &domain.SentimentResult{Relevance: 0.8, ArticleCount: 3}
	focus[1].Sentiment = &domain.SentimentResult{Relevance: 0.1, ArticleCount: 3}
	// GSG has no articles: kept despite zero relevance.
	focus[2].Sentiment = &domain.SentimentResult{Relevance: 0, ArticleCount: 0}

	filtered := e.FilterByRelevance(focus)
	require.Len(t, filtered, 2)
	assert.Equal(t, "IYW", filtered[0].Ticker)
	assert.Equal(t, "GSG", filtered[1].Ticker)
}
