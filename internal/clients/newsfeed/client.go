// Package newsfeed provides a client for the NewsAPI article search endpoint.
// Articles feed the sentiment enrichment step; failures here degrade a single
// focus entry, never an analysis run.
package newsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/clientdata"
	"github.com/quiverlabs/radar/internal/domain"
)

const (
	defaultBaseURL = "https://newsapi.org/v2/everything"

	// NewsAPI free tier allows 1 request per second.
	rateLimitDelay = time.Second
)

// sectorTerms maps fund-name keywords to search terms that widen the query
// beyond the raw ticker symbol.
var sectorTerms = []struct {
	sector string
	terms  []string
}{
	{"Technology", []string{"tech", "software"}},
	{"Healthcare", []string{"healthcare", "pharmaceutical"}},
	{"Energy", []string{"energy", "oil"}},
	{"Financials", []string{"bank", "financial"}},
	{"Aerospace", []string{"aerospace", "defense"}},
	{"Real Estate", []string{"real estate", "REIT"}},
	{"Consumer", []string{"consumer", "retail"}},
	{"Emerging Markets", []string{"emerging markets", "China"}},
}

// Client is the NewsAPI client. It implements domain.NewsProvider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new NewsAPI client.
// An empty apiKey disables news retrieval: FetchNews returns no articles.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:       log.With().Str("client", "newsfeed").Logger(),
		cacheRepo: cacheRepo,
	}
}

type newsResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// FetchNews returns recent articles for a ticker, most relevant first.
// If the API fails, stale cached articles are returned when available.
func (c *Client) FetchNews(ctx context.Context, ticker, name string, lookbackDays, maxArticles int) ([]domain.NewsArticle, error) {
	if c.apiKey == "" {
		c.log.Warn().Str("ticker", ticker).Msg("NewsAPI key not configured, skipping news")
		return nil, nil
	}

	if articles, ok := c.getFromCache(ticker, false); ok {
		c.log.Debug().Str("ticker", ticker).Msg("News cache hit")
		return articles, nil
	}

	if err := c.waitForRateLimit(ctx); err != nil {
		return nil, err
	}

	articles, err := c.doRequest(ctx, ticker, name, lookbackDays, maxArticles)
	if err != nil {
		if stale, ok := c.getFromCache(ticker, true); ok {
			c.log.Warn().
				Err(err).
				Str("ticker", ticker).
				Msg("API failed, using stale cached articles")
			return stale, nil
		}
		return nil, err
	}

	c.setCache(ticker, articles)

	c.log.Info().
		Str("ticker", ticker).
		Int("articles", len(articles)).
		Msg("Fetched news articles")

	return articles, nil
}

func (c *Client) doRequest(ctx context.Context, ticker, name string, lookbackDays, maxArticles int) ([]domain.NewsArticle, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("q", buildSearchQuery(ticker, name))
	params.Set("apiKey", c.apiKey)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprintf("%d", maxArticles))
	params.Set("from", now.AddDate(0, 0, -lookbackDays).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed newsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	articles := make([]domain.NewsArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		// NewsAPI redacts some articles in place instead of omitting them.
		if a.Title == "[Removed]" {
			continue
		}

		articles = append(articles, domain.NewsArticle{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Description: a.Description,
		})
	}

	return articles, nil
}

// buildSearchQuery widens the ticker query with sector terms extracted from
// the fund name.
func buildSearchQuery(ticker, name string) string {
	queryTerms := []string{fmt.Sprintf("%q", ticker)}

	lower := strings.ToLower(name)
	for _, st := range sectorTerms {
		if strings.Contains(lower, strings.ToLower(st.sector)) {
			queryTerms = append(queryTerms, st.terms...)
			break
		}
	}

	return strings.Join(queryTerms, " OR ")
}

// waitForRateLimit spaces requests at least rateLimitDelay apart.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastRequest.Add(rateLimitDelay)
	wait := next.Sub(now)
	if wait <= 0 {
		c.lastRequest = now
		c.mu.Unlock()
		return nil
	}
	c.lastRequest = next
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (c *Client) getFromCache(ticker string, allowStale bool) ([]domain.NewsArticle, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var articles []domain.NewsArticle
	var ok bool
	var err error
	if allowStale {
		ok, err = c.cacheRepo.Get("news_articles", ticker, &articles)
	} else {
		ok, err = c.cacheRepo.GetIfFresh("news_articles", ticker, &articles)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache read failed")
		return nil, false
	}

	return articles, ok
}

func (c *Client) setCache(ticker string, articles []domain.NewsArticle) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store("news_articles", ticker, articles, clientdata.TTLNewsArticles); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache write failed")
	}
}
