package newsfeed

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/quiverlabs/radar/internal/clientdata"
	"github.com/quiverlabs/radar/internal/domain"
)

const sampleResponse = `{
	"status": "ok",
	"totalResults": 3,
	"articles": [
		{
			"source": {"name": "Reuters"},
			"title": "Tech sector rallies on chip demand",
			"description": "Semiconductor stocks led gains.",
			"url": "https://example.com/a1",
			"publishedAt": "2026-08-28T14:00:00Z"
		},
		{
			"source": {"name": "Bloomberg"},
			"title": "[Removed]",
			"description": null,
			"url": "https://example.com/a2",
			"publishedAt": "2026-08-28T12:00:00Z"
		},
		{
			"source": {"name": "WSJ"},
			"title": "Software earnings beat expectations",
			"description": "Cloud revenue accelerated.",
			"url": "https://example.com/a3",
			"publishedAt": "2026-08-27T09:30:00Z"
		}
	]
}`

func testCacheRepo(t *testing.T) *clientdata.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := clientdata.NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	return repo
}

func TestFetchNews_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("apiKey"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "relevancy", q.Get("sortBy"))
		assert.Equal(t, "5", q.Get("pageSize"))
		assert.Contains(t, q.Get("q"), `"IYW"`)
		fmt.Fprint(w, sampleResponse)
	}))
	defer server.Close()

	client := NewClient("test-key", nil, zerolog.Nop())
	client.baseURL = server.URL

	articles, err := client.FetchNews(context.Background(), "IYW", "iShares U.S. Technology ETF", 2, 5)
	require.NoError(t, err)

	// The redacted article is dropped.
	require.Len(t, articles, 2)
	assert.Equal(t, "Tech sector rallies on chip demand", articles[0].Title)
	assert.Equal(t, "Reuters", articles[0].Source)
	assert.Equal(t, 2026, articles[0].PublishedAt.Year())
	assert.Equal(t, "Software earnings beat expectations", articles[1].Title)
}

func TestFetchNews_NoAPIKey(t *testing.T) {
	client := NewClient("", nil, zerolog.Nop())

	articles, err := client.FetchNews(context.Background(), "IVV", "iShares Core S&P 500 ETF", 2, 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestFetchNews_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", nil, zerolog.Nop())
	client.baseURL = server.URL

	_, err := client.FetchNews(context.Background(), "IVV", "iShares Core S&P 500 ETF", 2, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestFetchNews_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	client := NewClient("test-key", nil, zerolog.Nop())
	client.baseURL = server.URL

	_, err := client.FetchNews(context.Background(), "IVV", "iShares Core S&P 500 ETF", 2, 5)
	require.Error(t, err)
}

func TestFetchNews_ServesFromFreshCache(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, sampleResponse)
	}))
	defer server.Close()

	client := NewClient("test-key", testCacheRepo(t), zerolog.Nop())
	client.baseURL = server.URL

	first, err := client.FetchNews(context.Background(), "IYW", "iShares U.S. Technology ETF", 2, 5)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := client.FetchNews(context.Background(), "IYW", "iShares U.S. Technology ETF", 2, 5)
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, 1, requests, "second fetch should come from cache")
}

func TestFetchNews_StaleCacheFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := testCacheRepo(t)
	stale := []domain.NewsArticle{{
		Title:       "Old but useful headline",
		Source:      "Reuters",
		URL:         "https://example.com/old",
		PublishedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, repo.Store("news_articles", "MCHI", stale, -time.Hour))

	client := NewClient("test-key", repo, zerolog.Nop())
	client.baseURL = server.URL

	articles, err := client.FetchNews(context.Background(), "MCHI", "iShares MSCI China ETF", 2, 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Old but useful headline", articles[0].Title)
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		ticker   string
		etfName  string
		expected string
	}{
		{"technology sector", "IYW", "iShares U.S. Technology ETF", `"IYW" OR tech OR software`},
		{"healthcare sector", "IYH", "iShares U.S. Healthcare ETF", `"IYH" OR healthcare OR pharmaceutical`},
		{"aerospace sector", "ITA", "iShares U.S. Aerospace & Defense ETF", `"ITA" OR aerospace OR defense`},
		{"no sector match", "AGG", "iShares Core U.S. Aggregate Bond ETF", `"AGG"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, buildSearchQuery(tc.ticker, tc.etfName))
		})
	}
}
