// Package marketdata fetches daily OHLCV bars and the volatility index from
// a Yahoo-Finance-compatible chart API. Responses are cached persistently as
// msgpack blobs; stale cache entries are served when the API is unreachable.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/clientdata"
	"github.com/quiverlabs/radar/internal/domain"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

	// CBOE Volatility Index symbol on the chart API.
	defaultVolatilityTicker = "^VIX"
)

// Config holds marketdata client configuration.
type Config struct {
	BaseURL          string
	VolatilityTicker string
	RequestTimeout   time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:          defaultBaseURL,
		VolatilityTicker: defaultVolatilityTicker,
		RequestTimeout:   10 * time.Second,
		MaxRetries:       3,
		RetryBaseDelay:   500 * time.Millisecond,
	}
}

// Client implements domain.MarketDataProvider over the chart API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository
}

// NewClient creates a new market data client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		log:       log.With().Str("client", "marketdata").Logger(),
		cacheRepo: cacheRepo,
	}
}

// chartResponse mirrors the chart API envelope. Quote arrays use pointers
// because the API emits explicit nulls for halted or partial sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns chronological daily bars for the requested tickers.
// Tickers that cannot be fetched (and have no cached fallback) are absent
// from the result; only context cancellation aborts the whole batch.
func (c *Client) Fetch(ctx context.Context, tickers []string, lookbackDays int) (map[string]domain.PriceSeries, error) {
	result := make(map[string]domain.PriceSeries, len(tickers))

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := c.fetchSeries(ctx, "market_bars", ticker, lookbackDays, clientdata.TTLMarketBars)
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("ticker", ticker).
				Msg("Failed to fetch price history, skipping ticker")
			continue
		}

		result[ticker] = series
	}

	c.log.Info().
		Int("requested", len(tickers)).
		Int("fetched", len(result)).
		Msg("Market data fetch completed")

	return result, nil
}

// FetchVolatilityIndex returns the current volatility index reading and its
// trailing 5-day average, both rounded to two decimals.
func (c *Client) FetchVolatilityIndex(ctx context.Context) (float64, float64, error) {
	series, err := c.fetchSeries(ctx, "volatility_index", c.cfg.VolatilityTicker, 30, clientdata.TTLVolatilityIndex)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch volatility index: %w", err)
	}
	if len(series) == 0 {
		return 0, 0, fmt.Errorf("volatility index returned no bars")
	}

	closes := series.Closes()
	current := closes[len(closes)-1]

	window := closes
	if len(window) > 5 {
		window = window[len(window)-5:]
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(len(window))

	return round2(current), round2(avg), nil
}

// fetchSeries retrieves one ticker's bars, cache-first with stale fallback.
func (c *Client) fetchSeries(ctx context.Context, table, ticker string, lookbackDays int, ttl time.Duration) (domain.PriceSeries, error) {
	if series, ok := c.getFromCache(table, ticker, false); ok {
		c.log.Debug().Str("ticker", ticker).Msg("Market data cache hit")
		return series, nil
	}

	body, err := c.doRequestWithRetry(ctx, c.chartURL(ticker, lookbackDays))
	if err != nil {
		if stale, ok := c.getFromCache(table, ticker, true); ok {
			c.log.Warn().
				Err(err).
				Str("ticker", ticker).
				Msg("API failed, using stale cached bars")
			return stale, nil
		}
		return nil, err
	}

	series, err := parseChart(body)
	if err != nil {
		if stale, ok := c.getFromCache(table, ticker, true); ok {
			c.log.Warn().
				Err(err).
				Str("ticker", ticker).
				Msg("Failed to parse chart response, using stale cached bars")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", ticker, err)
	}

	c.setCache(table, ticker, series, ttl)

	return series, nil
}

func (c *Client) chartURL(ticker string, lookbackDays int) string {
	now := time.Now()
	period1 := now.AddDate(0, 0, -lookbackDays).Unix()
	return fmt.Sprintf(
		"%s/%s?period1=%d&period2=%d&interval=1d",
		c.cfg.BaseURL, url.PathEscape(ticker), period1, now.Unix(),
	)
}

// doRequestWithRetry performs a GET with exponential backoff. Client errors
// other than 429 are not retried; the response body is returned on 200.
func (c *Client) doRequestWithRetry(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBaseDelay * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.doRequest(ctx, requestURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		c.log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Request failed, will retry")
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, requestURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	// The chart API rejects requests without a browser-like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; radar/1.0)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("failed to read response body: %w", err)
		}
		return data, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("API returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
}

// parseChart converts a chart API response into a chronological price series.
// Bars with a null close are dropped.
func parseChart(body []byte) (domain.PriceSeries, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s (%s)",
			parsed.Chart.Error.Description, parsed.Chart.Error.Code)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response contains no result")
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := make(domain.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}

		bar := domain.Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}

		series = append(series, bar)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("chart response contains no usable bars")
	}

	return series, nil
}

func (c *Client) getFromCache(table, ticker string, allowStale bool) (domain.PriceSeries, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var series domain.PriceSeries
	var ok bool
	var err error
	if allowStale {
		ok, err = c.cacheRepo.Get(table, ticker, &series)
	} else {
		ok, err = c.cacheRepo.GetIfFresh(table, ticker, &series)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache read failed")
		return nil, false
	}

	return series, ok
}

func (c *Client) setCache(table, ticker string, series domain.PriceSeries, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, ticker, series, ttl); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache write failed")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
