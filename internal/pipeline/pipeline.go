// Package pipeline orchestrates the daily analysis run: market data in,
// persisted recommendations out. At most one run is in flight at a time;
// degraded collaborators produce warnings, not failures. Only a missing
// portfolio snapshot aborts a run outright.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/advisor"
	"github.com/quiverlabs/radar/internal/analysis"
	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/internal/portfolio"
	"github.com/quiverlabs/radar/internal/radar"
	"github.com/quiverlabs/radar/internal/regime"
	"github.com/quiverlabs/radar/internal/risk"
	"github.com/quiverlabs/radar/internal/scalpel"
	"github.com/quiverlabs/radar/internal/universe"
	"github.com/quiverlabs/radar/pkg/formulas"
)

var (
	// ErrRunInProgress is returned when a run is started while one is
	// already executing.
	ErrRunInProgress = errors.New("analysis run already in progress")

	// ErrNoPortfolio is returned when no portfolio snapshot exists.
	// The pipeline needs a starting portfolio; everything else degrades.
	ErrNoPortfolio = errors.New("no portfolio snapshot available")
)

// Config holds pipeline configuration.
type Config struct {
	// LookbackDays is the price history window requested per ticker. It
	// must comfortably cover the 50-day moving average plus weekends.
	LookbackDays int

	// BenchmarkTicker supplies benchmark returns for beta.
	BenchmarkTicker string

	// DefaultVolatility substitutes for the volatility index when the
	// source is unavailable.
	DefaultVolatility float64

	// RiskWindowDays is the snapshot history window for risk metrics.
	RiskWindowDays int
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		LookbackDays:      180,
		BenchmarkTicker:   "IVV",
		DefaultVolatility: 20.0,
		RiskWindowDays:    31,
	}
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	MarketData    domain.MarketDataProvider
	Detector      *radar.Detector
	Enricher      *scalpel.Enricher
	Synthesizer   *advisor.Synthesizer
	Validator     *risk.Validator
	PortfolioRepo *portfolio.Repository
	AnalysisRepo  *analysis.Repository
}

// Pipeline runs the daily analysis.
type Pipeline struct {
	cfg     Config
	deps    Deps
	tracker *tracker
	log     zerolog.Logger
}

// New creates a pipeline.
func New(cfg Config, deps Deps, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		deps:    deps,
		tracker: newTracker(),
		log:     log.With().Str("component", "pipeline").Logger(),
	}
}

// Start launches a run in the background and returns its ID immediately.
// Returns ErrRunInProgress when a run is already executing.
func (p *Pipeline) Start(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	if !p.tracker.begin(runID, time.Now()) {
		return "", ErrRunInProgress
	}

	// The run must outlive the caller (typically an HTTP request); keep the
	// caller's values but detach from its cancellation.
	runCtx := context.WithoutCancel(ctx)
	go p.execute(runCtx, runID) //nolint:errcheck // outcome lands in the tracker

	return runID, nil
}

// RunOnce executes a run synchronously. Returns ErrRunInProgress when a run
// is already executing.
func (p *Pipeline) RunOnce(ctx context.Context) (*analysis.DailyAnalysis, error) {
	runID := uuid.NewString()
	if !p.tracker.begin(runID, time.Now()) {
		return nil, ErrRunInProgress
	}

	return p.execute(ctx, runID)
}

// Progress returns a snapshot of the current (or last) run's state.
func (p *Pipeline) Progress() Progress {
	return p.tracker.snapshot()
}

func (p *Pipeline) execute(ctx context.Context, runID string) (*analysis.DailyAnalysis, error) {
	started := time.Now()

	p.log.Info().Str("run_id", runID).Msg("Analysis run started")

	doc, err := p.run(ctx, runID, started)
	if err != nil {
		p.log.Error().Err(err).Str("run_id", runID).Msg("Analysis run failed")
		p.tracker.fail(err)
		return nil, err
	}

	p.tracker.complete()
	p.log.Info().
		Str("run_id", runID).
		Dur("duration", time.Since(started)).
		Int("focus_list", len(doc.FocusList)).
		Int("recommendations", len(doc.Recommendations)).
		Str("quality", doc.Summary.Quality).
		Msg("Analysis run completed")

	return doc, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, started time.Time) (*analysis.DailyAnalysis, error) {
	var warnings, errs []string

	p.tracker.update("portfolio", 5, "Loading portfolio snapshot")
	state, err := p.deps.PortfolioRepo.Latest()
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if state == nil {
		return nil, ErrNoPortfolio
	}

	p.tracker.update("market_data", 15, "Fetching market data")
	tickers := universe.AllTickers()
	market, err := p.deps.MarketData.Fetch(ctx, tickers, p.cfg.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("market data fetch aborted: %w", err)
	}
	if len(market) == 0 {
		warnings = append(warnings, "no market data available, scan skipped")
	} else if missing := len(tickers) - len(market); missing > 0 {
		warnings = append(warnings, fmt.Sprintf("price history missing for %d of %d tickers", missing, len(tickers)))
	}

	repriced := portfolio.Reprice(*state, lastCloses(market), started)

	p.tracker.update("regime", 30, "Classifying risk regime")
	current, avg5, err := p.deps.MarketData.FetchVolatilityIndex(ctx)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("volatility index unavailable, assuming %.1f", p.cfg.DefaultVolatility))
		current, avg5 = p.cfg.DefaultVolatility, p.cfg.DefaultVolatility
	}
	classification := regime.Classify(current, avg5)

	p.tracker.update("scan", 45, "Scanning universe for signals")
	focus := p.deps.Detector.Scan(market)

	p.tracker.update("enrich", 60, "Enriching focus list with news sentiment")
	focus = p.deps.Enricher.Enrich(ctx, focus)

	p.tracker.update("synthesize", 75, "Synthesizing recommendations")
	recommendations := p.deps.Synthesizer.Synthesize(focus, classification.Regime, &repriced)

	p.tracker.update("validate", 85, "Validating position limits")
	if ok, violations := p.deps.Validator.Validate(&repriced); !ok {
		for _, v := range violations {
			warnings = append(warnings, "position limit: "+v)
		}
	}

	repriced.Risk = p.riskMetrics(market)

	p.tracker.update("persist", 95, "Persisting results")
	if err := p.deps.PortfolioRepo.Save(&repriced); err != nil {
		errs = append(errs, fmt.Sprintf("failed to save portfolio snapshot: %v", err))
	}

	doc := &analysis.DailyAnalysis{
		Date:          started.Format("2006-01-02"),
		RunID:         runID,
		Timestamp:     started.UTC(),
		ExecutionTime: time.Since(started),
		MarketOverview: analysis.MarketOverview{
			VolatilityIndex:   classification.Current,
			Volatility5DAvg:   classification.Trailing5D,
			Regime:            classification.Regime,
			RegimeDescription: classification.Description,
			TargetAllocation:  classification.Target,
		},
		FocusList:       focus,
		Recommendations: recommendations,
		Portfolio:       repriced,
		Summary:         analysis.NewExecutionSummary(focus, recommendations, warnings, errs),
	}

	if err := p.deps.AnalysisRepo.Save(doc); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	return doc, nil
}

// riskMetrics derives portfolio risk statistics from the stored snapshot
// history and the benchmark's price series.
func (p *Pipeline) riskMetrics(market map[string]domain.PriceSeries) domain.RiskMetrics {
	values, err := p.deps.PortfolioRepo.DailyValues(p.cfg.RiskWindowDays)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to load snapshot history for risk metrics")
		return domain.RiskMetrics{}
	}

	dailyReturns := formulas.Returns(values)

	var benchmarkReturns []float64
	if series, ok := market[p.cfg.BenchmarkTicker]; ok {
		benchmarkReturns = formulas.Returns(series.Closes())
		// Beta needs aligned windows; use the most recent overlap.
		if len(benchmarkReturns) > len(dailyReturns) {
			benchmarkReturns = benchmarkReturns[len(benchmarkReturns)-len(dailyReturns):]
		}
	}

	return risk.Metrics(dailyReturns, benchmarkReturns, values)
}

// lastCloses extracts the latest closing price per ticker.
func lastCloses(market map[string]domain.PriceSeries) map[string]float64 {
	prices := make(map[string]float64, len(market))
	for ticker, series := range market {
		if bar, ok := series.Last(); ok {
			prices[ticker] = bar.Close
		}
	}
	return prices
}
