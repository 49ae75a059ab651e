package advisor

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverlabs/radar/internal/domain"
)

func testSynthesizer() *Synthesizer {
	return NewSynthesizer(DefaultConfig(), zerolog.Nop())
}

func focusEntry(ticker string, magnitude float64, sentiment *domain.SentimentResult) domain.FocusEntry {
	return domain.FocusEntry{
		Ticker: ticker,
		Triggers: []domain.Trigger{{
			Type:        domain.TriggerVolumeSpike,
			Magnitude:   magnitude,
			Description: "Volume 150% of 30-day average",
		}},
		Snapshot: domain.PriceSnapshot{
			Ticker:       ticker,
			CurrentPrice: 100,
			Change1D:     0.01,
			VolumeToday:  2_000_000,
			VolumeRatio:  1.5,
		},
		Sentiment:   sentiment,
		Preliminary: domain.ActionNeutral,
	}
}

func positiveSentiment() *domain.SentimentResult {
	return &domain.SentimentResult{
		Summary:   "Strong sector tailwinds reported across major holdings",
		Score:     0.6,
		Relevance: 0.8,
		Themes:    []string{"AI capex", "earnings beats"},
	}
}

func negativeSentiment() *domain.SentimentResult {
	return &domain.SentimentResult{
		Summary:     "Regulatory pressure mounting",
		Score:       -0.4,
		Relevance:   0.8,
		RiskFactors: []string{"antitrust action", "guidance cuts"},
	}
}

func emptyPortfolio(totalValue float64) *domain.PortfolioState {
	return &domain.PortfolioState{
		TotalValue: totalValue,
		Positions:  map[string]domain.Position{},
	}
}

func portfolioHolding(ticker string, weight float64, shares int64, totalValue float64) *domain.PortfolioState {
	return &domain.PortfolioState{
		TotalValue: totalValue,
		Positions: map[string]domain.Position{
			ticker: {Ticker: ticker, Weight: weight, Shares: shares, CurrentPrice: 100},
		},
	}
}

func TestResolveAction_SentimentLayer(t *testing.T) {
	s := testSynthesizer()

	// Positive sentiment upgrades a neutral action: entry when unheld,
	// add when held.
	entry := focusEntry("IYW", 1.5, positiveSentiment())
	assert.Equal(t, domain.ActionEntry, s.resolveAction(entry, false, domain.RegimeNormal))
	assert.Equal(t, domain.ActionAdd, s.resolveAction(entry, true, domain.RegimeNormal))

	// Negative sentiment downgrades a held position to trim, but leaves
	// an unheld ticker alone.
	entry = focusEntry("IYW", 1.5, negativeSentiment())
	assert.Equal(t, domain.ActionTrim, s.resolveAction(entry, true, domain.RegimeNormal))
	assert.Equal(t, domain.ActionNeutral, s.resolveAction(entry, false, domain.RegimeNormal))

	// No sentiment: the preliminary action carries through.
	entry = focusEntry("IYW", 1.5, nil)
	assert.Equal(t, domain.ActionNeutral, s.resolveAction(entry, false, domain.RegimeNormal))
}

func TestResolveAction_RegimeOverrides(t *testing.T) {
	s := testSynthesizer()
	entry := focusEntry("IYW", 1.5, positiveSentiment())

	// Risk-off forces any buy back to neutral.
	assert.Equal(t, domain.ActionNeutral, s.resolveAction(entry, false, domain.RegimeRiskOff))
	assert.Equal(t, domain.ActionNeutral, s.resolveAction(entry, true, domain.RegimeRiskOff))

	// Caution forces add back to neutral but allows entry.
	assert.Equal(t, domain.ActionNeutral, s.resolveAction(entry, true, domain.RegimeCaution))
	assert.Equal(t, domain.ActionEntry, s.resolveAction(entry, false, domain.RegimeCaution))

	// Trim survives every regime.
	entry = focusEntry("IYW", 1.5, negativeSentiment())
	assert.Equal(t, domain.ActionTrim, s.resolveAction(entry, true, domain.RegimeRiskOff))
}

func TestTargetAllocation(t *testing.T) {
	s := testSynthesizer()

	assert.Equal(t, 0.10, s.targetAllocation(domain.ActionEntry, domain.CategoryMajorSatellite, 0))
	assert.Equal(t, 0.05, s.targetAllocation(domain.ActionEntry, domain.CategoryTacticalSatellite, 0))
	assert.InDelta(t, 0.18, s.targetAllocation(domain.ActionAdd, domain.CategoryMajorSatellite, 0.15), 1e-9)
	assert.InDelta(t, 0.30, s.targetAllocation(domain.ActionAdd, domain.CategoryMajorSatellite, 0.29), 1e-9)
	assert.InDelta(t, 0.12, s.targetAllocation(domain.ActionTrim, domain.CategoryCore, 0.15), 1e-9)
	assert.Zero(t, s.targetAllocation(domain.ActionTrim, domain.CategoryCore, 0.02))
	assert.Zero(t, s.targetAllocation(domain.ActionExit, domain.CategoryCore, 0.25))
	assert.Equal(t, 0.15, s.targetAllocation(domain.ActionNeutral, domain.CategoryCore, 0.15))
}

func TestSynthesize_EntryForMajorSatellite(t *testing.T) {
	s := testSynthesizer()

	// IYW is a major satellite; strong trigger plus aligned sentiment.
	focus := []domain.FocusEntry{focusEntry("IYW", 2.5, positiveSentiment())}
	recs := s.Synthesize(focus, domain.RegimeNormal, emptyPortfolio(100_000))

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.ActionEntry, rec.Action)
	assert.Equal(t, 0.10, rec.Allocation.TargetAllocation)
	assert.Equal(t, int64(100), rec.Allocation.SharesToTrade)
	assert.InDelta(t, 0.90, rec.Confidence, 1e-9)
	assert.Equal(t, domain.PriorityHigh, rec.Priority)

	assert.Equal(t, 10.0, rec.Transaction.Commission)
	assert.InDelta(t, 10_010, rec.Transaction.TotalCost, 1e-9)
	assert.Equal(t, "Next 1-2 trading days", rec.Transaction.ExecutionTimeframe)

	j := rec.Justification
	assert.Contains(t, j.Thesis, "iShares U.S. Technology ETF")
	assert.Contains(t, j.Thesis, "initiating a position")
	assert.Contains(t, j.QuantitativeEvidence["volume"], "150% of 30-day avg")
	assert.Contains(t, j.QualitativeEvidence["news_sentiment"], "+0.60")
	assert.Contains(t, j.QualitativeEvidence["sector_context"], "Technology sector")
	assert.Len(t, j.ReviewTriggers, 4)
	assert.Contains(t, j.ReviewTriggers[0], "$93.00")
	assert.Contains(t, j.ReviewTriggers[1], "$115.00")
}

func TestSynthesize_RiskOffForcesEntryToNoop(t *testing.T) {
	s := testSynthesizer()

	focus := []domain.FocusEntry{focusEntry("IYW", 2.5, positiveSentiment())}
	recs := s.Synthesize(focus, domain.RegimeRiskOff, emptyPortfolio(100_000))

	// Forced back to neutral on an unheld ticker: zero delta, suppressed.
	assert.Empty(t, recs)
}

func TestSynthesize_TrimOnNegativeSentiment(t *testing.T) {
	s := testSynthesizer()

	focus := []domain.FocusEntry{focusEntry("IVV", 1.5, negativeSentiment())}
	p := portfolioHolding("IVV", 0.30, 300, 100_000)
	recs := s.Synthesize(focus, domain.RegimeNormal, p)

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.ActionTrim, rec.Action)
	assert.InDelta(t, 0.27, rec.Allocation.TargetAllocation, 1e-9)
	assert.Equal(t, int64(-30), rec.Allocation.SharesToTrade)
	assert.Equal(t, domain.PriorityMedium, rec.Priority)
	// Base 0.70 plus 0.05 for high-relevance negative news.
	assert.InDelta(t, 0.75, rec.Confidence, 1e-9)
	assert.Equal(t, "Next 2-3 trading days (non-urgent)", rec.Transaction.ExecutionTimeframe)
	assert.Contains(t, rec.Justification.RiskAssessment["news_risks"], "antitrust")
}

func TestSynthesize_SubMinimumTradeSuppressed(t *testing.T) {
	s := testSynthesizer()

	// Held at 28%: add caps the target at 30%, a 2% bump. On a $20k
	// portfolio that is a $400 trade, below the $500 minimum.
	entry := focusEntry("IYW", 1.5, positiveSentiment())
	entry.Snapshot.CurrentPrice = 40
	p := portfolioHolding("IYW", 0.28, 140, 20_000)

	recs := s.Synthesize([]domain.FocusEntry{entry}, domain.RegimeNormal, p)
	assert.Empty(t, recs)
}

func TestSynthesize_UnknownTickerSkipped(t *testing.T) {
	s := testSynthesizer()

	focus := []domain.FocusEntry{
		focusEntry("SPY", 2.5, positiveSentiment()), // not in universe
		focusEntry("IYW", 2.5, positiveSentiment()),
	}
	recs := s.Synthesize(focus, domain.RegimeNormal, emptyPortfolio(100_000))

	// The invalid ticker is rejected without aborting the batch.
	require.Len(t, recs, 1)
	assert.Equal(t, "IYW", recs[0].Ticker)
}

func TestSynthesize_PriorityOrderingIsStable(t *testing.T) {
	s := testSynthesizer()

	p := &domain.PortfolioState{
		TotalValue: 100_000,
		Positions: map[string]domain.Position{
			"IVV": {Ticker: "IVV", Weight: 0.30, Shares: 300, CurrentPrice: 100},
			"AGG": {Ticker: "AGG", Weight: 0.20, Shares: 200, CurrentPrice: 100},
		},
	}

	focus := []domain.FocusEntry{
		focusEntry("IVV", 1.5, negativeSentiment()), // trim -> medium
		focusEntry("AGG", 1.5, negativeSentiment()), // trim -> medium
		focusEntry("IYW", 2.5, positiveSentiment()), // entry -> high
	}
	recs := s.Synthesize(focus, domain.RegimeNormal, p)

	require.Len(t, recs, 3)
	assert.Equal(t, "IYW", recs[0].Ticker)
	// Within the medium tier, insertion order is preserved.
	assert.Equal(t, "IVV", recs[1].Ticker)
	assert.Equal(t, "AGG", recs[2].Ticker)
}

func TestSynthesize_TargetNeverExceedsPositionCap(t *testing.T) {
	s := testSynthesizer()

	entry := focusEntry("IYW", 2.5, positiveSentiment())
	p := portfolioHolding("IYW", 0.29, 290, 100_000)

	recs := s.Synthesize([]domain.FocusEntry{entry}, domain.RegimeNormal, p)
	for _, rec := range recs {
		assert.LessOrEqual(t, rec.Allocation.TargetAllocation, DefaultConfig().SinglePositionMax)
	}
}
