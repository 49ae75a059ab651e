// Package domain provides the core models and collaborator contracts for the
// radar decision pipeline. The domain layer is pure: no infrastructure
// dependencies.
package domain

import "time"

// Category classifies an instrument's role in the core-satellite structure.
type Category string

const (
	CategoryCore              Category = "core"
	CategoryMajorSatellite    Category = "major_satellite"
	CategoryTacticalSatellite Category = "tactical_satellite"
	CategoryHedging           Category = "hedging"
)

// AssetClass classifies an instrument's asset class.
type AssetClass string

const (
	AssetClassEquity         AssetClass = "equity"
	AssetClassFixedIncome    AssetClass = "fixed_income"
	AssetClassCommodities    AssetClass = "commodities"
	AssetClassCashEquivalent AssetClass = "cash_equivalent"
)

// Bar is a single daily OHLCV bar.
type Bar struct {
	Date   time.Time `json:"date" msgpack:"date"`
	Open   float64   `json:"open" msgpack:"open"`
	High   float64   `json:"high" msgpack:"high"`
	Low    float64   `json:"low" msgpack:"low"`
	Close  float64   `json:"close" msgpack:"close"`
	Volume int64     `json:"volume" msgpack:"volume"`
}

// PriceSeries is an ordered, chronological sequence of daily bars.
type PriceSeries []Bar

// Closes returns the closing prices in chronological order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the daily volumes in chronological order.
func (s PriceSeries) Volumes() []int64 {
	volumes := make([]int64, len(s))
	for i, b := range s {
		volumes[i] = b.Volume
	}
	return volumes
}

// Last returns the most recent bar. ok is false for an empty series.
func (s PriceSeries) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// PriceSnapshot summarizes the most recent price and volume activity of a
// ticker, derived from its price series at scan time.
type PriceSnapshot struct {
	Ticker       string   `json:"ticker"`
	CurrentPrice float64  `json:"current_price"`
	Change1D     float64  `json:"change_1d"`
	Change5D     *float64 `json:"change_5d,omitempty"`
	Change30D    *float64 `json:"change_30d,omitempty"`
	VolumeToday  int64    `json:"volume_today"`
	Volume30DAvg int64    `json:"volume_30d_avg"`
	VolumeRatio  float64  `json:"volume_ratio"`
}

// IndicatorSet holds per-scan derived indicator values for one ticker.
// Any field may be absent when history is insufficient to compute it.
type IndicatorSet struct {
	SMA20             *float64     `json:"sma_20,omitempty"`
	SMA50             *float64     `json:"sma_50,omitempty"`
	SMA200            *float64     `json:"sma_200,omitempty"`
	RSI14             *float64     `json:"rsi_14,omitempty"`
	MACD              *float64     `json:"macd,omitempty"`
	MACDSignal        *float64     `json:"macd_signal,omitempty"`
	MACDState         MACDState    `json:"macd_state,omitempty"`
	BollingerUpper    *float64     `json:"bollinger_upper,omitempty"`
	BollingerLower    *float64     `json:"bollinger_lower,omitempty"`
	BollingerPosition BandPosition `json:"bollinger_position,omitempty"`
}

// Trigger is a detected anomaly condition. Immutable once created.
type Trigger struct {
	Type        TriggerType `json:"type"`
	Magnitude   float64     `json:"magnitude"`
	Description string      `json:"description"`
}

// SentimentResult is the qualitative scoring attached to a focus entry by
// the enrichment step. Score is in [-1, 1]; Relevance in [0, 1].
type SentimentResult struct {
	Summary      string   `json:"summary"`
	Score        float64  `json:"score"`
	Relevance    float64  `json:"relevance"`
	Themes       []string `json:"themes,omitempty"`
	RiskFactors  []string `json:"risk_factors,omitempty"`
	Headlines    []string `json:"headlines,omitempty"`
	ArticleCount int      `json:"article_count"`
}

// FocusEntry is a ticker flagged by the radar scan for deeper review.
// The entry is mutable until sentiment enrichment finalizes it; the
// synthesizer treats it as read-only.
type FocusEntry struct {
	Ticker      string           `json:"ticker"`
	Triggers    []Trigger        `json:"triggers"`
	Snapshot    PriceSnapshot    `json:"snapshot"`
	Indicators  IndicatorSet     `json:"indicators"`
	Sentiment   *SentimentResult `json:"sentiment,omitempty"`
	Preliminary Action           `json:"preliminary_action"`
}

// Primary returns the primary trigger: the first trigger in fixed detection
// order, which is not necessarily the largest by magnitude.
func (e FocusEntry) Primary() Trigger {
	if len(e.Triggers) == 0 {
		return Trigger{}
	}
	return e.Triggers[0]
}

// NewsArticle is a single news item fed into sentiment analysis.
type NewsArticle struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description,omitempty"`
}

// Position is a single portfolio holding. Positions are mutated only by
// execution, which is outside this system; the pipeline treats them as
// read-only.
type Position struct {
	Ticker           string  `json:"ticker"`
	Shares           int64   `json:"shares"`
	CostBasis        float64 `json:"cost_basis"`
	CurrentPrice     float64 `json:"current_price"`
	MarketValue      float64 `json:"market_value"`
	Weight           float64 `json:"weight"`
	UnrealizedGain   float64 `json:"unrealized_gain"`
	UnrealizedGainPc float64 `json:"unrealized_gain_pct"`
}

// AllocationBreakdown is the portfolio weight held in each category.
type AllocationBreakdown struct {
	Core               float64 `json:"core"`
	MajorSatellites    float64 `json:"major_satellites"`
	TacticalSatellites float64 `json:"tactical_satellites"`
	Hedging            float64 `json:"hedging"`
}

// RiskMetrics holds portfolio-level risk statistics. Any metric may be
// absent when history is insufficient.
type RiskMetrics struct {
	Sharpe30D     *float64 `json:"sharpe_ratio_30d,omitempty"`
	Volatility30D *float64 `json:"volatility_30d,omitempty"`
	MaxDrawdown   *float64 `json:"max_drawdown,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
	Sortino       *float64 `json:"sortino_ratio,omitempty"`
}

// PortfolioState is a complete snapshot of the portfolio at a point in time.
// It is passed into the pipeline and never mutated by it.
type PortfolioState struct {
	AsOf               time.Time           `json:"as_of"`
	InitialCapital     float64             `json:"initial_capital"`
	TotalValue         float64             `json:"total_value"`
	CashBalance        float64             `json:"cash_balance"`
	TotalReturnPct     float64             `json:"total_return_pct"`
	DailyReturnPct     float64             `json:"daily_return_pct"`
	Positions          map[string]Position `json:"positions"`
	Allocation         AllocationBreakdown `json:"allocation_breakdown"`
	SectorBreakdown    map[string]float64  `json:"sector_breakdown"`
	GeographyBreakdown map[string]float64  `json:"geography_breakdown"`
	Risk               RiskMetrics         `json:"risk_metrics"`
}

// Holding returns the position for a ticker, if held.
func (p *PortfolioState) Holding(ticker string) (Position, bool) {
	pos, ok := p.Positions[ticker]
	return pos, ok
}

// AllocationPlan captures the allocation change behind a recommendation.
type AllocationPlan struct {
	CurrentAllocation float64 `json:"current_allocation"`
	TargetAllocation  float64 `json:"target_allocation"`
	AllocationChange  float64 `json:"allocation_change"`
	SharesCurrent     int64   `json:"shares_current"`
	SharesTarget      int64   `json:"shares_target"`
	SharesToTrade     int64   `json:"shares_to_trade"`
}

// TransactionEstimate is the projected execution cost of a recommendation.
type TransactionEstimate struct {
	EstimatedPrice     float64 `json:"estimated_price"`
	EstimatedCost      float64 `json:"estimated_cost"`
	Commission         float64 `json:"commission"`
	TotalCost          float64 `json:"total_cost"`
	ExecutionTimeframe string  `json:"execution_timeframe"`
}

// Justification is the structured rationale attached to a recommendation.
type Justification struct {
	Thesis               string            `json:"thesis"`
	QuantitativeEvidence map[string]string `json:"quantitative_evidence"`
	QualitativeEvidence  map[string]string `json:"qualitative_evidence"`
	RiskAssessment       map[string]string `json:"risk_assessment"`
	HoldingPeriod        string            `json:"holding_period"`
	ReviewTriggers       []string          `json:"review_triggers"`
}

// Recommendation is a sized, justified trade suggestion. Immutable once
// produced.
type Recommendation struct {
	Ticker        string              `json:"ticker"`
	Action        Action              `json:"action"`
	Priority      Priority            `json:"priority"`
	Confidence    float64             `json:"confidence"`
	Allocation    AllocationPlan      `json:"allocation"`
	Transaction   TransactionEstimate `json:"transaction"`
	Justification Justification       `json:"justification"`
}
