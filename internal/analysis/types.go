// Package analysis persists the results of daily analysis runs: the
// analysis document itself and the transaction ledger derived from
// executed recommendations.
package analysis

import (
	"time"

	"github.com/quiverlabs/radar/internal/domain"
)

// MarketOverview summarizes market-wide conditions at run time.
type MarketOverview struct {
	VolatilityIndex   float64                 `json:"volatility_index"`
	Volatility5DAvg   float64                 `json:"volatility_5d_avg"`
	Regime            domain.RiskRegime       `json:"regime"`
	RegimeDescription string                  `json:"regime_description"`
	TargetAllocation  domain.TargetAllocation `json:"target_allocation"`
}

// ExecutionSummary reports how an analysis run went.
type ExecutionSummary struct {
	Quality              string   `json:"quality"` // "high", "medium", "low"
	FocusListCount       int      `json:"focus_list_count"`
	RecommendationsCount int      `json:"recommendations_count"`
	Warnings             []string `json:"warnings,omitempty"`
	Errors               []string `json:"errors,omitempty"`
}

// DailyAnalysis is the complete output of one analysis run.
type DailyAnalysis struct {
	Date            string                  `json:"date"` // YYYY-MM-DD
	RunID           string                  `json:"run_id"`
	Timestamp       time.Time               `json:"timestamp"`
	ExecutionTime   time.Duration           `json:"execution_time_ns"`
	MarketOverview  MarketOverview          `json:"market_overview"`
	FocusList       []domain.FocusEntry     `json:"focus_list"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Portfolio       domain.PortfolioState   `json:"portfolio_snapshot"`
	Summary         ExecutionSummary        `json:"execution_summary"`
}

// Transaction is one executed trade in the ledger.
type Transaction struct {
	ID            string        `json:"id"`
	Date          string        `json:"date"` // YYYY-MM-DD
	Ticker        string        `json:"ticker"`
	Action        domain.Action `json:"action"`
	Shares        int64         `json:"shares"`
	Price         float64       `json:"price"`
	Commission    float64       `json:"commission"`
	TotalCost     float64       `json:"total_cost"`
	Justification string        `json:"justification"`
	AnalysisRef   string        `json:"analysis_reference,omitempty"`
}

// LedgerSummary aggregates the transaction history.
type LedgerSummary struct {
	TotalTransactions    int     `json:"total_transactions"`
	TotalCommissionsPaid float64 `json:"total_commissions_paid"`
	TotalBought          float64 `json:"total_bought"`
	TotalSold            float64 `json:"total_sold"`
}
