package portfolio

import (
	"math"
	"time"

	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/internal/universe"
)

// Holding is the minimal input for constructing a position: what is held
// and what it cost.
type Holding struct {
	Ticker    string
	Shares    int64
	CostBasis float64
}

// NewState builds a full portfolio snapshot from raw holdings and current
// prices. Holdings without a price keep their cost basis as current price.
func NewState(holdings []Holding, cash, initialCapital float64, prices map[string]float64, asOf time.Time) domain.PortfolioState {
	positions := make(map[string]domain.Position, len(holdings))
	for _, h := range holdings {
		price, ok := prices[h.Ticker]
		if !ok {
			price = h.CostBasis
		}
		positions[h.Ticker] = buildPosition(h.Ticker, h.Shares, h.CostBasis, price)
	}

	state := domain.PortfolioState{
		AsOf:           asOf,
		InitialCapital: initialCapital,
		CashBalance:    cash,
		Positions:      positions,
	}
	finalize(&state, 0)

	return state
}

// Reprice returns a copy of the state updated with fresh closing prices.
// Market values, weights, breakdowns and returns are recomputed; positions
// themselves (shares, cost basis) are never changed here.
func Reprice(state domain.PortfolioState, prices map[string]float64, asOf time.Time) domain.PortfolioState {
	previousTotal := state.TotalValue

	positions := make(map[string]domain.Position, len(state.Positions))
	for ticker, pos := range state.Positions {
		price := pos.CurrentPrice
		if p, ok := prices[ticker]; ok {
			price = p
		}
		positions[ticker] = buildPosition(ticker, pos.Shares, pos.CostBasis, price)
	}

	updated := state
	updated.AsOf = asOf
	updated.Positions = positions
	finalize(&updated, previousTotal)

	return updated
}

func buildPosition(ticker string, shares int64, costBasis, price float64) domain.Position {
	marketValue := round2(float64(shares) * price)
	cost := float64(shares) * costBasis

	pos := domain.Position{
		Ticker:         ticker,
		Shares:         shares,
		CostBasis:      costBasis,
		CurrentPrice:   price,
		MarketValue:    marketValue,
		UnrealizedGain: round2(marketValue - cost),
	}
	if cost > 0 {
		pos.UnrealizedGainPc = round4((marketValue - cost) / cost)
	}

	return pos
}

// finalize recomputes total value, weights, breakdowns and returns in place.
func finalize(state *domain.PortfolioState, previousTotal float64) {
	var invested float64
	for _, pos := range state.Positions {
		invested += pos.MarketValue
	}
	total := round2(invested + state.CashBalance)
	state.TotalValue = total

	for ticker, pos := range state.Positions {
		if total > 0 {
			pos.Weight = round4(pos.MarketValue / total)
		} else {
			pos.Weight = 0
		}
		state.Positions[ticker] = pos
	}

	state.Allocation = computeAllocation(state.Positions)
	state.SectorBreakdown = computeSectorBreakdown(state.Positions)
	state.GeographyBreakdown = computeGeographyBreakdown(state.Positions)

	if state.InitialCapital > 0 {
		state.TotalReturnPct = round6((total - state.InitialCapital) / state.InitialCapital)
	}
	if previousTotal > 0 {
		state.DailyReturnPct = round6((total - previousTotal) / previousTotal)
	} else {
		state.DailyReturnPct = 0
	}
}

func computeAllocation(positions map[string]domain.Position) domain.AllocationBreakdown {
	var breakdown domain.AllocationBreakdown

	for ticker, pos := range positions {
		switch universe.CategoryOf(ticker) {
		case domain.CategoryCore:
			breakdown.Core += pos.Weight
		case domain.CategoryMajorSatellite:
			breakdown.MajorSatellites += pos.Weight
		case domain.CategoryTacticalSatellite:
			breakdown.TacticalSatellites += pos.Weight
		case domain.CategoryHedging:
			breakdown.Hedging += pos.Weight
		}
	}

	breakdown.Core = round4(breakdown.Core)
	breakdown.MajorSatellites = round4(breakdown.MajorSatellites)
	breakdown.TacticalSatellites = round4(breakdown.TacticalSatellites)
	breakdown.Hedging = round4(breakdown.Hedging)

	return breakdown
}

func computeSectorBreakdown(positions map[string]domain.Position) map[string]float64 {
	breakdown := make(map[string]float64)

	for ticker, pos := range positions {
		sector := universe.SectorOf(ticker)
		if sector == "" {
			continue
		}
		breakdown[sector] = round4(breakdown[sector] + pos.Weight)
	}

	return breakdown
}

func computeGeographyBreakdown(positions map[string]domain.Position) map[string]float64 {
	breakdown := make(map[string]float64)

	for ticker, pos := range positions {
		etf, ok := universe.Get(ticker)
		if !ok || etf.Geography == "" {
			continue
		}
		breakdown[etf.Geography] = round4(breakdown[etf.Geography] + pos.Weight)
	}

	return breakdown
}

func round2(v float64) float64 { return math.Round(v*1e2) / 1e2 }
func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
