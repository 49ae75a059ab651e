package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/internal/universe"
)

// Validator checks a portfolio snapshot against the static limit table.
// All five checks run unconditionally; a violation never stops the others.
type Validator struct {
	limits Limits
	log    zerolog.Logger
}

// NewValidator creates a validator with the given limits.
func NewValidator(limits Limits, log zerolog.Logger) *Validator {
	return &Validator{
		limits: limits,
		log:    log.With().Str("component", "risk").Logger(),
	}
}

// Limits returns the validator's limit table.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate runs every check against the snapshot and returns the combined
// result. isValid iff no check produced a violation.
func (v *Validator) Validate(p *domain.PortfolioState) (bool, []string) {
	violations := []string{}

	violations = v.checkSinglePositions(p, violations)
	violations = v.checkSectorConcentration(p, violations)
	violations = v.checkCoreAllocation(p, violations)
	violations = v.checkEquityExposure(p, violations)
	violations = v.checkOvernightCash(p, violations)

	if len(violations) > 0 {
		v.log.Warn().Int("violations", len(violations)).Msg("Portfolio failed limit checks")
	}
	return len(violations) == 0, violations
}

func (v *Validator) checkSinglePositions(p *domain.PortfolioState, violations []string) []string {
	for ticker, pos := range p.Positions {
		if pos.Weight > v.limits.SinglePositionMax {
			violations = append(violations, fmt.Sprintf(
				"%s allocation (%.1f%%) exceeds max single position limit (%.1f%%)",
				ticker, pos.Weight*100, v.limits.SinglePositionMax*100))
		}
	}
	return violations
}

func (v *Validator) checkSectorConcentration(p *domain.PortfolioState, violations []string) []string {
	for sector, allocation := range p.SectorBreakdown {
		if allocation > v.limits.SectorMax {
			violations = append(violations, fmt.Sprintf(
				"%s sector allocation (%.1f%%) exceeds max sector limit (%.1f%%)",
				sector, allocation*100, v.limits.SectorMax*100))
		}
	}
	return violations
}

func (v *Validator) checkCoreAllocation(p *domain.PortfolioState, violations []string) []string {
	core := p.Allocation.Core
	switch {
	case core < v.limits.CoreMin:
		violations = append(violations, fmt.Sprintf(
			"Core allocation (%.1f%%) below minimum (%.1f%%)",
			core*100, v.limits.CoreMin*100))
	case core > v.limits.CoreMax:
		violations = append(violations, fmt.Sprintf(
			"Core allocation (%.1f%%) exceeds maximum (%.1f%%)",
			core*100, v.limits.CoreMax*100))
	}
	return violations
}

func (v *Validator) checkEquityExposure(p *domain.PortfolioState, violations []string) []string {
	equity := EquityExposure(p)
	switch {
	case equity < v.limits.EquityMin:
		violations = append(violations, fmt.Sprintf(
			"Equity exposure (%.1f%%) below minimum (%.1f%%)",
			equity*100, v.limits.EquityMin*100))
	case equity > v.limits.EquityMax:
		violations = append(violations, fmt.Sprintf(
			"Equity exposure (%.1f%%) exceeds maximum (%.1f%%)",
			equity*100, v.limits.EquityMax*100))
	}
	return violations
}

func (v *Validator) checkOvernightCash(p *domain.PortfolioState, violations []string) []string {
	if p.TotalValue <= 0 {
		return violations
	}

	cash := p.CashBalance / p.TotalValue

	// Cash-equivalent holdings count toward the cap, except the one
	// designated exempt instrument.
	for ticker, pos := range p.Positions {
		if ticker == v.limits.CashExemptTicker {
			continue
		}
		if etfAssetClass(ticker) == domain.AssetClassCashEquivalent {
			cash += pos.Weight
		}
	}

	if cash > v.limits.CashOvernightMax {
		violations = append(violations, fmt.Sprintf(
			"Cash allocation (%.1f%%) exceeds overnight limit (%.1f%%)",
			cash*100, v.limits.CashOvernightMax*100))
	}
	return violations
}

// EquityExposure sums the weights of equity-class positions.
func EquityExposure(p *domain.PortfolioState) float64 {
	var total float64
	for ticker, pos := range p.Positions {
		if etfAssetClass(ticker) == domain.AssetClassEquity {
			total += pos.Weight
		}
	}
	return total
}

func etfAssetClass(ticker string) domain.AssetClass {
	if e, ok := universe.Get(ticker); ok {
		return e.AssetClass
	}
	return ""
}

// SafePositionSize returns the maximum dollar amount that may be added to a
// ticker without breaching the per-position cap or the remaining sector
// headroom. Returns 0 when the sector is already at or past its cap, or
// when the ticker is outside the universe.
func (v *Validator) SafePositionSize(ticker string, portfolioValue float64, sectorAllocations map[string]float64) float64 {
	etf, ok := universe.Get(ticker)
	if !ok {
		v.log.Warn().Str("ticker", ticker).Msg("Unknown ticker, sizing to zero")
		return 0
	}

	maxPositionValue := portfolioValue * v.limits.SinglePositionMax

	headroom := v.limits.SectorMax - sectorAllocations[etf.Sector]
	if headroom <= 0 {
		v.log.Warn().Str("sector", etf.Sector).Float64("allocation", sectorAllocations[etf.Sector]).Msg("Sector already at limit")
		return 0
	}
	maxSectorValue := portfolioValue * headroom

	if maxSectorValue < maxPositionValue {
		return maxSectorValue
	}
	return maxPositionValue
}
