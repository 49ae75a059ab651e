package risk

import (
	"fmt"
	"math"

	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/internal/regime"
)

// equityDriftThreshold is the equity-exposure deviation from the regime
// target that warrants an adjustment note.
const equityDriftThreshold = 0.05

// AdjustmentNotes produces human-readable portfolio guidance for the
// current regime: an equity rebalancing note when exposure drifts from the
// regime target, plus regime-specific positioning advice.
func AdjustmentNotes(riskRegime domain.RiskRegime, p *domain.PortfolioState) []string {
	var notes []string

	target := regime.TargetFor(riskRegime)
	currentEquity := EquityExposure(p)
	delta := target.Equity - currentEquity

	if math.Abs(delta) > equityDriftThreshold {
		if delta > 0 {
			notes = append(notes, fmt.Sprintf(
				"Increase equity exposure from %.1f%% to %.1f%% (add %.1f%%)",
				currentEquity*100, target.Equity*100, delta*100))
		} else {
			notes = append(notes, fmt.Sprintf(
				"Reduce equity exposure from %.1f%% to %.1f%% (trim %.1f%%)",
				currentEquity*100, target.Equity*100, -delta*100))
		}
	}

	switch riskRegime {
	case domain.RegimeRiskOff:
		notes = append(notes,
			"Move to defensive positioning - prioritize capital preservation",
			"Consider increasing allocation to SGOV (cash equivalent)",
			"Trim high-beta positions (IYW, IJR, MCHI)",
			"Increase fixed income allocation (AGG, TLT)",
		)
	case domain.RegimeCaution:
		notes = append(notes,
			"Elevated volatility detected - reduce risk in tactical satellites",
			"Consider trimming positions with outsized gains",
			"Monitor high-beta sectors (Technology, Small-Cap) closely",
		)
	case domain.RegimeExtremeComplacency:
		notes = append(notes,
			"Market complacency detected - volatility index unusually low",
			"Consider building cash reserves (SGOV) for tactical opportunities",
			"Avoid chasing momentum - risk/reward unfavorable",
		)
	case domain.RegimeNormal:
		// No regime-specific guidance in normal conditions.
	}

	return notes
}
