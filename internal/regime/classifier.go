// Package regime classifies prevailing market risk from a volatility index
// reading and maps each regime to a target macro allocation.
package regime

import (
	"fmt"

	"github.com/quiverlabs/radar/internal/domain"
)

// Volatility index thresholds separating the four regimes.
const (
	ThresholdComplacency = 15.0
	ThresholdCaution     = 25.0
	ThresholdRiskOff     = 35.0
)

// Classification is the result of a regime read: the regime label, a
// human-readable description of the reading, and the regime's target macro
// allocation.
type Classification struct {
	Regime      domain.RiskRegime       `json:"regime"`
	Current     float64                 `json:"volatility_current"`
	Trailing5D  float64                 `json:"volatility_5d_avg"`
	Description string                  `json:"description"`
	Target      domain.TargetAllocation `json:"target_allocation"`
}

var targets = map[domain.RiskRegime]domain.TargetAllocation{
	domain.RegimeExtremeComplacency: {
		Equity:         0.85,
		FixedIncome:    0.10,
		CashEquivalent: 0.05,
		Description:    "Market overheated - trim winners, build cash",
	},
	domain.RegimeNormal: {
		Equity:         0.95,
		FixedIncome:    0.05,
		CashEquivalent: 0.00,
		Description:    "Normal operations - fully invested per strategy",
	},
	domain.RegimeCaution: {
		Equity:         0.80,
		FixedIncome:    0.15,
		CashEquivalent: 0.05,
		Description:    "Elevated vol - reduce risk assets, increase bonds",
	},
	domain.RegimeRiskOff: {
		Equity:         0.60,
		FixedIncome:    0.20,
		CashEquivalent: 0.20,
		Description:    "Crisis mode - capital preservation priority",
	},
}

// Classify maps a volatility reading to a regime. The more conservative of
// the current reading and its 5-day trailing average is compared against the
// thresholds, so a spiking or recently elevated index both push toward the
// defensive regimes. Pure and deterministic.
func Classify(current, trailing5Avg float64) Classification {
	// max(current, average) is the conservative reading
	reading := current
	if trailing5Avg > reading {
		reading = trailing5Avg
	}

	var regime domain.RiskRegime
	var description string
	switch {
	case reading < ThresholdComplacency:
		regime = domain.RegimeExtremeComplacency
		description = fmt.Sprintf("Volatility index at %.1f indicates market complacency - reduce risk", current)
	case reading < ThresholdCaution:
		regime = domain.RegimeNormal
		description = fmt.Sprintf("Volatility index at %.1f indicates normal market conditions", current)
	case reading < ThresholdRiskOff:
		regime = domain.RegimeCaution
		description = fmt.Sprintf("Volatility index at %.1f indicates elevated volatility - trim high-beta positions", current)
	default:
		regime = domain.RegimeRiskOff
		description = fmt.Sprintf("Volatility index at %.1f indicates crisis mode - defensive positioning required", current)
	}

	return Classification{
		Regime:      regime,
		Current:     current,
		Trailing5D:  trailing5Avg,
		Description: description,
		Target:      targets[regime],
	}
}

// TargetFor returns the target macro allocation for a regime. Unknown
// regimes fall back to the normal allocation.
func TargetFor(regime domain.RiskRegime) domain.TargetAllocation {
	if t, ok := targets[regime]; ok {
		return t
	}
	return targets[domain.RegimeNormal]
}
