package domain

// RiskRegime is one of four ordered market-volatility classifications.
// Ordering is by escalating risk: extreme complacency < normal < caution <
// risk-off.
type RiskRegime string

const (
	RegimeExtremeComplacency RiskRegime = "extreme_complacency"
	RegimeNormal             RiskRegime = "normal"
	RegimeCaution            RiskRegime = "caution"
	RegimeRiskOff            RiskRegime = "risk_off"
)

// Valid reports whether the regime is a known variant.
func (r RiskRegime) Valid() bool {
	switch r {
	case RegimeExtremeComplacency, RegimeNormal, RegimeCaution, RegimeRiskOff:
		return true
	default:
		return false
	}
}

// Rank returns the position of the regime in the risk ordering, from 0
// (extreme complacency) to 3 (risk-off).
func (r RiskRegime) Rank() int {
	switch r {
	case RegimeExtremeComplacency:
		return 0
	case RegimeNormal:
		return 1
	case RegimeCaution:
		return 2
	case RegimeRiskOff:
		return 3
	default:
		return -1
	}
}

// TargetAllocation is the macro asset split a regime prescribes.
// Equity + FixedIncome + CashEquivalent sum to 1.
type TargetAllocation struct {
	Equity         float64 `json:"equity"`
	FixedIncome    float64 `json:"fixed_income"`
	CashEquivalent float64 `json:"cash_equivalent"`
	Description    string  `json:"description"`
}
