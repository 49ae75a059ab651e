// Package risk validates portfolio snapshots against static position
// limits, computes safe position sizing and derives portfolio risk metrics.
package risk

// Limits is the static limit table for the growth-aggressive profile.
type Limits struct {
	SinglePositionMax float64
	SectorMax         float64
	CoreMin           float64
	CoreMax           float64
	EquityMin         float64
	EquityMax         float64
	CashOvernightMax  float64
	// CashExemptTicker is the one cash-equivalent instrument whose weight
	// does not count toward the overnight cash cap. Empty disables the
	// exemption.
	CashExemptTicker string
}

// DefaultLimits returns the standard limit table.
func DefaultLimits() Limits {
	return Limits{
		SinglePositionMax: 0.30,
		SectorMax:         0.50,
		CoreMin:           0.25,
		CoreMax:           0.40,
		EquityMin:         0.85,
		EquityMax:         1.00,
		CashOvernightMax:  0.05,
		CashExemptTicker:  "SGOV",
	}
}
