package domain

// Action represents the resolved trade intent for a ticker.
type Action string

const (
	// ActionNeutral means no change to the position.
	ActionNeutral Action = "neutral"
	// ActionEntry means initiate a new position.
	ActionEntry Action = "entry"
	// ActionAdd means increase an existing position.
	ActionAdd Action = "add"
	// ActionTrim means reduce an existing position.
	ActionTrim Action = "trim"
	// ActionExit means close the position entirely.
	ActionExit Action = "exit"
)

// Valid reports whether the action is a known variant.
func (a Action) Valid() bool {
	switch a {
	case ActionNeutral, ActionEntry, ActionAdd, ActionTrim, ActionExit:
		return true
	default:
		return false
	}
}

// IsBuy reports whether the action increases exposure.
func (a Action) IsBuy() bool {
	return a == ActionEntry || a == ActionAdd
}

// TriggerType classifies the anomaly condition that flagged a ticker.
type TriggerType string

const (
	TriggerVolumeSpike       TriggerType = "volume_spike"
	TriggerPriceMove         TriggerType = "price_move"
	TriggerMomentumCrossover TriggerType = "momentum_crossover"
	TriggerRSIExtreme        TriggerType = "rsi_extreme"
)

// Valid reports whether the trigger type is a known variant.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerVolumeSpike, TriggerPriceMove, TriggerMomentumCrossover, TriggerRSIExtreme:
		return true
	default:
		return false
	}
}

// Priority classifies recommendation urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of the priority (high first).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// MACDState describes the relationship between the MACD line and its signal
// line at the most recent bar.
type MACDState string

const (
	MACDStateNone             MACDState = ""
	MACDStateBullish          MACDState = "bullish"
	MACDStateBearish          MACDState = "bearish"
	MACDStateBullishCrossover MACDState = "bullish_crossover"
	MACDStateBearishCrossover MACDState = "bearish_crossover"
)

// IsCrossover reports whether the MACD line crossed its signal line at the
// most recent bar, in either direction.
func (s MACDState) IsCrossover() bool {
	return s == MACDStateBullishCrossover || s == MACDStateBearishCrossover
}

// IsBullish reports whether the MACD line is above its signal line.
func (s MACDState) IsBullish() bool {
	return s == MACDStateBullish || s == MACDStateBullishCrossover
}

// IsBearish reports whether the MACD line is below its signal line.
func (s MACDState) IsBearish() bool {
	return s == MACDStateBearish || s == MACDStateBearishCrossover
}

// BandPosition describes where the current price sits relative to the
// Bollinger bands.
type BandPosition string

const (
	BandPositionNone   BandPosition = ""
	BandPositionUpper  BandPosition = "upper_band"
	BandPositionMiddle BandPosition = "middle"
	BandPositionLower  BandPosition = "lower_band"
)
