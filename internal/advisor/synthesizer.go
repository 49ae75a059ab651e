// Package advisor synthesizes sized, justified trade recommendations from
// the enriched focus list, the risk regime and the current portfolio
// snapshot.
package advisor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/internal/universe"
)

// Config holds the synthesizer's trading rules and sizing bounds.
type Config struct {
	SinglePositionMax  float64 // cap for add targets
	EntryMajorTarget   float64 // initial allocation for major satellites
	EntryDefaultTarget float64 // initial allocation for everything else
	AdjustStep         float64 // allocation step for add / trim
	CommissionPerTrade float64
	MinTradeSize       float64 // trades below this value are no-ops
	BaseConfidence     float64
	MaxConfidence      float64
}

// DefaultConfig returns the standard trading rules.
func DefaultConfig() Config {
	return Config{
		SinglePositionMax:  0.30,
		EntryMajorTarget:   0.10,
		EntryDefaultTarget: 0.05,
		AdjustStep:         0.03,
		CommissionPerTrade: 10.00,
		MinTradeSize:       500.00,
		BaseConfidence:     0.70,
		MaxConfidence:      0.95,
	}
}

// Synthesizer produces the final recommendation list for a scan cycle.
// It is stateless; each call works purely on its inputs.
type Synthesizer struct {
	cfg Config
	log zerolog.Logger
}

// NewSynthesizer creates a synthesizer with the given trading rules.
func NewSynthesizer(cfg Config, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		cfg: cfg,
		log: log.With().Str("component", "advisor").Logger(),
	}
}

// Synthesize converts each enriched focus entry into a recommendation,
// applying the sentiment and regime overrides, the sizing rules and the
// justification bundle. Entries whose resolved trade is a no-op are
// suppressed. Holdings not on the focus list produce no recommendations.
// The output is ordered by priority; order within a tier is stable.
func (s *Synthesizer) Synthesize(focus []domain.FocusEntry, riskRegime domain.RiskRegime, p *domain.PortfolioState) []domain.Recommendation {
	recommendations := []domain.Recommendation{}

	for _, entry := range focus {
		rec, err := s.synthesizeEntry(entry, riskRegime, p)
		if err != nil {
			// Per-ticker failures never abort the batch.
			s.log.Warn().Str("ticker", entry.Ticker).Err(err).Msg("Skipping focus entry")
			continue
		}
		if rec != nil {
			recommendations = append(recommendations, *rec)
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority.Rank() < recommendations[j].Priority.Rank()
	})

	s.log.Info().Int("count", len(recommendations)).Msg("Recommendations generated")
	return recommendations
}

func (s *Synthesizer) synthesizeEntry(entry domain.FocusEntry, riskRegime domain.RiskRegime, p *domain.PortfolioState) (*domain.Recommendation, error) {
	etf, ok := universe.Get(entry.Ticker)
	if !ok {
		return nil, fmt.Errorf("ticker %s not in universe", entry.Ticker)
	}

	position, held := p.Holding(entry.Ticker)

	action := s.resolveAction(entry, held, riskRegime)
	target := s.targetAllocation(action, etf.Category, position.Weight)

	plan := s.allocationPlan(target, position, p.TotalValue, entry.Snapshot.CurrentPrice)
	if plan.SharesToTrade == 0 {
		s.log.Debug().Str("ticker", entry.Ticker).Msg("No trade needed")
		return nil, nil
	}

	transaction := s.transactionEstimate(entry.Snapshot.CurrentPrice, plan.SharesToTrade, action)
	if transaction.EstimatedCost < s.cfg.MinTradeSize {
		s.log.Debug().Str("ticker", entry.Ticker).Float64("value", transaction.EstimatedCost).Msg("Trade below minimum size, skipping")
		return nil, nil
	}

	confidence := s.confidence(entry)
	priority := s.priority(action, confidence)

	return &domain.Recommendation{
		Ticker:        entry.Ticker,
		Action:        action,
		Priority:      priority,
		Confidence:    confidence,
		Allocation:    plan,
		Transaction:   transaction,
		Justification: s.justification(entry, etf, action, plan),
	}, nil
}

// resolveAction applies the layered overrides: preliminary technical
// action, then sentiment refinement, then the regime override last.
func (s *Synthesizer) resolveAction(entry domain.FocusEntry, held bool, riskRegime domain.RiskRegime) domain.Action {
	action := entry.Preliminary

	if entry.Sentiment != nil {
		score := entry.Sentiment.Score
		switch {
		case score > 0.5 && action == domain.ActionNeutral:
			if held {
				action = domain.ActionAdd
			} else {
				action = domain.ActionEntry
			}
		case score < -0.3 && held:
			action = domain.ActionTrim
		}
	}

	switch riskRegime {
	case domain.RegimeRiskOff:
		if action.IsBuy() {
			action = domain.ActionNeutral
		}
	case domain.RegimeCaution:
		if action == domain.ActionAdd {
			action = domain.ActionNeutral
		}
	case domain.RegimeNormal, domain.RegimeExtremeComplacency:
		// No override.
	}

	return action
}

func (s *Synthesizer) targetAllocation(action domain.Action, category domain.Category, currentWeight float64) float64 {
	switch action {
	case domain.ActionNeutral:
		return currentWeight
	case domain.ActionEntry:
		if category == domain.CategoryMajorSatellite {
			return s.cfg.EntryMajorTarget
		}
		return s.cfg.EntryDefaultTarget
	case domain.ActionAdd:
		return math.Min(currentWeight+s.cfg.AdjustStep, s.cfg.SinglePositionMax)
	case domain.ActionTrim:
		return math.Max(currentWeight-s.cfg.AdjustStep, 0)
	case domain.ActionExit:
		return 0
	}
	return currentWeight
}

func (s *Synthesizer) allocationPlan(target float64, position domain.Position, totalValue, price float64) domain.AllocationPlan {
	plan := domain.AllocationPlan{
		CurrentAllocation: position.Weight,
		TargetAllocation:  target,
		AllocationChange:  target - position.Weight,
		SharesCurrent:     position.Shares,
	}

	if price > 0 {
		plan.SharesTarget = int64(totalValue * target / price)
	}
	plan.SharesToTrade = plan.SharesTarget - plan.SharesCurrent

	return plan
}

func (s *Synthesizer) transactionEstimate(price float64, sharesToTrade int64, action domain.Action) domain.TransactionEstimate {
	absShares := sharesToTrade
	if absShares < 0 {
		absShares = -absShares
	}
	estimatedCost := float64(absShares) * price

	commission := 0.0
	if sharesToTrade != 0 {
		commission = s.cfg.CommissionPerTrade
	}

	var timeframe string
	switch action {
	case domain.ActionEntry, domain.ActionAdd:
		timeframe = "Next 1-2 trading days"
	case domain.ActionTrim:
		timeframe = "Next 2-3 trading days (non-urgent)"
	case domain.ActionExit:
		timeframe = "Immediate execution recommended"
	default:
		timeframe = "N/A"
	}

	return domain.TransactionEstimate{
		EstimatedPrice:     price,
		EstimatedCost:      estimatedCost,
		Commission:         commission,
		TotalCost:          estimatedCost + commission,
		ExecutionTimeframe: timeframe,
	}
}

func (s *Synthesizer) confidence(entry domain.FocusEntry) float64 {
	confidence := s.cfg.BaseConfidence

	if entry.Primary().Magnitude > 2.0 {
		confidence += 0.10
	}

	if entry.Sentiment != nil && entry.Sentiment.Relevance > 0.7 {
		switch {
		case entry.Sentiment.Score > 0.5:
			confidence += 0.10
		case entry.Sentiment.Score < -0.3:
			// Strong negative news also adds conviction.
			confidence += 0.05
		}
	}

	return math.Min(confidence, s.cfg.MaxConfidence)
}

func (s *Synthesizer) priority(action domain.Action, confidence float64) domain.Priority {
	switch {
	case (action == domain.ActionExit || action == domain.ActionEntry) && confidence > 0.8:
		return domain.PriorityHigh
	case action == domain.ActionAdd || action == domain.ActionTrim:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func (s *Synthesizer) justification(entry domain.FocusEntry, etf universe.ETF, action domain.Action, plan domain.AllocationPlan) domain.Justification {
	return domain.Justification{
		Thesis:               s.thesis(entry, etf, action),
		QuantitativeEvidence: s.quantitativeEvidence(entry),
		QualitativeEvidence:  s.qualitativeEvidence(entry, etf),
		RiskAssessment:       s.riskAssessment(entry, plan),
		HoldingPeriod:        holdingPeriod(action),
		ReviewTriggers:       reviewTriggers(entry.Snapshot.CurrentPrice),
	}
}

func (s *Synthesizer) thesis(entry domain.FocusEntry, etf universe.ETF, action domain.Action) string {
	trigger := entry.Primary()

	switch action {
	case domain.ActionEntry, domain.ActionAdd:
		support := "market dynamics"
		if entry.Sentiment != nil && entry.Sentiment.Score > 0 {
			support = "positive news sentiment"
		}
		verb := "initiating a position"
		if action == domain.ActionAdd {
			verb = "adding to our position"
		}
		return fmt.Sprintf("%s demonstrates strong momentum with %s. Technical indicators and %s support %s.",
			etf.Name, trigger.Description, support, verb)
	case domain.ActionTrim, domain.ActionExit:
		return fmt.Sprintf("While %s shows activity (%s), current risk environment and valuation suggest prudent profit-taking is warranted.",
			etf.Name, trigger.Description)
	default:
		return fmt.Sprintf("Maintaining current position in %s based on balanced risk/reward profile.", etf.Name)
	}
}

func (s *Synthesizer) quantitativeEvidence(entry domain.FocusEntry) map[string]string {
	evidence := map[string]string{}
	snap := entry.Snapshot

	momentum := fmt.Sprintf("1-day: %+.2f%%", snap.Change1D*100)
	if snap.Change5D != nil {
		momentum += fmt.Sprintf(", 5-day: %+.2f%%", *snap.Change5D*100)
	}
	evidence["price_momentum"] = momentum

	evidence["volume"] = fmt.Sprintf("%d shares (%.0f%% of 30-day avg)", snap.VolumeToday, snap.VolumeRatio*100)

	if entry.Indicators.RSI14 != nil {
		evidence["rsi"] = fmt.Sprintf("RSI at %.1f", *entry.Indicators.RSI14)
	}
	if entry.Indicators.MACDState != domain.MACDStateNone {
		evidence["macd"] = fmt.Sprintf("MACD signal: %s", entry.Indicators.MACDState)
	}

	return evidence
}

func (s *Synthesizer) qualitativeEvidence(entry domain.FocusEntry, etf universe.ETF) map[string]string {
	evidence := map[string]string{}

	if sent := entry.Sentiment; sent != nil {
		evidence["news_sentiment"] = fmt.Sprintf("Sentiment score: %+.2f/1.0 (relevance: %.2f)", sent.Score, sent.Relevance)
		if len(sent.Themes) > 0 {
			themes := sent.Themes
			if len(themes) > 3 {
				themes = themes[:3]
			}
			evidence["key_themes"] = strings.Join(themes, ", ")
		}
		if sent.Summary != "" {
			evidence["news_summary"] = truncate(sent.Summary, 200)
		}
	}

	evidence["sector_context"] = fmt.Sprintf("%s sector, %s geography", etf.Sector, etf.Geography)

	return evidence
}

func (s *Synthesizer) riskAssessment(entry domain.FocusEntry, plan domain.AllocationPlan) map[string]string {
	assessment := map[string]string{}

	if plan.TargetAllocation > 0.20 {
		assessment["concentration_risk"] = fmt.Sprintf("Position size of %.1f%% represents concentrated bet", plan.TargetAllocation*100)
	}

	if rsi := entry.Indicators.RSI14; rsi != nil {
		switch {
		case *rsi > 70:
			assessment["overbought_risk"] = fmt.Sprintf("RSI at %.1f suggests overbought conditions", *rsi)
		case *rsi < 30:
			assessment["oversold_risk"] = fmt.Sprintf("RSI at %.1f suggests potential reversal", *rsi)
		}
	}

	if entry.Sentiment != nil && len(entry.Sentiment.RiskFactors) > 0 {
		factors := entry.Sentiment.RiskFactors
		if len(factors) > 2 {
			factors = factors[:2]
		}
		assessment["news_risks"] = strings.Join(factors, ", ")
	}

	return assessment
}

func holdingPeriod(action domain.Action) string {
	switch action {
	case domain.ActionEntry, domain.ActionAdd:
		return "Medium-term (3-6 months), review at next prospectus period"
	case domain.ActionTrim:
		return "Reduce position over 1-2 weeks"
	case domain.ActionExit:
		return "Full exit, redeploy proceeds per target allocation"
	default:
		return "Continue monitoring"
	}
}

func reviewTriggers(currentPrice float64) []string {
	return []string{
		fmt.Sprintf("Price breaks below $%.2f (-7%% stop loss)", currentPrice*0.93),
		fmt.Sprintf("Price exceeds $%.2f (+15%% profit target)", currentPrice*1.15),
		"Volatility index crosses above 30 (risk-off threshold)",
		"Material negative news or earnings miss",
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
