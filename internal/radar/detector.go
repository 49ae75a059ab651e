// Package radar implements the broad technical scan across the ETF
// universe. The detector computes indicators per ticker, raises triggers in
// a fixed evaluation order and produces a bounded focus list for deeper
// review.
package radar

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/pkg/formulas"
)

// Config holds the trigger thresholds and scan bounds.
type Config struct {
	VolumeSpikeThreshold float64 // volume ratio vs 30-day average
	PriceMoveThreshold   float64 // absolute 1-day return
	PriceStdDevThreshold float64 // 1-day return z-score vs 30-day stddev
	RSIOverbought        float64
	RSIOversold          float64
	FocusListMaxSize     int
	ScanConcurrency      int
}

// DefaultConfig returns the standard trigger thresholds.
func DefaultConfig() Config {
	return Config{
		VolumeSpikeThreshold: 1.30,
		PriceMoveThreshold:   0.015,
		PriceStdDevThreshold: 2.0,
		RSIOverbought:        70,
		RSIOversold:          30,
		FocusListMaxSize:     7,
		ScanConcurrency:      8,
	}
}

// minScanBars is the shortest series the detector will evaluate. Below
// this, the 30-day volume and return baselines are meaningless and no
// trigger can fire.
const minScanBars = 30

// Detector is the technical signal detector. It is stateless and safe for
// concurrent use.
type Detector struct {
	cfg Config
	log zerolog.Logger
}

// NewDetector creates a detector with the given configuration.
func NewDetector(cfg Config, log zerolog.Logger) *Detector {
	if cfg.FocusListMaxSize <= 0 {
		cfg.FocusListMaxSize = DefaultConfig().FocusListMaxSize
	}
	if cfg.ScanConcurrency <= 0 {
		cfg.ScanConcurrency = DefaultConfig().ScanConcurrency
	}
	return &Detector{
		cfg: cfg,
		log: log.With().Str("component", "radar").Logger(),
	}
}

// Snapshot derives the current price/volume summary from a series.
// ok is false when the series is empty.
func Snapshot(ticker string, series domain.PriceSeries) (domain.PriceSnapshot, bool) {
	last, ok := series.Last()
	if !ok {
		return domain.PriceSnapshot{}, false
	}

	snap := domain.PriceSnapshot{
		Ticker:       ticker,
		CurrentPrice: last.Close,
		VolumeToday:  last.Volume,
	}

	n := len(series)
	if n >= 2 && series[n-2].Close > 0 {
		snap.Change1D = (last.Close - series[n-2].Close) / series[n-2].Close
	}
	if n >= 6 && series[n-6].Close > 0 {
		change := (last.Close - series[n-6].Close) / series[n-6].Close
		snap.Change5D = &change
	}
	if n >= 31 && series[n-31].Close > 0 {
		change := (last.Close - series[n-31].Close) / series[n-31].Close
		snap.Change30D = &change
	}

	window := series
	if n > 30 {
		window = series[n-30:]
	}
	var volSum int64
	for _, b := range window {
		volSum += b.Volume
	}
	snap.Volume30DAvg = volSum / int64(len(window))

	// Zero average volume guards the ratio to 1.0 so the volume-spike
	// trigger cannot fire on it.
	if snap.Volume30DAvg > 0 {
		snap.VolumeRatio = float64(snap.VolumeToday) / float64(snap.Volume30DAvg)
	} else {
		snap.VolumeRatio = 1.0
	}

	return snap, true
}

// Indicators computes the full indicator set for a series. Indicators
// needing more history than available are left absent.
func (d *Detector) Indicators(series domain.PriceSeries) domain.IndicatorSet {
	closes := series.Closes()

	set := domain.IndicatorSet{
		SMA20:  formulas.SMA(closes, 20),
		SMA50:  formulas.SMA(closes, 50),
		SMA200: formulas.SMA(closes, 200),
		RSI14:  formulas.RSI(closes, 14),
	}

	if macd := formulas.MACD(closes, 12, 26, 9); macd != nil {
		set.MACD = &macd.Line
		set.MACDSignal = &macd.Signal
		set.MACDState = macdState(macd)
	}

	if bands := formulas.Bollinger(closes, 20, 2.0); bands != nil {
		set.BollingerUpper = &bands.Upper
		set.BollingerLower = &bands.Lower
		if last, ok := series.Last(); ok {
			switch {
			case last.Close >= bands.Upper:
				set.BollingerPosition = domain.BandPositionUpper
			case last.Close <= bands.Lower:
				set.BollingerPosition = domain.BandPositionLower
			default:
				set.BollingerPosition = domain.BandPositionMiddle
			}
		}
	}

	return set
}

func macdState(m *formulas.MACDPoint) domain.MACDState {
	switch {
	case m.Line > m.Signal && m.PrevLine <= m.PrevSignal:
		return domain.MACDStateBullishCrossover
	case m.Line < m.Signal && m.PrevLine >= m.PrevSignal:
		return domain.MACDStateBearishCrossover
	case m.Line > m.Signal:
		return domain.MACDStateBullish
	default:
		return domain.MACDStateBearish
	}
}

// detectTriggers evaluates the four triggers in fixed order. The order
// determines the primary trigger: the first fired, independent of
// magnitude.
func (d *Detector) detectTriggers(snap domain.PriceSnapshot, series domain.PriceSeries, ind domain.IndicatorSet) []domain.Trigger {
	var triggers []domain.Trigger

	if t := d.detectVolumeSpike(snap); t != nil {
		triggers = append(triggers, *t)
	}
	if t := d.detectPriceMove(snap, series); t != nil {
		triggers = append(triggers, *t)
	}
	if t := d.detectMomentumCrossover(ind); t != nil {
		triggers = append(triggers, *t)
	}
	if t := d.detectRSIExtreme(ind); t != nil {
		triggers = append(triggers, *t)
	}

	return triggers
}

func (d *Detector) detectVolumeSpike(snap domain.PriceSnapshot) *domain.Trigger {
	if snap.VolumeRatio < d.cfg.VolumeSpikeThreshold {
		return nil
	}
	return &domain.Trigger{
		Type:        domain.TriggerVolumeSpike,
		Magnitude:   snap.VolumeRatio,
		Description: fmt.Sprintf("Volume %.0f%% of 30-day average", snap.VolumeRatio*100),
	}
}

func (d *Detector) detectPriceMove(snap domain.PriceSnapshot, series domain.PriceSeries) *domain.Trigger {
	absChange := math.Abs(snap.Change1D)

	if absChange >= d.cfg.PriceMoveThreshold {
		return &domain.Trigger{
			Type:        domain.TriggerPriceMove,
			Magnitude:   snap.Change1D,
			Description: fmt.Sprintf("Price moved %+.2f%% (above %.1f%% threshold)", snap.Change1D*100, d.cfg.PriceMoveThreshold*100),
		}
	}

	// Fall back to a z-score against the trailing 30-day return stddev.
	returns := formulas.Returns(series.Closes())
	if len(returns) < 30 {
		return nil
	}
	stddev := formulas.StdDev(returns[len(returns)-30:])
	if stddev <= 0 {
		return nil
	}
	zScore := absChange / stddev
	if zScore < d.cfg.PriceStdDevThreshold {
		return nil
	}
	return &domain.Trigger{
		Type:        domain.TriggerPriceMove,
		Magnitude:   zScore,
		Description: fmt.Sprintf("Price moved %.1f standard deviations", zScore),
	}
}

func (d *Detector) detectMomentumCrossover(ind domain.IndicatorSet) *domain.Trigger {
	if ind.MACDState.IsCrossover() {
		direction := "bullish"
		if ind.MACDState == domain.MACDStateBearishCrossover {
			direction = "bearish"
		}
		return &domain.Trigger{
			Type:        domain.TriggerMomentumCrossover,
			Magnitude:   1.0,
			Description: fmt.Sprintf("MACD %s crossover", direction),
		}
	}

	// Recent golden cross proxy: SMA20 just above SMA50.
	if ind.SMA20 != nil && ind.SMA50 != nil && *ind.SMA50 > 0 {
		ratio := *ind.SMA20 / *ind.SMA50
		if ratio > 1.0 && ratio < 1.02 {
			return &domain.Trigger{
				Type:        domain.TriggerMomentumCrossover,
				Magnitude:   ratio,
				Description: "20-day MA crossed above 50-day MA (golden cross)",
			}
		}
	}

	return nil
}

func (d *Detector) detectRSIExtreme(ind domain.IndicatorSet) *domain.Trigger {
	if ind.RSI14 == nil {
		return nil
	}
	rsi := *ind.RSI14
	switch {
	case rsi >= d.cfg.RSIOverbought:
		return &domain.Trigger{
			Type:        domain.TriggerRSIExtreme,
			Magnitude:   rsi,
			Description: fmt.Sprintf("RSI at %.1f (overbought)", rsi),
		}
	case rsi <= d.cfg.RSIOversold:
		return &domain.Trigger{
			Type:        domain.TriggerRSIExtreme,
			Magnitude:   rsi,
			Description: fmt.Sprintf("RSI at %.1f (oversold)", rsi),
		}
	}
	return nil
}

// preliminaryAction is a 3-vote heuristic over price direction, MACD state
// and RSI zone. One side must out-vote the other by more than one to leave
// neutral; ties and near-ties stay neutral pending enrichment.
func preliminaryAction(snap domain.PriceSnapshot, ind domain.IndicatorSet) domain.Action {
	bullish, bearish := 0, 0

	if snap.Change1D > 0 {
		bullish++
	} else {
		bearish++
	}

	switch {
	case ind.MACDState.IsBullish():
		bullish++
	case ind.MACDState.IsBearish():
		bearish++
	}

	if ind.RSI14 != nil {
		switch {
		case *ind.RSI14 < 30:
			bullish++ // oversold
		case *ind.RSI14 > 70:
			bearish++ // overbought
		}
	}

	switch {
	case bullish > bearish+1:
		return domain.ActionEntry
	case bearish > bullish+1:
		return domain.ActionTrim
	default:
		return domain.ActionNeutral
	}
}

// ScanTicker evaluates one ticker's series. Returns nil when no trigger
// fires or the series is too short to evaluate any trigger.
func (d *Detector) ScanTicker(ticker string, series domain.PriceSeries) *domain.FocusEntry {
	if len(series) < minScanBars {
		d.log.Warn().Str("ticker", ticker).Int("bars", len(series)).Msg("Insufficient history, skipping scan")
		return nil
	}

	snap, ok := Snapshot(ticker, series)
	if !ok {
		return nil
	}

	indicators := d.Indicators(series)
	triggers := d.detectTriggers(snap, series, indicators)
	if len(triggers) == 0 {
		return nil
	}

	return &domain.FocusEntry{
		Ticker:      ticker,
		Triggers:    triggers,
		Snapshot:    snap,
		Indicators:  indicators,
		Preliminary: preliminaryAction(snap, indicators),
	}
}

// Scan evaluates every ticker in parallel and returns the focus list,
// sorted by primary-trigger magnitude descending and truncated to the
// configured maximum. An empty list is valid on quiet days.
func (d *Detector) Scan(market map[string]domain.PriceSeries) []domain.FocusEntry {
	var (
		mu      sync.Mutex
		entries []domain.FocusEntry
		wg      sync.WaitGroup
		sem     = make(chan struct{}, d.cfg.ScanConcurrency)
	)

	for ticker, series := range market {
		wg.Add(1)
		sem <- struct{}{}
		go func(ticker string, series domain.PriceSeries) {
			defer wg.Done()
			defer func() { <-sem }()

			if entry := d.ScanTicker(ticker, series); entry != nil {
				mu.Lock()
				entries = append(entries, *entry)
				mu.Unlock()
			}
		}(ticker, series)
	}
	wg.Wait()

	// Magnitude descending; ticker breaks ties so parallel scans are
	// deterministic.
	sort.Slice(entries, func(i, j int) bool {
		mi, mj := entries[i].Primary().Magnitude, entries[j].Primary().Magnitude
		if mi != mj {
			return mi > mj
		}
		return entries[i].Ticker < entries[j].Ticker
	})

	if len(entries) > d.cfg.FocusListMaxSize {
		d.log.Info().Int("from", len(entries)).Int("to", d.cfg.FocusListMaxSize).Msg("Truncating focus list")
		entries = entries[:d.cfg.FocusListMaxSize]
	}

	d.log.Info().Int("flagged", len(entries)).Msg("Radar scan complete")
	return entries
}
