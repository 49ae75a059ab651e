package portfolio

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/quiverlabs/radar/internal/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	return repo
}

func testHoldings() []Holding {
	return []Holding{
		{Ticker: "IVV", Shares: 40, CostBasis: 500},
		{Ticker: "AGG", Shares: 100, CostBasis: 100},
		{Ticker: "IYW", Shares: 30, CostBasis: 120},
		{Ticker: "MCHI", Shares: 50, CostBasis: 45},
	}
}

func testPrices() map[string]float64 {
	return map[string]float64{
		"IVV":  520,
		"AGG":  99,
		"IYW":  130,
		"MCHI": 48,
	}
}

func TestNewState_ComputesPositions(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), asOf)

	ivv := state.Positions["IVV"]
	assert.Equal(t, int64(40), ivv.Shares)
	assert.Equal(t, 520.0, ivv.CurrentPrice)
	assert.Equal(t, 20800.0, ivv.MarketValue)
	assert.Equal(t, 800.0, ivv.UnrealizedGain)
	assert.InDelta(t, 0.04, ivv.UnrealizedGainPc, 1e-9)

	// 20800 + 9900 + 3900 + 2400 invested, plus 1000 cash.
	assert.Equal(t, 38000.0, state.TotalValue)
	assert.InDelta(t, 20800.0/38000.0, ivv.Weight, 1e-4)
}

func TestNewState_Breakdowns(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), asOf)

	// IVV and AGG are core; IYW is a major satellite; MCHI is tactical.
	assert.InDelta(t, (20800.0+9900.0)/38000.0, state.Allocation.Core, 1e-3)
	assert.InDelta(t, 3900.0/38000.0, state.Allocation.MajorSatellites, 1e-3)
	assert.InDelta(t, 2400.0/38000.0, state.Allocation.TacticalSatellites, 1e-3)
	assert.Zero(t, state.Allocation.Hedging)

	assert.InDelta(t, 3900.0/38000.0, state.SectorBreakdown["Technology"], 1e-3)
	assert.InDelta(t, 2400.0/38000.0, state.GeographyBreakdown["China"], 1e-3)
	assert.Greater(t, state.GeographyBreakdown["US"], 0.9*34600.0/38000.0)
}

func TestNewState_Returns(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), asOf)

	assert.InDelta(t, (38000.0-36000.0)/36000.0, state.TotalReturnPct, 1e-6)
	assert.Zero(t, state.DailyReturnPct, "first snapshot has no prior value")
}

func TestNewState_MissingPriceFallsBackToCost(t *testing.T) {
	holdings := []Holding{{Ticker: "IVV", Shares: 10, CostBasis: 500}}
	state := NewState(holdings, 0, 5000, map[string]float64{}, time.Now())

	assert.Equal(t, 500.0, state.Positions["IVV"].CurrentPrice)
	assert.Zero(t, state.Positions["IVV"].UnrealizedGain)
}

func TestReprice(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), asOf)

	next := testPrices()
	next["IVV"] = 530

	repriced := Reprice(state, next, asOf.AddDate(0, 0, 1))

	assert.Equal(t, 530.0, repriced.Positions["IVV"].CurrentPrice)
	assert.Equal(t, 38400.0, repriced.TotalValue)
	assert.InDelta(t, 400.0/38000.0, repriced.DailyReturnPct, 1e-6)

	// Shares and cost basis never change on reprice.
	assert.Equal(t, state.Positions["IVV"].Shares, repriced.Positions["IVV"].Shares)
	assert.Equal(t, state.Positions["IVV"].CostBasis, repriced.Positions["IVV"].CostBasis)

	// The input state is not mutated.
	assert.Equal(t, 520.0, state.Positions["IVV"].CurrentPrice)
	assert.Equal(t, 38000.0, state.TotalValue)
}

func TestReprice_KeepsLastPriceWhenMissing(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), asOf)

	repriced := Reprice(state, map[string]float64{"IVV": 525}, asOf.AddDate(0, 0, 1))

	assert.Equal(t, 525.0, repriced.Positions["IVV"].CurrentPrice)
	assert.Equal(t, 99.0, repriced.Positions["AGG"].CurrentPrice)
}

func TestRepository_SaveAndLatest(t *testing.T) {
	repo := setupTestRepo(t)

	latest, err := repo.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest, "empty repository has no latest snapshot")

	day1 := NewState(testHoldings(), 1000, 36000, testPrices(), time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(&day1))

	day2 := Reprice(day1, map[string]float64{"IVV": 530}, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(&day2))

	latest, err = repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, day2.TotalValue, latest.TotalValue)
	assert.Equal(t, 530.0, latest.Positions["IVV"].CurrentPrice)
	assert.Equal(t, "2026-08-28", latest.AsOf.Format("2006-01-02"))
}

func TestRepository_SaveUpsertsSameDay(t *testing.T) {
	repo := setupTestRepo(t)

	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), asOf)
	require.NoError(t, repo.Save(&state))

	updated := Reprice(state, map[string]float64{"IVV": 540}, asOf)
	require.NoError(t, repo.Save(&updated))

	dates, err := repo.Dates(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-28"}, dates)

	latest, err := repo.Latest()
	require.NoError(t, err)
	assert.Equal(t, 540.0, latest.Positions["IVV"].CurrentPrice)
}

func TestRepository_GetByDate(t *testing.T) {
	repo := setupTestRepo(t)

	state := NewState(testHoldings(), 1000, 36000, testPrices(), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(&state))

	loaded, err := repo.GetByDate("2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state.TotalValue, loaded.TotalValue)

	missing, err := repo.GetByDate("2026-08-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_DailyValues(t *testing.T) {
	repo := setupTestRepo(t)

	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	state := NewState(testHoldings(), 1000, 36000, testPrices(), base)
	require.NoError(t, repo.Save(&state))

	for i := 1; i <= 3; i++ {
		state = Reprice(state, map[string]float64{"IVV": 520 + float64(i*5)}, base.AddDate(0, 0, i))
		require.NoError(t, repo.Save(&state))
	}

	values, err := repo.DailyValues(10)
	require.NoError(t, err)
	require.Len(t, values, 4)
	for i := 1; i < len(values); i++ {
		assert.Greater(t, values[i], values[i-1], "values must be chronological")
	}
}

func TestRepository_SaveNil(t *testing.T) {
	repo := setupTestRepo(t)
	require.Error(t, repo.Save(nil))
}

func TestComputeAllocation_UnknownTickerIgnored(t *testing.T) {
	positions := map[string]domain.Position{
		"ZZZ": {Ticker: "ZZZ", Weight: 0.5},
		"IVV": {Ticker: "IVV", Weight: 0.5},
	}

	breakdown := computeAllocation(positions)
	assert.Equal(t, 0.5, breakdown.Core)
	assert.Zero(t, breakdown.MajorSatellites+breakdown.TacticalSatellites+breakdown.Hedging)
}
