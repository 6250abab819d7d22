package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omegafx/propsim/market"
)

func ts(h int) time.Time {
	return time.Date(2024, 3, 4, h, 0, 0, 0, time.UTC)
}

func TestEquityPeakNeverDecreases(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, Conservative, DefaultFirmProfile())
	s.UpdateEquity(10_500)
	assert.Equal(t, 10_500.0, s.EquityPeak)

	s.UpdateEquity(9_000)
	assert.Equal(t, 10_500.0, s.EquityPeak)
	assert.Equal(t, 9_000.0, s.CurrentEquity)
}

func TestDrawdownsStayInUnitRange(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, Conservative, DefaultFirmProfile())
	assert.Equal(t, 0.0, s.TotalDDFromPeak())
	assert.Equal(t, 0.0, s.DailyDD())

	// Above the peak the drawdown clamps to zero, never negative.
	s.CurrentEquity = 11_000
	assert.Equal(t, 0.0, s.TotalDDFromPeak())

	s.UpdateEquity(5_000)
	dd := s.TotalDDFromPeak()
	assert.True(t, dd >= 0 && dd <= 1)

	// A negative-equity account reads as fully drawn down, not >1.
	s.UpdateEquity(-2_000)
	assert.Equal(t, 1.0, s.TotalDDFromPeak())
	assert.Equal(t, 1.0, s.DailyDD())
}

func TestThreePercentDrawdownForcesFloorAndPause(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, Conservative, DefaultFirmProfile())
	c := NewController(s)

	s.UpdateEquity(9_700)
	c.StepForDrawdown(ts(1), s.TotalDDFromPeak())

	assert.Equal(t, UltraUltraConservative, s.Mode)
	assert.True(t, s.TradingPaused)
	assert.False(t, s.CanTradeToday())
	require.Len(t, c.Transitions, 1)
	assert.Equal(t, Conservative, c.Transitions[0].From)
	assert.Equal(t, UltraUltraConservative, c.Transitions[0].To)
}

func TestMidBandForcesFloorWithoutPause(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, Conservative, DefaultFirmProfile())
	c := NewController(s)

	// 2.6% drawdown: floor, but still allowed to trade.
	c.StepForDrawdown(ts(1), 0.026)
	assert.Equal(t, UltraUltraConservative, s.Mode)
	assert.False(t, s.TradingPaused)
}

func TestStepDownIsOneLevelAtATime(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, Conservative, DefaultFirmProfile())
	c := NewController(s)

	c.StepForDrawdown(ts(1), 0.016)
	assert.Equal(t, UltraConservative, s.Mode)

	c.StepForDrawdown(ts(2), 0.016)
	assert.Equal(t, UltraUltraConservative, s.Mode)

	// Already at the floor, nothing to record.
	n := len(c.Transitions)
	c.StepForDrawdown(ts(3), 0.016)
	assert.Equal(t, UltraUltraConservative, s.Mode)
	assert.Len(t, c.Transitions, n)
}

func TestTransitionsMoveOneLevel(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, UltraUltraConservative, DefaultFirmProfile())
	c := NewController(s)

	feedWinningWindow(c, s)
	require.NotEmpty(t, c.Transitions)
	for _, tr := range c.Transitions {
		diff := int(tr.To) - int(tr.From)
		if diff < 0 {
			diff = -diff
		}
		assert.Equal(t, 1, diff, "transition %s -> %s skips levels", tr.From, tr.To)
	}
}

// feedWinningWindow records a full window of small winners at a fresh
// peak. The gains stay tiny so the window's equity span sits inside
// the 1.5% trailing ceiling.
func feedWinningWindow(c *Controller, s *State) {
	for i := 0; i < defaultWindowSize; i++ {
		s.UpdateEquity(s.CurrentEquity + 1)
		c.RecordTrade(1, s.CurrentEquity, ts(i%24))
	}
}

func TestStepUpNeedsFullWindow(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, UltraConservative, DefaultFirmProfile())
	c := NewController(s)

	for i := 0; i < defaultWindowSize-1; i++ {
		s.UpdateEquity(s.CurrentEquity + 1)
		c.RecordTrade(1, s.CurrentEquity, ts(1))
	}
	assert.Equal(t, UltraConservative, s.Mode, "stepped up on a partial window")

	s.UpdateEquity(s.CurrentEquity + 1)
	c.RecordTrade(1, s.CurrentEquity, ts(2))
	assert.Equal(t, Conservative, s.Mode)
}

func TestStepUpRequiresEquityAtPeak(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, UltraConservative, DefaultFirmProfile())
	c := NewController(s)

	for i := 0; i < defaultWindowSize; i++ {
		pnl := 1.0
		if i == defaultWindowSize-1 {
			pnl = -0.5 // tiny loss leaves equity just below the peak
		}
		s.UpdateEquity(s.CurrentEquity + pnl)
		c.RecordTrade(pnl, s.CurrentEquity, ts(1))
	}
	assert.Equal(t, UltraConservative, s.Mode)
}

func TestStepUpFromFloorClearsPause(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, UltraUltraConservative, DefaultFirmProfile())
	s.TradingPaused = true
	c := NewController(s)

	feedWinningWindow(c, s)
	assert.Equal(t, UltraConservative, s.Mode)
	assert.False(t, s.TradingPaused)
}

func TestEnforceDrawdownLimits(t *testing.T) {
	t.Parallel()

	firm := DefaultFirmProfile()

	s := NewState(10_000, Conservative, firm)
	s.UpdateEquity(9_300) // 7% from peak, past the 6% prop cap
	s.EnforceDrawdownLimits(ts(5))
	assert.True(t, s.PropFail)
	assert.True(t, s.InternalStopOut) // 4% internal trailing tripped too
	assert.True(t, s.TradingPaused)
	assert.Equal(t, ts(5), s.PropFailTime)

	// First-trip timestamps stick.
	s.EnforceDrawdownLimits(ts(7))
	assert.Equal(t, ts(5), s.PropFailTime)
	assert.Equal(t, ts(5), s.InternalStopTime)
}

func TestDailyCircuitBreaker(t *testing.T) {
	t.Parallel()

	s := NewState(10_000, Conservative, DefaultFirmProfile())
	s.CurrentEquity = 9_810 // 1.9% daily loss
	assert.True(t, s.CanTradeToday())

	s.CurrentEquity = 9_790 // 2.1%
	assert.False(t, s.CanTradeToday())

	s.OnNewDay()
	assert.True(t, s.CanTradeToday())
}

func TestPositionSize(t *testing.T) {
	t.Parallel()

	meta := market.MetaFor("EURUSD")

	res, err := PositionSize(SizingInputs{
		Equity:           10_000,
		RiskFraction:     0.004,
		StopDistancePips: 20,
		Meta:             meta,
	})
	require.NoError(t, err)
	// $40 risk over 20 pips at $10/pip-lot.
	assert.InDelta(t, 0.2, res.Lots, 1e-9)
	assert.InDelta(t, 40.0, res.RiskAmount, 1e-6)
}

func TestPositionSizeClamps(t *testing.T) {
	t.Parallel()

	meta := market.MetaFor("EURUSD")

	res, err := PositionSize(SizingInputs{
		Equity:           10_000,
		RiskFraction:     0.0001,
		StopDistancePips: 200,
		Meta:             meta,
	})
	require.NoError(t, err)
	assert.Equal(t, MinLot, res.Lots)

	res, err = PositionSize(SizingInputs{
		Equity:           10_000_000,
		RiskFraction:     0.01,
		StopDistancePips: 10,
		Meta:             meta,
	})
	require.NoError(t, err)
	assert.Equal(t, MaxLot, res.Lots)
}

func TestPositionSizeRejectsBadInputs(t *testing.T) {
	t.Parallel()

	meta := market.MetaFor("EURUSD")

	_, err := PositionSize(SizingInputs{Equity: 0, RiskFraction: 0.01, StopDistancePips: 20, Meta: meta})
	assert.Error(t, err)

	_, err = PositionSize(SizingInputs{Equity: 10_000, RiskFraction: 0.01, StopDistancePips: 0, Meta: meta})
	assert.Error(t, err)
}

func TestCanOpenNewTrade(t *testing.T) {
	t.Parallel()

	// Budget: 2% of 10k = $200. Realized -$100, open risk $50 leaves
	// room for $50 more.
	ok, err := CanOpenNewTrade(-100, 50, 50, 10_000, 0.02, 0.05)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanOpenNewTrade(-100, 50, 51, 10_000, 0.02, 0.05)
	require.NoError(t, err)
	assert.False(t, ok)

	// Realized profit does not widen the budget.
	ok, err = CanOpenNewTrade(500, 0, 201, 10_000, 0.02, 0.05)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanOpenNewTradeRejectsInvertedLimits(t *testing.T) {
	t.Parallel()

	_, err := CanOpenNewTrade(0, 0, 10, 10_000, 0.06, 0.05)
	assert.Error(t, err)
}

func TestFirmProfileApplyEnv(t *testing.T) {
	t.Setenv(EnvInternalMaxDailyLoss, "0.013")
	t.Setenv(EnvPropMaxTotalLoss, "garbage")

	fp := DefaultFirmProfile()
	fp.ApplyEnv()
	assert.InDelta(t, 0.013, fp.InternalMaxDailyLossFraction, 1e-9)
	assert.InDelta(t, 0.06, fp.PropMaxTotalLossFraction, 1e-9)
}
