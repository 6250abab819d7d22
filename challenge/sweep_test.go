package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omegafx/propsim/backtest"
	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/indicators"
	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/risk"
)

func flatFrames(t *testing.T, n int) []*market.FrameSet {
	t.Helper()
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{
			Timestamp: baseDay.Add(time.Duration(i) * time.Hour),
			Open:      1.1000,
			High:      1.1005,
			Low:       1.0995,
			Close:     1.1000,
			Volume:    100,
		}
	}
	return []*market.FrameSet{{
		Symbol: "EURUSD",
		Entry:  []*market.Frame{market.NewFrame("EURUSD", market.H1, bars)},
	}}
}

func flatEvaluator(t *testing.T, n int) *Evaluator {
	t.Helper()
	c := DefaultContract()
	c.StartEquity = 10_000
	return &Evaluator{
		Sets:        flatFrames(t, n),
		Contract:    c,
		Firm:        risk.DefaultFirmProfile(),
		Breakout:    backtest.DefaultBreakoutConfig(),
		Tiers:       &filters.TierMap{Enabled: false},
		InitialMode: risk.Conservative,
	}
}

func TestWindowRecomputesIndicators(t *testing.T) {
	t.Parallel()

	// 300 hourly bars: wide ranges early, narrow ranges late. Bands
	// computed over the full history sit far above anything the late
	// window alone would produce.
	bars := make([]market.Bar, 300)
	for i := range bars {
		spread := 0.0050
		if i >= 200 {
			spread = 0.0005
		}
		bars[i] = market.Bar{
			Timestamp: baseDay.Add(time.Duration(i) * time.Hour),
			Open:      1.1000,
			High:      1.1000 + spread,
			Low:       1.1000 - spread,
			Close:     1.1000,
			Volume:    100,
		}
	}
	entry := market.NewFrame("EURUSD", market.H1, bars)
	ctx := market.NewFrame("EURUSD", market.H1, append([]market.Bar(nil), bars...))
	lookback := backtest.DefaultBreakoutConfig().LookbackBars
	indicators.Annotate(entry, lookback)
	indicators.AnnotateContext(ctx, lookback)
	fullHigh := ctx.ATRHigh

	e := flatEvaluator(t, 6)
	e.Sets = []*market.FrameSet{{
		Symbol:  "EURUSD",
		Entry:   []*market.Frame{entry},
		Context: ctx,
	}}

	start := bars[220].Timestamp
	w, ok := e.windowSet(e.Sets[0], start, time.Time{})
	require.True(t, ok)

	// Volatility bands come from the window's own quiet bars.
	require.True(t, w.Context.HasATRBands)
	assert.Less(t, w.Context.ATRHigh, fullHigh/2)

	// Breakout levels restart inside the window: the first bars have
	// not seen a full lookback yet.
	f := w.Entry[0]
	require.GreaterOrEqual(t, f.Len(), lookback+1)
	assert.False(t, f.At(0).BreakoutHigh.Valid)
	assert.False(t, f.At(lookback-2).BreakoutHigh.Valid)
	assert.True(t, f.At(lookback-1).BreakoutHigh.Valid)

	// The shared source frames keep their full-history values.
	assert.True(t, entry.At(220).BreakoutHigh.Valid)
	assert.Equal(t, fullHigh, ctx.ATRHigh)
}

func TestRunSingleFlatWindowTimesOut(t *testing.T) {
	t.Parallel()

	e := flatEvaluator(t, 6)
	events := market.BuildEventStream(e.Sets)
	require.Len(t, events, 5)

	o, err := e.RunSingle(events, 0)
	require.NoError(t, err)

	// Too few bars for the indicators, so no trades and no breach.
	assert.False(t, o.Passed)
	assert.Equal(t, FailTimeout, o.FailureReason)
	assert.Zero(t, o.NumTrades)
	assert.Equal(t, events[0].Timestamp, o.StartTimestamp)
}

func TestRunSingleSeedOutOfRange(t *testing.T) {
	t.Parallel()

	e := flatEvaluator(t, 6)
	events := market.BuildEventStream(e.Sets)

	_, err := e.RunSingle(events, len(events))
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = e.RunSingle(events, -1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRunSingleRejectsBadContract(t *testing.T) {
	t.Parallel()

	e := flatEvaluator(t, 6)
	e.Contract.ProfitTargetFraction = 0

	_, err := e.RunSingle(market.BuildEventStream(e.Sets), 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientData)
}

func TestSweepStopsAtInsufficientData(t *testing.T) {
	t.Parallel()

	e := flatEvaluator(t, 6)

	// Seeds 0, 2, 4: the last window has a single bar left and ends
	// the sweep; the earlier windows still come back in order.
	outcomes, err := e.Sweep(2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, 0, outcomes[0].SeedIndex)
	assert.Equal(t, 2, outcomes[1].SeedIndex)
	for _, o := range outcomes {
		assert.Equal(t, FailTimeout, o.FailureReason)
	}
}

func TestSweepEmptyPortfolio(t *testing.T) {
	t.Parallel()

	e := flatEvaluator(t, 6)
	e.Sets = nil

	_, err := e.Sweep(1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
