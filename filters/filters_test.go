package filters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/strategies"
)

func TestSessionOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hour int
		want Session
	}{
		{0, Asia},
		{7, Asia},
		{8, London},
		{15, London},
		{16, NewYork},
		{23, NewYork},
	}
	for _, tc := range cases {
		ts := time.Date(2024, 3, 4, tc.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tc.want, SessionOf(ts), "hour %d", tc.hour)
	}
}

func trendBar(slow, trend float64) *market.Bar {
	return &market.Bar{
		SMASlow:  market.Indicator{Value: slow, Valid: true},
		SMATrend: market.Indicator{Value: trend, Valid: true},
	}
}

func TestTrendOf(t *testing.T) {
	t.Parallel()

	warm := &market.Bar{SMASlow: market.Indicator{Value: 1.1, Valid: true}}
	assert.Equal(t, TrendUnknown, TrendOf(strategies.Long, warm))

	// Divergence inside the band is sideways regardless of direction.
	assert.Equal(t, Sideways, TrendOf(strategies.Long, trendBar(1.10010, 1.10000)))
	assert.Equal(t, Sideways, TrendOf(strategies.Short, trendBar(1.10000, 1.10010)))

	up := trendBar(1.1010, 1.1000)
	assert.Equal(t, WithTrend, TrendOf(strategies.Long, up))
	assert.Equal(t, CounterTrend, TrendOf(strategies.Short, up))

	down := trendBar(1.1000, 1.1010)
	assert.Equal(t, WithTrend, TrendOf(strategies.Short, down))
	assert.Equal(t, CounterTrend, TrendOf(strategies.Long, down))
}

func TestVolatilityOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, VolUnknown, VolatilityOf(market.Indicator{}, 0.001, 0.002))
	// Missing percentile bands leave the regime undecided.
	assert.Equal(t, VolUnknown, VolatilityOf(market.Indicator{Value: 0.003, Valid: true}, 0, 0))

	assert.Equal(t, VolLow, VolatilityOf(market.Indicator{Value: 0.0005, Valid: true}, 0.001, 0.002))
	assert.Equal(t, VolNormal, VolatilityOf(market.Indicator{Value: 0.0015, Valid: true}, 0.001, 0.002))
	assert.Equal(t, VolNormal, VolatilityOf(market.Indicator{Value: 0.002, Valid: true}, 0.001, 0.002))
	assert.Equal(t, VolHigh, VolatilityOf(market.Indicator{Value: 0.0025, Valid: true}, 0.001, 0.002))
}

func TestGateOrderAndReasons(t *testing.T) {
	t.Parallel()

	g := DefaultGate()

	res := g.Allow(Tags{Session: Asia, Trend: CounterTrend, Volatility: VolLow})
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonSession, res.Reason, "session vetoes before later stages")
	assert.False(t, res.SessionPassed)

	res = g.Allow(Tags{Session: London, Trend: CounterTrend, Volatility: VolLow})
	assert.Equal(t, ReasonTrend, res.Reason)
	assert.True(t, res.SessionPassed)
	assert.False(t, res.TrendPassed)

	res = g.Allow(Tags{Session: London, Trend: WithTrend, Volatility: VolLow})
	assert.Equal(t, ReasonLowVolatility, res.Reason)
	assert.True(t, res.TrendPassed)

	res = g.Allow(Tags{Session: NewYork, Trend: Sideways, Volatility: VolHigh})
	assert.Equal(t, ReasonHighVolSideways, res.Reason)

	res = g.Allow(Tags{Session: NewYork, Trend: WithTrend, Volatility: VolNormal})
	assert.True(t, res.Allowed)
	assert.Equal(t, ReasonNone, res.Reason)
	assert.True(t, res.VolatilityPassed)
}

func TestGateDisabledFiltersAdmit(t *testing.T) {
	t.Parallel()

	var g Gate // all filters off
	res := g.Allow(Tags{Session: Asia, Trend: CounterTrend, Volatility: VolLow})
	assert.True(t, res.Allowed)
	assert.Equal(t, ReasonNone, res.Reason)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const edgeCSV = `session_tag,trend_regime,volatility_regime,pattern_tag,n_trades,expectancy
LONDON,WITH_TREND,NORMAL,BREAKOUT,50,0.31
NY,WITH_TREND,HIGH,BREAKOUT,45,0.12
LONDON,SIDEWAYS,LOW,NONE,60,-0.20
NY,COUNTER_TREND,NORMAL,NONE,10,0.90
LONDON,WITH_TREND,HIGH,NONE,40,0.02
`

const overrideCSV = `session_tag,trend_regime,volatility_regime,pattern_tag,tier,risk_scale
LONDON,WITH_TREND,NORMAL,BREAKOUT,C,0
ny,with_trend,low,NONE,A,0
`

func TestTierMapClassification(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := NewTierMap(writeFile(t, dir, "edge.csv", edgeCSV), "")

	assert.Equal(t, ComboTier{Tier: TierA, Scale: 1.5},
		m.Resolve(Combo{"LONDON", "WITH_TREND", "NORMAL", "BREAKOUT"}))
	assert.Equal(t, ComboTier{Tier: TierB, Scale: 0.75},
		m.Resolve(Combo{"NY", "WITH_TREND", "HIGH", "BREAKOUT"}))
	assert.Equal(t, ComboTier{Tier: TierC, Scale: 0},
		m.Resolve(Combo{"LONDON", "SIDEWAYS", "LOW", "NONE"}))

	// Under the sample-size floor: absent from the map.
	assert.Equal(t, TierUnknown, m.Resolve(Combo{"NY", "COUNTER_TREND", "NORMAL", "NONE"}).Tier)
	// Between the B threshold and zero: deliberately unclassified.
	assert.Equal(t, TierUnknown, m.Resolve(Combo{"LONDON", "WITH_TREND", "HIGH", "NONE"}).Tier)

	unknown := m.Resolve(Combo{"ASIA", "WITH_TREND", "NORMAL", "NONE"})
	assert.Equal(t, TierUnknown, unknown.Tier)
	assert.Equal(t, 0.5, unknown.Scale)
}

func TestTierMapOverridesWin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := NewTierMap(
		writeFile(t, dir, "edge.csv", edgeCSV),
		writeFile(t, dir, "override.csv", overrideCSV),
	)

	// The A-tier edge row is demoted to C by the override.
	res := m.Allow(Combo{"LONDON", "WITH_TREND", "NORMAL", "BREAKOUT"})
	assert.False(t, res.Allowed)
	assert.Equal(t, TierC, res.Tier)

	// Override rows are case-insensitive and default the tier scale.
	promoted := m.Resolve(Combo{"NY", "WITH_TREND", "LOW", "NONE"})
	assert.Equal(t, TierA, promoted.Tier)
	assert.Equal(t, 1.5, promoted.Scale)
}

func TestTierMapAllow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := NewTierMap(writeFile(t, dir, "edge.csv", edgeCSV), "")

	res := m.Allow(Combo{"NY", "WITH_TREND", "HIGH", "BREAKOUT"})
	assert.True(t, res.Allowed)
	assert.Equal(t, 0.75, res.Scale)

	res = m.Allow(Combo{"LONDON", "SIDEWAYS", "LOW", "NONE"})
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Scale)

	res = m.Allow(Combo{"NEVER", "SEEN", "BEFORE", ""})
	assert.True(t, res.Allowed)
	assert.Equal(t, TierUnknown, res.Tier)
	assert.Equal(t, 0.5, res.Scale)
}

func TestTierMapDisabled(t *testing.T) {
	t.Parallel()

	m := NewTierMap("", "")
	m.Enabled = false

	res := m.Allow(Combo{"LONDON", "SIDEWAYS", "LOW", "NONE"})
	assert.True(t, res.Allowed)
	assert.Equal(t, TierUnfiltered, res.Tier)
	assert.Equal(t, 1.0, res.Scale)
}

func TestTierMapMissingFiles(t *testing.T) {
	t.Parallel()

	m := NewTierMap("/nonexistent/edge.csv", "/nonexistent/override.csv")
	res := m.Allow(Combo{"LONDON", "WITH_TREND", "NORMAL", "NONE"})
	assert.True(t, res.Allowed)
	assert.Equal(t, TierUnknown, res.Tier)
}

func TestTierMapInvalidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "edge.csv", edgeCSV)
	m := NewTierMap(path, "")

	combo := Combo{"LONDON", "WITH_TREND", "NORMAL", "BREAKOUT"}
	assert.Equal(t, TierA, m.Resolve(combo).Tier)

	// Rewrite the edge map and invalidate: the next lookup sees it.
	writeFile(t, dir, "edge.csv", `session_tag,trend_regime,volatility_regime,pattern_tag,n_trades,expectancy
LONDON,WITH_TREND,NORMAL,BREAKOUT,50,-0.10
`)
	assert.Equal(t, TierA, m.Resolve(combo).Tier, "stale until invalidated")
	m.Invalidate()
	assert.Equal(t, TierC, m.Resolve(combo).Tier)
}
