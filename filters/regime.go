// Package filters gates candidate entries by session, trend, and
// volatility regime, and scales the survivors by historical-edge tier.
package filters

import (
	"time"

	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/strategies"
)

// Session is the UTC-hour bucket a bar falls into.
type Session int

const (
	Asia Session = iota
	London
	NewYork
)

func (s Session) String() string {
	switch s {
	case Asia:
		return "ASIA"
	case London:
		return "LONDON"
	}
	return "NY"
}

// SessionOf buckets a UTC timestamp: [0,8) Asia, [8,16) London,
// otherwise New York.
func SessionOf(ts time.Time) Session {
	hour := ts.UTC().Hour()
	switch {
	case hour < 8:
		return Asia
	case hour < 16:
		return London
	}
	return NewYork
}

// Trend classifies the entry direction against the slow/trend SMA
// divergence.
type Trend int

const (
	TrendUnknown Trend = iota
	WithTrend
	CounterTrend
	Sideways
)

func (t Trend) String() string {
	switch t {
	case WithTrend:
		return "WITH_TREND"
	case CounterTrend:
		return "COUNTER_TREND"
	case Sideways:
		return "SIDEWAYS"
	}
	return "UNKNOWN"
}

// sidewaysBand is the SMA divergence below which no trend is called.
const sidewaysBand = 0.00015

// TrendOf compares the slow and trend SMAs. Unknown during warm-up.
func TrendOf(action strategies.Action, bar *market.Bar) Trend {
	if !bar.SMASlow.Valid || !bar.SMATrend.Valid {
		return TrendUnknown
	}
	diff := bar.SMASlow.Value - bar.SMATrend.Value
	if diff < sidewaysBand && diff > -sidewaysBand {
		return Sideways
	}
	switch action {
	case strategies.Long:
		if diff > 0 {
			return WithTrend
		}
		return CounterTrend
	case strategies.Short:
		if diff < 0 {
			return WithTrend
		}
		return CounterTrend
	}
	return TrendUnknown
}

// Volatility classifies ATR against the symbol's percentile bands.
type Volatility int

const (
	VolUnknown Volatility = iota
	VolLow
	VolNormal
	VolHigh
)

func (v Volatility) String() string {
	switch v {
	case VolLow:
		return "LOW"
	case VolNormal:
		return "NORMAL"
	case VolHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// VolatilityOf buckets an ATR value against the 33rd/66th percentile
// thresholds of the symbol's context frame.
func VolatilityOf(atr market.Indicator, low, high float64) Volatility {
	if !atr.Valid || high <= 0 {
		return VolUnknown
	}
	switch {
	case atr.Value < low:
		return VolLow
	case atr.Value <= high:
		return VolNormal
	}
	return VolHigh
}
