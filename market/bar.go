// Package market holds price bars, per-symbol frames, and the merged
// multi-symbol event stream the backtester folds over.
package market

import "time"

// Timeframe is the bar duration in seconds.
type Timeframe int32

const (
	M15 Timeframe = 900
	H1  Timeframe = 3600
)

func (tf Timeframe) String() string {
	switch tf {
	case M15:
		return "M15"
	case H1:
		return "H1"
	}
	return "custom"
}

// Indicator is a derived value that is not available during warm-up.
// Callers must check Valid before using Value.
type Indicator struct {
	Value float64
	Valid bool
}

// Bar is a single OHLCV bar plus its derived indicators. Bars are
// immutable once a frame has been annotated.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64

	SMAFast      Indicator // SMA(20)
	SMASlow      Indicator // SMA(50)
	SMATrend     Indicator // SMA(200)
	ATR14        Indicator // Wilder ATR(14)
	BreakoutHigh Indicator // rolling N-bar high
	BreakoutLow  Indicator // rolling N-bar low
}
