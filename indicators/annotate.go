package indicators

import "github.com/omegafx/propsim/market"

// Annotate fills the derived indicator fields of every bar in the
// frame: SMA(20/50/200), Wilder ATR(14), and the rolling breakout
// high/low over lookback bars. It recomputes from scratch, so applying
// it twice yields identical values.
func Annotate(f *market.Frame, breakoutLookback int) {
	smaFast := NewSMA(20)
	smaSlow := NewSMA(50)
	smaTrend := NewSMA(200)
	atr := NewATR(14)
	hi := NewRollingHigh(breakoutLookback)
	lo := NewRollingLow(breakoutLookback)

	for i := range f.Bars {
		b := &f.Bars[i]
		*b = market.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}

		smaFast.Update(*b)
		smaSlow.Update(*b)
		smaTrend.Update(*b)
		atr.Update(*b)
		hi.Update(*b)
		lo.Update(*b)

		setIndicator(&b.SMAFast, smaFast)
		setIndicator(&b.SMASlow, smaSlow)
		setIndicator(&b.SMATrend, smaTrend)
		setIndicator(&b.ATR14, atr)
		setIndicator(&b.BreakoutHigh, hi)
		setIndicator(&b.BreakoutLow, lo)
	}
}

// AnnotateContext runs Annotate and additionally computes the frame's
// 33rd/66th ATR percentile thresholds used to classify volatility.
// Only the designated context frame of a symbol gets these bands.
func AnnotateContext(f *market.Frame, breakoutLookback int) {
	Annotate(f, breakoutLookback)

	var atrs []float64
	for i := range f.Bars {
		if f.Bars[i].ATR14.Valid {
			atrs = append(atrs, f.Bars[i].ATR14.Value)
		}
	}
	if len(atrs) == 0 {
		f.ATRLow, f.ATRHigh, f.HasATRBands = 0, 0, false
		return
	}
	f.ATRLow = Percentile(atrs, 33)
	f.ATRHigh = Percentile(atrs, 66)
	f.HasATRBands = true
}

func setIndicator(dst *market.Indicator, ind Indicator) {
	if ind.Ready() {
		*dst = market.Indicator{Value: ind.Value(), Valid: true}
	} else {
		*dst = market.Indicator{}
	}
}
