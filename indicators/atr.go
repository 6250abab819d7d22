package indicators

import (
	"fmt"
	"math"

	"github.com/omegafx/propsim/market"
)

// ATR is a streaming Average True Range with Wilder exponential
// smoothing (alpha = 1/period). The first bar's true range is its
// high-low span since no previous close exists yet.
type ATR struct {
	period  int
	atr     float64
	count   int
	prev    market.Bar
	hasPrev bool
}

// NewATR creates a Wilder ATR indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	return 1
}

func (a *ATR) Reset() {
	a.atr = 0
	a.count = 0
	a.hasPrev = false
}

func (a *ATR) Update(b market.Bar) {
	tr := b.High - b.Low
	if a.hasPrev {
		tr = trueRange(b, a.prev)
	}

	if a.count == 0 {
		a.atr = tr
	} else {
		alpha := 1.0 / float64(a.period)
		a.atr += alpha * (tr - a.atr)
	}

	a.prev = b
	a.hasPrev = true
	a.count++
}

func (a *ATR) Ready() bool {
	return a.count >= a.Warmup()
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

// trueRange calculates the True Range for a bar given the previous bar.
func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
