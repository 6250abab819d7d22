package indicators

import (
	"fmt"

	"github.com/omegafx/propsim/market"
)

// RollingHigh tracks the highest high over the last N bars, used for
// breakout level annotation. Not ready until the window is full.
type RollingHigh struct {
	period int
	window []float64
}

func NewRollingHigh(period int) *RollingHigh {
	return &RollingHigh{period: period, window: make([]float64, 0, period)}
}

func (r *RollingHigh) Name() string { return fmt.Sprintf("HIGH(%d)", r.period) }
func (r *RollingHigh) Warmup() int  { return r.period }
func (r *RollingHigh) Reset()       { r.window = r.window[:0] }

func (r *RollingHigh) Update(b market.Bar) {
	r.window = append(r.window, b.High)
	if len(r.window) > r.period {
		r.window = r.window[1:]
	}
}

func (r *RollingHigh) Ready() bool { return len(r.window) >= r.period }

func (r *RollingHigh) Value() float64 {
	if !r.Ready() {
		return 0
	}
	max := r.window[0]
	for _, v := range r.window[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// RollingLow tracks the lowest low over the last N bars.
type RollingLow struct {
	period int
	window []float64
}

func NewRollingLow(period int) *RollingLow {
	return &RollingLow{period: period, window: make([]float64, 0, period)}
}

func (r *RollingLow) Name() string { return fmt.Sprintf("LOW(%d)", r.period) }
func (r *RollingLow) Warmup() int  { return r.period }
func (r *RollingLow) Reset()       { r.window = r.window[:0] }

func (r *RollingLow) Update(b market.Bar) {
	r.window = append(r.window, b.Low)
	if len(r.window) > r.period {
		r.window = r.window[1:]
	}
}

func (r *RollingLow) Ready() bool { return len(r.window) >= r.period }

func (r *RollingLow) Value() float64 {
	if !r.Ready() {
		return 0
	}
	min := r.window[0]
	for _, v := range r.window[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
