package risk

import "time"

// Drawdown thresholds for the per-bar mode transitions.
const (
	forceFloorPauseDD = 0.03
	forceFloorDD      = 0.025
	stepDownDD        = 0.015

	stepUpWinRate = 0.58
	stepUpMaxDD   = 0.015

	defaultWindowSize = 40
)

// Transition records a single mode change.
type Transition struct {
	Timestamp time.Time
	From      Mode
	To        Mode
	Reason    string
}

// Controller applies the hysteretic mode transitions: drawdown steps
// modes down (possibly forcing the floor), and only a full trailing
// window of strong performance at the equity peak steps back up.
type Controller struct {
	State       *State
	Transitions []Transition

	windowSize    int
	tradePnLs     []float64
	equityHistory []float64
}

// NewController wraps a state with the default 40-trade window.
func NewController(state *State) *Controller {
	return &Controller{State: state, windowSize: defaultWindowSize}
}

func (c *Controller) transition(ts time.Time, to Mode, reason string) {
	from := c.State.Mode
	if to == from {
		return
	}
	c.Transitions = append(c.Transitions, Transition{
		Timestamp: ts,
		From:      from,
		To:        to,
		Reason:    reason,
	})
	c.State.Mode = to
}

// StepForDrawdown applies the per-bar downward transitions for the
// given drawdown-from-peak fraction. Only the outright 3% breach sets
// the pause flag; the 2.5% band forces the floor without pausing, and
// the 1.5% band steps down exactly one level.
func (c *Controller) StepForDrawdown(ts time.Time, dd float64) {
	switch {
	case dd >= forceFloorPauseDD:
		c.State.TradingPaused = true
		c.transition(ts, UltraUltraConservative, "Drawdown >= 3%")
	case dd >= forceFloorDD:
		c.transition(ts, UltraUltraConservative, "Drawdown >= 2.5%")
	case dd >= stepDownDD:
		c.transition(ts, c.State.Mode.Down(), "Drawdown >= 1.5%")
	}
}

// RecordTrade feeds a closed trade into the trailing window and then
// considers a step-up.
func (c *Controller) RecordTrade(pnl, equityAfter float64, ts time.Time) {
	c.tradePnLs = appendCapped(c.tradePnLs, pnl, c.windowSize)
	c.equityHistory = appendCapped(c.equityHistory, equityAfter, c.windowSize)
	c.maybeStepUp(ts)
}

// maybeStepUp promotes exactly one level when the account sits at its
// equity peak with a full window of >=58% winners and <=1.5% trailing
// drawdown. Leaving the floor clears the pause flag.
func (c *Controller) maybeStepUp(ts time.Time) {
	if len(c.tradePnLs) < c.windowSize {
		return
	}
	if c.State.CurrentEquity < c.State.EquityPeak-1e-9 {
		return
	}
	if c.winRate() < stepUpWinRate || c.trailingDrawdown() > stepUpMaxDD {
		return
	}

	from := c.State.Mode
	to := from.Up()
	if to == from {
		return
	}
	if from == UltraUltraConservative {
		c.State.TradingPaused = false
	}
	c.transition(ts, to, "Performance step-up")
}

func (c *Controller) winRate() float64 {
	wins := 0
	for _, pnl := range c.tradePnLs {
		if pnl > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(c.tradePnLs))
}

// trailingDrawdown is the max-to-min span of the trailing equity
// window relative to its maximum.
func (c *Controller) trailingDrawdown() float64 {
	if len(c.equityHistory) < 2 {
		return 0
	}
	max := c.equityHistory[0]
	min := c.equityHistory[0]
	for _, v := range c.equityHistory[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	if max <= 0 {
		return 0
	}
	return (max - min) / max
}

func appendCapped(s []float64, v float64, limit int) []float64 {
	s = append(s, v)
	if len(s) > limit {
		s = s[1:]
	}
	return s
}
