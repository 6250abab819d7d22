package risk

import "time"

// State tracks equity, drawdown, and the one-way stop-out flags of a
// single simulated account. All mutation happens on realized PnL and
// day boundaries; the backtest driver owns the call order.
type State struct {
	CurrentEquity    float64
	EquityPeak       float64
	StartOfDayEquity float64
	Mode             Mode
	TradingPaused    bool

	// One-way flags. InternalStopOut forces an immediate flatten;
	// PropFail only invalidates the run for pass purposes.
	InternalStopOut  bool
	PropFail         bool
	InternalStopTime time.Time
	PropFailTime     time.Time

	Firm FirmProfile
}

// NewState creates a risk state at the given starting equity and mode.
func NewState(initialEquity float64, mode Mode, firm FirmProfile) *State {
	return &State{
		CurrentEquity:    initialEquity,
		EquityPeak:       initialEquity,
		StartOfDayEquity: initialEquity,
		Mode:             mode,
		Firm:             firm,
	}
}

// TotalDDFromPeak is the fractional decline from the equity peak,
// always in [0,1].
func (s *State) TotalDDFromPeak() float64 {
	if s.EquityPeak <= 0 {
		return 0
	}
	return clampUnit((s.EquityPeak - s.CurrentEquity) / s.EquityPeak)
}

// DailyDD is the same-day fractional decline from the daily opening
// equity, always in [0,1].
func (s *State) DailyDD() float64 {
	if s.StartOfDayEquity <= 0 {
		return 0
	}
	return clampUnit((s.StartOfDayEquity - s.CurrentEquity) / s.StartOfDayEquity)
}

// clampUnit keeps a drawdown fraction in [0,1]: a negative-equity
// account is simply 100% down.
func clampUnit(dd float64) float64 {
	if dd < 0 {
		return 0
	}
	if dd > 1 {
		return 1
	}
	return dd
}

// UpdateEquity records a realized PnL. The peak never decreases.
func (s *State) UpdateEquity(newEquity float64) {
	s.CurrentEquity = newEquity
	if newEquity > s.EquityPeak {
		s.EquityPeak = newEquity
	}
}

// OnNewDay snapshots the start-of-day equity, resetting the daily
// circuit breaker.
func (s *State) OnNewDay() {
	s.StartOfDayEquity = s.CurrentEquity
}

// EnforceDrawdownLimits trips the firm-profile rails for the current
// bar. The prop overlay never forces a flatten; the internal overlay
// does. Timestamps are recorded on first trip only.
func (s *State) EnforceDrawdownLimits(ts time.Time) {
	dd := s.TotalDDFromPeak()

	if dd >= s.Firm.PropMaxTotalLossFraction {
		s.PropFail = true
		s.TradingPaused = true
		if s.PropFailTime.IsZero() {
			s.PropFailTime = ts
		}
	}

	if dd >= s.Firm.InternalMaxTrailingDDFraction || s.DailyDD() >= s.Firm.InternalMaxDailyLossFraction {
		s.InternalStopOut = true
		s.TradingPaused = true
		if s.InternalStopTime.IsZero() {
			s.InternalStopTime = ts
		}
	}
}

// CanTrade reports whether any new entry is permitted at all.
func (s *State) CanTrade() bool {
	return !s.TradingPaused && !s.InternalStopOut
}

// CanTradeToday additionally applies the hard 2% same-day circuit
// breaker. Only OnNewDay resets it.
func (s *State) CanTradeToday() bool {
	return s.CanTrade() && s.DailyDD() < dailyCircuitBreakerFraction
}

const dailyCircuitBreakerFraction = 0.02
