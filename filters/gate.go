package filters

// Reason names the funnel bucket a rejected candidate lands in. The
// first failing filter determines the bucket.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSession
	ReasonTrend
	ReasonLowVolatility
	ReasonHighVolSideways
	ReasonRiskAggression
	ReasonMaxOpenPositions
	ReasonDailyLossBudget
	ReasonMaxTradesPerDay
)

func (r Reason) String() string {
	switch r {
	case ReasonSession:
		return "session"
	case ReasonTrend:
		return "trend"
	case ReasonLowVolatility:
		return "low_volatility"
	case ReasonHighVolSideways:
		return "high_vol_sideways"
	case ReasonRiskAggression:
		return "risk_aggression"
	case ReasonMaxOpenPositions:
		return "max_open_positions"
	case ReasonDailyLossBudget:
		return "daily_loss_budget"
	case ReasonMaxTradesPerDay:
		return "max_trades_per_day"
	}
	return "none"
}

// Tags is the regime context of one candidate entry.
type Tags struct {
	Session    Session
	Trend      Trend
	Volatility Volatility
}

// Gate holds the individually switchable veto filters.
type Gate struct {
	SessionFilter         bool
	TrendFilter           bool
	LowVolFilter          bool
	HighVolSidewaysFilter bool
}

// DefaultGate enables every filter.
func DefaultGate() Gate {
	return Gate{
		SessionFilter:         true,
		TrendFilter:           true,
		LowVolFilter:          true,
		HighVolSidewaysFilter: true,
	}
}

// GateResult reports the verdict plus which stages passed, feeding the
// funnel diagnostics.
type GateResult struct {
	Allowed          bool
	Reason           Reason
	SessionPassed    bool
	TrendPassed      bool
	VolatilityPassed bool
}

// Allow applies the enabled filters in order. Each filter vetoes
// independently; the first failure is the diagnostic reason.
func (g Gate) Allow(tags Tags) GateResult {
	if g.SessionFilter && tags.Session == Asia {
		return GateResult{Reason: ReasonSession}
	}

	if g.TrendFilter && tags.Trend == CounterTrend {
		return GateResult{Reason: ReasonTrend, SessionPassed: true}
	}

	if g.LowVolFilter && tags.Volatility == VolLow {
		return GateResult{Reason: ReasonLowVolatility, SessionPassed: true, TrendPassed: true}
	}
	if g.HighVolSidewaysFilter && tags.Volatility == VolHigh && tags.Trend == Sideways {
		return GateResult{Reason: ReasonHighVolSideways, SessionPassed: true, TrendPassed: true}
	}

	return GateResult{
		Allowed:          true,
		SessionPassed:    true,
		TrendPassed:      true,
		VolatilityPassed: true,
	}
}
