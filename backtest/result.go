package backtest

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/risk"
	"github.com/omegafx/propsim/strategies"
)

// EquityPoint is one mark-to-market sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Trade is the closed-trade record appended on every exit.
type Trade struct {
	ID          string
	Symbol      string
	Direction   strategies.Action
	EntryTime   time.Time
	ExitTime    time.Time
	EntryPrice  float64
	ExitPrice   float64
	StopLoss    float64
	TakeProfit  float64
	Lots        float64
	PnL         float64
	RiskAmount  float64
	RMultiple   float64
	RiskReward  float64 // planned reward/risk at entry, 0 when undefined
	ModeAtEntry risk.Mode
	ExitReason  ExitReason

	Session    filters.Session
	Trend      filters.Trend
	Volatility filters.Volatility
	Pattern    string
	Tier       filters.Tier
	RiskScale  float64
	Variant    string
}

// DailyStats is one finalized calendar-day record.
type DailyStats struct {
	Date                  time.Time // UTC midnight of the day
	EndTimestamp          time.Time // last event timestamp of the day
	EquityStartOfDay      float64
	EquityEndOfDay        float64
	RealizedPnL           float64
	MaxIntradayDDFraction float64
	Mode                  risk.Mode
}

// LossFraction is the day's realized loss relative to its opening
// equity, 0 on profitable days.
func (d DailyStats) LossFraction() float64 {
	if d.EquityStartOfDay <= 0 || d.RealizedPnL >= 0 {
		return 0
	}
	return -d.RealizedPnL / d.EquityStartOfDay
}

// Funnel accumulates the purely observational entry diagnostics.
type Funnel struct {
	RawSignals          int
	AfterSession        int
	AfterTrend          int
	AfterVolatility     int
	AfterBreakout       int
	AfterRiskAggression int

	FilteredByReason map[filters.Reason]int
	VariantCounts    map[string]int
	ComboCounts      map[filters.Combo]int
}

func newFunnel() Funnel {
	return Funnel{
		FilteredByReason: make(map[filters.Reason]int),
		VariantCounts:    make(map[string]int),
		ComboCounts:      make(map[filters.Combo]int),
	}
}

// Result is everything a completed run exposes to the challenge
// evaluator and to external collaborators. Plain serializable data,
// no hidden state.
type Result struct {
	StartEquity float64
	FinalEquity float64

	EquityCurve []EquityPoint
	Trades      []Trade
	DailyStats  []DailyStats

	TotalReturn float64
	MaxDrawdown float64
	WinRate     float64
	AverageRR   float64

	FinalMode             risk.Mode
	ModeTransitions       []risk.Transition
	ModeTransitionSummary map[string]int

	InternalStopOut      bool
	PropFail             bool
	InternalStopTime     time.Time
	PropFailTime         time.Time
	MaxDailyLossFraction float64

	Funnel            Funnel
	TierCounts        map[string]int
	TierExpectancy    map[string]float64
	TierTradesPerYear map[string]float64
	TradesPerSymbol   map[string]int
}

// tradingDaysPerYear converts trading-day counts into annualized
// trade frequencies for the tier diagnostics.
const tradingDaysPerYear = 252.0

func (r *Result) summarize() {
	if n := len(r.EquityCurve); n > 0 {
		r.FinalEquity = r.EquityCurve[n-1].Equity
	} else {
		r.FinalEquity = r.StartEquity
	}
	if r.StartEquity > 0 {
		r.TotalReturn = (r.FinalEquity - r.StartEquity) / r.StartEquity
	}
	r.MaxDrawdown = maxDrawdown(r.EquityCurve)

	wins := 0
	var rrs []float64
	for _, t := range r.Trades {
		if t.PnL > 0 {
			wins++
		}
		if t.RiskReward > 0 {
			rrs = append(rrs, t.RiskReward)
		}
	}
	if len(r.Trades) > 0 {
		r.WinRate = float64(wins) / float64(len(r.Trades))
	}
	if len(rrs) > 0 {
		if mean, err := stats.Mean(stats.Float64Data(rrs)); err == nil {
			r.AverageRR = mean
		}
	}

	r.summarizeTiers()

	r.ModeTransitionSummary = make(map[string]int)
	for _, tr := range r.ModeTransitions {
		key := tr.From.String() + "->" + tr.To.String()
		r.ModeTransitionSummary[key]++
	}

	r.TradesPerSymbol = make(map[string]int)
	for _, t := range r.Trades {
		r.TradesPerSymbol[t.Symbol]++
	}
}

func (r *Result) summarizeTiers() {
	r.TierCounts = make(map[string]int)
	r.TierExpectancy = make(map[string]float64)
	r.TierTradesPerYear = make(map[string]float64)

	returns := make(map[string][]float64)
	for _, t := range r.Trades {
		tier := t.Tier.String()
		r.TierCounts[tier]++
		returns[tier] = append(returns[tier], t.RMultiple)
	}
	for tier, values := range returns {
		if mean, err := stats.Mean(stats.Float64Data(values)); err == nil {
			r.TierExpectancy[tier] = mean
		}
	}

	tradingDays := len(r.DailyStats)
	if tradingDays < 1 {
		tradingDays = 1
	}
	years := float64(tradingDays) / tradingDaysPerYear
	if years < 1 {
		years = 1
	}
	for tier, count := range r.TierCounts {
		r.TierTradesPerYear[tier] = float64(count) / years
	}

	for _, tier := range []string{"A", "B", "UNKNOWN", "C"} {
		if _, ok := r.TierCounts[tier]; !ok {
			r.TierCounts[tier] = 0
			r.TierExpectancy[tier] = 0
			r.TierTradesPerYear[tier] = 0
		}
	}
}

func maxDrawdown(curve []EquityPoint) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
