package challenge

import (
	"sort"
	"time"

	"github.com/omegafx/propsim/backtest"
)

// FailureReason is the closed set of ways a challenge window ends.
// Empty means the window passed.
type FailureReason string

const (
	FailNone            FailureReason = ""
	FailTotalLoss       FailureReason = "total_loss"
	FailPropViolation   FailureReason = "prop_violation"
	FailInternalStop    FailureReason = "internal_stop"
	FailPropFail        FailureReason = "prop_fail"
	FailMaxTradingDays  FailureReason = "max_trading_days"
	FailMaxCalendarDays FailureReason = "max_calendar_days"
	FailTimeout         FailureReason = "timeout"
	FailNoData          FailureReason = "no_data"
)

// Outcome is the immutable verdict of one challenge window. Everything
// here is derived from the backtest series alone, so the verdict can
// be re-checked offline from the exported curves.
type Outcome struct {
	Passed bool

	HitProfitTarget  bool
	HitTotalLoss     bool
	HitInternalStop  bool
	HitPropViolation bool
	TimedOut         bool

	FinalEquity float64
	PeakEquity  float64
	MinEquity   float64

	NumTradingDays int
	NumTrades      int
	SeedIndex      int

	StartTimestamp time.Time
	EndTimestamp   time.Time

	FailureReason FailureReason

	MaxDailyLossFraction         float64
	MaxObservedDailyLossFraction float64
	TradesPerSymbol              map[string]int
}

// terminationEvent is one candidate end of the window.
type terminationEvent struct {
	ts     time.Time
	reason FailureReason
}

// Evaluate races the contract's termination conditions over a finished
// backtest and returns the verdict at the first one to occur. Event
// insertion order breaks exact timestamp ties, so a pass on the same
// bar as a breach still passes.
func Evaluate(result *backtest.Result, contract Contract, startTS time.Time, seedIndex int) Outcome {
	if len(result.EquityCurve) == 0 {
		return Outcome{
			FinalEquity:     contract.StartEquity,
			PeakEquity:      contract.StartEquity,
			MinEquity:       contract.StartEquity,
			SeedIndex:       seedIndex,
			StartTimestamp:  startTS,
			EndTimestamp:    startTS,
			TimedOut:        true,
			FailureReason:   FailNoData,
			TradesPerSymbol: result.TradesPerSymbol,
		}
	}

	curve := result.EquityCurve
	lastTS := curve[len(curve)-1].Timestamp

	target := contract.TargetEquity()
	floor := contract.LossFloor()

	var profitTS, lossTS time.Time
	for _, p := range curve {
		if profitTS.IsZero() && p.Equity >= target {
			profitTS = p.Timestamp
		}
		if lossTS.IsZero() && p.Equity <= floor {
			lossTS = p.Timestamp
		}
		if !profitTS.IsZero() && !lossTS.IsZero() {
			break
		}
	}

	var propViolationTS time.Time
	for _, day := range result.DailyStats {
		if day.LossFraction() > contract.MaxDailyLossFraction {
			propViolationTS = day.EndTimestamp
			break
		}
	}

	// A pass needs the target hit AND the minimum trading-day count;
	// it lands on the end of the qualifying day.
	var passTS time.Time
	if !profitTS.IsZero() {
		for i, day := range result.DailyStats {
			if !day.EndTimestamp.Before(profitTS) && i+1 >= contract.MinTradingDays {
				passTS = day.EndTimestamp
				break
			}
		}
	}

	var maxTradingDaysTS time.Time
	if contract.MaxTradingDays > 0 && len(result.DailyStats) >= contract.MaxTradingDays {
		maxTradingDaysTS = result.DailyStats[contract.MaxTradingDays-1].EndTimestamp
	}

	var events []terminationEvent
	add := func(ts time.Time, reason FailureReason) {
		if !ts.IsZero() {
			events = append(events, terminationEvent{ts: ts, reason: reason})
		}
	}
	add(passTS, FailNone)
	add(lossTS, FailTotalLoss)
	add(propViolationTS, FailPropViolation)
	add(result.InternalStopTime, FailInternalStop)
	add(result.PropFailTime, FailPropFail)
	add(maxTradingDaysTS, FailMaxTradingDays)
	if contract.MaxCalendarDays > 0 {
		deadline := startTS.AddDate(0, 0, contract.MaxCalendarDays)
		if deadline.After(lastTS) {
			deadline = lastTS
		}
		add(deadline, FailMaxCalendarDays)
	}
	if len(events) == 0 {
		add(lastTS, FailTimeout)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ts.Before(events[j].ts)
	})
	endTS := events[0].ts
	reason := events[0].reason

	tradingDays := 0
	maxObservedDailyLoss := 0.0
	for _, day := range result.DailyStats {
		if day.EndTimestamp.After(endTS) {
			continue
		}
		tradingDays++
		if lf := day.LossFraction(); lf > maxObservedDailyLoss {
			maxObservedDailyLoss = lf
		}
	}

	trades := 0
	for _, t := range result.Trades {
		if !t.ExitTime.After(endTS) {
			trades++
		}
	}

	finalEquity := contract.StartEquity
	peak := contract.StartEquity
	min := contract.StartEquity
	first := true
	for _, p := range curve {
		if p.Timestamp.After(endTS) {
			break
		}
		finalEquity = p.Equity
		if first || p.Equity > peak {
			peak = p.Equity
		}
		if first || p.Equity < min {
			min = p.Equity
		}
		first = false
	}

	passed := reason == FailNone
	return Outcome{
		Passed:           passed,
		HitProfitTarget:  !profitTS.IsZero() && !profitTS.After(endTS),
		HitTotalLoss:     reason == FailTotalLoss,
		HitInternalStop:  reason == FailInternalStop,
		HitPropViolation: reason == FailPropViolation,
		TimedOut: reason == FailTimeout ||
			reason == FailMaxTradingDays ||
			reason == FailMaxCalendarDays,
		FinalEquity:                  finalEquity,
		PeakEquity:                   peak,
		MinEquity:                    min,
		NumTradingDays:               tradingDays,
		NumTrades:                    trades,
		SeedIndex:                    seedIndex,
		StartTimestamp:               startTS,
		EndTimestamp:                 endTS,
		FailureReason:                reason,
		MaxDailyLossFraction:         result.MaxDailyLossFraction,
		MaxObservedDailyLossFraction: maxObservedDailyLoss,
		TradesPerSymbol:              result.TradesPerSymbol,
	}
}
