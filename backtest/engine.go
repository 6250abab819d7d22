// Package backtest runs the deterministic single-pass fold over the
// merged multi-symbol event stream, managing position lifecycles and
// the risk rails per event.
package backtest

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/omegafx/propsim/execution"
	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/risk"
	"github.com/omegafx/propsim/strategies"
)

// Engine holds one run's configuration. A fresh Engine (or at least a
// fresh Run call) is required per backtest; the only state shared
// between runs is the read-only tier map.
type Engine struct {
	Sets []*market.FrameSet

	Breakout BreakoutConfig
	Gate     filters.Gate
	Tiers    *filters.TierMap
	Firm     risk.FirmProfile

	StartEquity float64
	InitialMode risk.Mode

	// Global concurrent-position cap across symbols; the per-mode
	// MaxOpenTrades still applies on top. Defaults to 1.
	MaxOpenPositions int

	// Sources maps symbol to its signal source. Symbols without an
	// entry default to the registered sma-cross source.
	Sources map[string]strategies.Source

	// Exec fills entries and exits. Defaults to a zero-slippage
	// simulated backend.
	Exec execution.Backend
}

// Run executes the fold and returns the completed result.
func (e *Engine) Run() (*Result, error) {
	if len(e.Sets) == 0 {
		return nil, fmt.Errorf("backtest: no symbol frames configured")
	}
	if e.StartEquity <= 0 {
		return nil, fmt.Errorf("backtest: starting equity must be positive")
	}
	if e.Tiers == nil {
		e.Tiers = filters.NewTierMap("", "")
	}
	if e.Exec == nil {
		e.Exec = execution.NewSimulated(0)
	}
	maxOpen := e.MaxOpenPositions
	if maxOpen <= 0 {
		maxOpen = 1
	}

	events := market.BuildEventStream(e.Sets)
	if len(events) == 0 {
		return nil, fmt.Errorf("backtest: no events generated; frames need at least two bars")
	}

	setsBySymbol := make(map[string]*market.FrameSet, len(e.Sets))
	sources := make(map[string]strategies.Source, len(e.Sets))
	for _, fs := range e.Sets {
		setsBySymbol[fs.Symbol] = fs
		if src, ok := e.Sources[fs.Symbol]; ok {
			sources[fs.Symbol] = src
			continue
		}
		src, err := strategies.New("sma-cross", market.MetaFor(fs.Symbol))
		if err != nil {
			return nil, err
		}
		sources[fs.Symbol] = src
	}

	state := risk.NewState(e.StartEquity, e.InitialMode, e.Firm)
	ctrl := risk.NewController(state)

	result := &Result{
		StartEquity: e.StartEquity,
		Funnel:      newFunnel(),
	}

	positions := make(map[string]*Position)
	lastClose := make(map[string]float64)

	var (
		currentDay           time.Time
		dayEndTS             time.Time
		todaysRealized       float64
		dailyStart           = e.StartEquity
		dailyPeak            = e.StartEquity
		dailyMin             = e.StartEquity
		dailyMode            = state.Mode
		entriesToday         int
		maxDailyLossFraction float64
		lastEquity           = e.StartEquity
	)

	noteDailyLoss := func() {
		if todaysRealized < 0 && state.StartOfDayEquity > 0 {
			frac := -todaysRealized / state.StartOfDayEquity
			if frac > maxDailyLossFraction {
				maxDailyLossFraction = frac
			}
		}
	}

	finalizeDay := func(equityEnd float64) {
		if currentDay.IsZero() {
			return
		}
		dd := 0.0
		if dailyPeak > 0 {
			dd = (dailyPeak - dailyMin) / dailyPeak
		}
		result.DailyStats = append(result.DailyStats, DailyStats{
			Date:                  currentDay,
			EndTimestamp:          dayEndTS,
			EquityStartOfDay:      dailyStart,
			EquityEndOfDay:        equityEnd,
			RealizedPnL:           todaysRealized,
			MaxIntradayDDFraction: dd,
			Mode:                  dailyMode,
		})
	}

	closePosition := func(pos *Position, ts time.Time, exitPrice float64, reason ExitReason) {
		if fill, err := e.Exec.Close(context.Background(), pos.TradeID, exitPrice, ts); err == nil {
			exitPrice = fill.Price
		} else {
			log.WithError(err).WithField("symbol", pos.Symbol).Warn("exit fill failed, using reference price")
		}
		meta := market.MetaFor(pos.Symbol)
		pnl := pipPnL(pos.EntryPrice, exitPrice, pos.Direction, pos.Lots, meta)
		state.UpdateEquity(state.CurrentEquity + pnl)
		todaysRealized += pnl
		noteDailyLoss()

		riskDist := pos.EntryPrice - pos.StopLoss
		if riskDist < 0 {
			riskDist = -riskDist
		}
		rewardDist := pos.TakeProfit - pos.EntryPrice
		if rewardDist < 0 {
			rewardDist = -rewardDist
		}
		rr := 0.0
		if riskDist > 1e-12 && reason != ExitInternalStopOut {
			rr = rewardDist / riskDist
		}
		rMultiple := 0.0
		if pos.RiskAmount > 0 {
			rMultiple = pnl / pos.RiskAmount
		}

		result.Trades = append(result.Trades, Trade{
			ID:          pos.TradeID,
			Symbol:      pos.Symbol,
			Direction:   pos.Direction,
			EntryTime:   pos.EntryTime,
			ExitTime:    ts,
			EntryPrice:  pos.EntryPrice,
			ExitPrice:   exitPrice,
			StopLoss:    pos.StopLoss,
			TakeProfit:  pos.TakeProfit,
			Lots:        pos.Lots,
			PnL:         pnl,
			RiskAmount:  pos.RiskAmount,
			RMultiple:   rMultiple,
			RiskReward:  rr,
			ModeAtEntry: pos.ModeAtEntry,
			ExitReason:  reason,
			Session:     pos.Session,
			Trend:       pos.Trend,
			Volatility:  pos.Volatility,
			Pattern:     pos.Pattern,
			Tier:        pos.Tier,
			RiskScale:   pos.RiskScale,
			Variant:     pos.Variant,
		})
		ctrl.RecordTrade(pnl, state.CurrentEquity, ts)
		delete(positions, pos.Symbol)
	}

	for _, ev := range events {
		fs := setsBySymbol[ev.Symbol]
		frame := fs.EntryFrame(ev.Timeframe)
		if frame == nil || ev.Row <= 0 || ev.Row >= frame.Len() {
			continue
		}
		row := frame.At(ev.Row)
		prev := frame.At(ev.Row - 1)
		ts := row.Timestamp
		lastClose[ev.Symbol] = row.Close

		// Day boundary is global across the portfolio: any symbol's
		// date change rolls the trading day for everyone.
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if !day.Equal(currentDay) {
			noteDailyLoss()
			finalizeDay(lastEquity)
			state.OnNewDay()
			todaysRealized = 0
			entriesToday = 0
			currentDay = day
			dailyStart = state.StartOfDayEquity
			dailyPeak = dailyStart
			dailyMin = dailyStart
			dailyMode = state.Mode
		}
		dayEndTS = ts

		signal := sources[ev.Symbol].Evaluate(row, prev)

		state.EnforceDrawdownLimits(ts)
		ctrl.StepForDrawdown(ts, state.TotalDDFromPeak())
		profile := risk.Profiles[state.Mode]

		// Exits before entries.
		if pos, ok := positions[ev.Symbol]; ok && pos.Timeframe == ev.Timeframe {
			exitPrice, reason := pos.checkExit(row.Close, signal)
			if reason == ExitNone {
				exitPrice, reason = pos.updateDynamicExit(row.Close, e.Breakout, row.ATR14)
			}
			if reason != ExitNone {
				closePosition(pos, ts, exitPrice, reason)
			}
		}

		if signal.Action != strategies.Flat &&
			signal.StopDistancePips > 0 &&
			signal.TakeProfitDistancePips > 0 &&
			state.CanTradeToday() {
			e.tryOpen(tryOpenArgs{
				fs:             fs,
				row:            row,
				ts:             ts,
				timeframe:      ev.Timeframe,
				signal:         signal,
				profile:        profile,
				state:          state,
				positions:      positions,
				maxOpen:        maxOpen,
				result:         result,
				todaysRealized: todaysRealized,
				entriesToday:   &entriesToday,
			})
		}

		// Mark-to-market: realized equity plus unrealized PnL of every
		// open position at its last seen close.
		equity := state.CurrentEquity
		for sym, pos := range positions {
			if px, ok := lastClose[sym]; ok {
				equity += pipPnL(pos.EntryPrice, px, pos.Direction, pos.Lots, market.MetaFor(sym))
			}
		}
		result.EquityCurve = append(result.EquityCurve, EquityPoint{Timestamp: ts, Equity: equity})
		if equity > dailyPeak {
			dailyPeak = equity
		}
		if equity < dailyMin {
			dailyMin = equity
		}
		lastEquity = equity

		// Forced flatten: the internal stop-out closes this symbol's
		// position at the current close, unconditionally.
		if pos, ok := positions[ev.Symbol]; ok && state.InternalStopOut {
			closePosition(pos, ts, row.Close, ExitInternalStopOut)
		}
	}

	noteDailyLoss()
	finalizeDay(lastEquity)

	result.FinalMode = state.Mode
	result.ModeTransitions = ctrl.Transitions
	result.InternalStopOut = state.InternalStopOut
	result.PropFail = state.PropFail
	result.InternalStopTime = state.InternalStopTime
	result.PropFailTime = state.PropFailTime
	result.MaxDailyLossFraction = maxDailyLossFraction
	result.summarize()

	log.WithFields(log.Fields{
		"events": len(events),
		"trades": len(result.Trades),
		"days":   len(result.DailyStats),
	}).Debug("backtest complete")

	return result, nil
}

type tryOpenArgs struct {
	fs             *market.FrameSet
	row            *market.Bar
	ts             time.Time
	timeframe      market.Timeframe
	signal         strategies.Decision
	profile        risk.Profile
	state          *risk.State
	positions      map[string]*Position
	maxOpen        int
	result         *Result
	todaysRealized float64
	entriesToday   *int
}

// tryOpen walks a qualifying signal through filters, tiering, sizing,
// and the risk rails, opening a position when everything passes. Every
// rejection lands in exactly one funnel bucket.
func (e *Engine) tryOpen(a tryOpenArgs) {
	funnel := &a.result.Funnel
	funnel.RawSignals++
	variant := a.signal.Variant
	if variant == "" {
		variant = "unknown"
	}
	funnel.VariantCounts[variant]++

	if a.profile.MaxOpenTrades <= 0 {
		return
	}

	session := filters.SessionOf(a.ts)
	trend := filters.TrendOf(a.signal.Action, a.row)
	var atrLow, atrHigh float64
	if a.fs.Context != nil && a.fs.Context.HasATRBands {
		atrLow, atrHigh = a.fs.Context.ATRLow, a.fs.Context.ATRHigh
	}
	vol := filters.VolatilityOf(a.row.ATR14, atrLow, atrHigh)

	gate := e.Gate.Allow(filters.Tags{Session: session, Trend: trend, Volatility: vol})
	if !gate.SessionPassed {
		funnel.FilteredByReason[gate.Reason]++
		return
	}
	funnel.AfterSession++
	if !gate.TrendPassed {
		funnel.FilteredByReason[gate.Reason]++
		return
	}
	funnel.AfterTrend++
	if !gate.VolatilityPassed {
		funnel.FilteredByReason[gate.Reason]++
		return
	}
	funnel.AfterVolatility++

	meta := market.MetaFor(a.fs.Symbol)
	sized, err := risk.PositionSize(risk.SizingInputs{
		Equity:           a.state.CurrentEquity,
		RiskFraction:     a.profile.RiskPerTradeFraction,
		StopDistancePips: a.signal.StopDistancePips,
		Meta:             meta,
	})
	if err != nil {
		return
	}

	entryPrice := a.row.Close
	atrValue := a.row.ATR14
	atr := atrValue.Value
	if !atrValue.Valid {
		// Percentile bands are the best stand-in during warm-up.
		atr = atrHigh
		if atr <= 0 {
			atr = atrLow
		}
		if atr <= 0 {
			atr = 1e-6
		}
	}

	dir := +1
	if a.signal.Action == strategies.Short {
		dir = -1
	}
	breakoutLevel := a.row.BreakoutHigh
	if dir < 0 {
		breakoutLevel = a.row.BreakoutLow
	}
	pattern := PatternNonBreakout
	if meetsBreakoutConditions(
		dir, entryPrice,
		a.row.SMASlow.Value, a.row.SMATrend.Value, breakoutLevel.Value, atr,
		a.row.SMASlow.Valid && a.row.SMATrend.Valid && breakoutLevel.Valid && atrValue.Valid,
		e.Breakout,
	) {
		pattern = PatternBreakout
	}

	combo := filters.NewCombo(session, trend, vol, pattern)
	funnel.ComboCounts[combo]++
	funnel.AfterBreakout++

	tierResult := e.Tiers.Allow(combo)
	if !tierResult.Allowed {
		funnel.FilteredByReason[filters.ReasonRiskAggression]++
		return
	}
	funnel.AfterRiskAggression++

	lots := sized.Lots * tierResult.Scale
	if lots < 1e-4 {
		return
	}
	riskAmount := a.signal.StopDistancePips * meta.PipValuePerLot * lots

	if _, open := a.positions[a.fs.Symbol]; open ||
		len(a.positions) >= a.maxOpen ||
		len(a.positions) >= a.profile.MaxOpenTrades {
		funnel.FilteredByReason[filters.ReasonMaxOpenPositions]++
		return
	}
	if *a.entriesToday >= a.profile.MaxTradesPerDay {
		funnel.FilteredByReason[filters.ReasonMaxTradesPerDay]++
		return
	}

	openRisk := 0.0
	for _, pos := range a.positions {
		openRisk += pos.RiskAmount
	}
	allowed, err := risk.CanOpenNewTrade(
		a.todaysRealized,
		openRisk,
		riskAmount,
		a.state.StartOfDayEquity,
		e.Firm.InternalMaxDailyLossFraction,
		e.Firm.PropMaxDailyLossFraction,
	)
	if err != nil {
		log.WithError(err).Warn("daily budget misconfigured; entry skipped")
		return
	}
	if !allowed {
		funnel.FilteredByReason[filters.ReasonDailyLossBudget]++
		return
	}

	fill, err := e.Exec.Open(context.Background(), execution.OrderRequest{
		Symbol: a.fs.Symbol,
		Side:   a.signal.Action,
		Lots:   lots,
		Price:  entryPrice,
		Time:   a.ts,
	})
	if err != nil {
		log.WithError(err).WithField("symbol", a.fs.Symbol).Warn("entry fill failed")
		return
	}
	entryPrice = fill.Price

	pipToPrice := a.signal.StopDistancePips * meta.PipSize
	tpToPrice := a.signal.TakeProfitDistancePips * meta.PipSize
	stopLoss := entryPrice - pipToPrice
	takeProfit := entryPrice + tpToPrice
	if a.signal.Action == strategies.Short {
		stopLoss = entryPrice + pipToPrice
		takeProfit = entryPrice - tpToPrice
	}

	a.positions[a.fs.Symbol] = &Position{
		TradeID:     fill.TradeID,
		Symbol:      a.fs.Symbol,
		Timeframe:   a.timeframe,
		Direction:   a.signal.Action,
		EntryTime:   a.ts,
		EntryPrice:  entryPrice,
		Lots:        lots,
		StopLoss:    stopLoss,
		TakeProfit:  takeProfit,
		RiskAmount:  riskAmount,
		RiskPerUnit: pipToPrice,
		ATRAtEntry:  atr,
		ModeAtEntry: a.state.Mode,
		Session:     session,
		Trend:       trend,
		Volatility:  vol,
		Pattern:     pattern,
		Tier:        tierResult.Tier,
		RiskScale:   tierResult.Scale,
		EntryReason: a.signal.Reason,
		Variant:     variant,
	}
	*a.entriesToday++
}
