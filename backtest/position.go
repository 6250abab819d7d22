package backtest

import (
	"time"

	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/risk"
	"github.com/omegafx/propsim/strategies"
)

// ExitReason is the closed set of ways a position leaves the book.
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitStopLoss
	ExitTakeProfit
	ExitOppositeSignal
	ExitExtendedTP
	ExitInternalStopOut
	ExitEndOfData
)

func (r ExitReason) String() string {
	switch r {
	case ExitStopLoss:
		return "Stop Loss"
	case ExitTakeProfit:
		return "Take Profit"
	case ExitOppositeSignal:
		return "Opposite signal"
	case ExitExtendedTP:
		return "Extended TP"
	case ExitInternalStopOut:
		return "Internal stop-out"
	case ExitEndOfData:
		return "End of data"
	}
	return "none"
}

// Pattern tags recorded on entries.
const (
	PatternBreakout    = "breakout_v1"
	PatternNonBreakout = "non_breakout"
)

// Position is one open trade. The driver holds at most one per symbol
// plus a global concurrency cap across symbols.
type Position struct {
	TradeID     string
	Symbol      string
	Timeframe   market.Timeframe
	Direction   strategies.Action
	EntryTime   time.Time
	EntryPrice  float64
	Lots        float64
	StopLoss    float64
	TakeProfit  float64
	RiskAmount  float64
	RiskPerUnit float64 // stop distance in price units
	ATRAtEntry  float64
	ModeAtEntry risk.Mode

	Session    filters.Session
	Trend      filters.Trend
	Volatility filters.Volatility
	Pattern    string
	Tier       filters.Tier
	RiskScale  float64

	EntryReason string
	Variant     string

	BreakevenActivated bool
	TrailActivated     bool
}

// checkExit evaluates the static exits on this bar's close, in priority
// order: stop touch, target touch, opposite signal.
func (p *Position) checkExit(closePrice float64, signal strategies.Decision) (float64, ExitReason) {
	if p.Direction == strategies.Long {
		if closePrice <= p.StopLoss {
			return p.StopLoss, ExitStopLoss
		}
		if closePrice >= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit
		}
	} else {
		if closePrice >= p.StopLoss {
			return p.StopLoss, ExitStopLoss
		}
		if closePrice <= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit
		}
	}

	opposite := (signal.Action == strategies.Long && p.Direction == strategies.Short) ||
		(signal.Action == strategies.Short && p.Direction == strategies.Long)
	if opposite {
		return closePrice, ExitOppositeSignal
	}

	return 0, ExitNone
}

// updateDynamicExit applies the management rules: breakeven lock once
// unrealized R reaches the trigger, extended-TP exit once R reaches the
// ceiling, else an ATR-multiple trailing stop that only ever improves.
// Returns a non-ExitNone reason when the position should close here.
func (p *Position) updateDynamicExit(closePrice float64, cfg BreakoutConfig, currentATR market.Indicator) (float64, ExitReason) {
	atr := p.ATRAtEntry
	if currentATR.Valid {
		atr = currentATR.Value
	}
	if p.RiskPerUnit <= 0 {
		return 0, ExitNone
	}

	if p.Direction == strategies.Long {
		r := (closePrice - p.EntryPrice) / p.RiskPerUnit
		if !p.BreakevenActivated && r >= cfg.BreakevenTriggerR {
			p.BreakevenActivated = true
			if p.EntryPrice > p.StopLoss {
				p.StopLoss = p.EntryPrice
			}
		}
		if r >= cfg.ExtendedTPR {
			return closePrice, ExitExtendedTP
		}
		if p.BreakevenActivated {
			trail := closePrice - cfg.TrailingATRMultiple*atr
			if trail > p.StopLoss {
				p.StopLoss = trail
				p.TrailActivated = true
			}
		}
	} else {
		r := (p.EntryPrice - closePrice) / p.RiskPerUnit
		if !p.BreakevenActivated && r >= cfg.BreakevenTriggerR {
			p.BreakevenActivated = true
			if p.EntryPrice < p.StopLoss {
				p.StopLoss = p.EntryPrice
			}
		}
		if r >= cfg.ExtendedTPR {
			return closePrice, ExitExtendedTP
		}
		if p.BreakevenActivated {
			trail := closePrice + cfg.TrailingATRMultiple*atr
			if trail < p.StopLoss {
				p.StopLoss = trail
				p.TrailActivated = true
			}
		}
	}

	return 0, ExitNone
}

// pipPnL converts a price move into account currency for a position of
// the given size. Short positions flip the sign.
func pipPnL(entry, exit float64, direction strategies.Action, lots float64, meta market.SymbolMeta) float64 {
	pips := (exit - entry) / meta.PipSize
	if direction == strategies.Short {
		pips = -pips
	}
	return pips * meta.PipValuePerLot * lots
}
