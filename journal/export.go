package journal

import (
	"github.com/oklog/ulid/v2"

	"github.com/omegafx/propsim/backtest"
)

// Export writes a completed backtest into the journal. Trades missing
// an ID get a freshly minted ULID.
func Export(j Journal, result *backtest.Result) error {
	for _, t := range result.Trades {
		id := t.ID
		if id == "" {
			id = ulid.Make().String()
		}
		rec := TradeRecord{
			TradeID:    id,
			Symbol:     t.Symbol,
			Direction:  t.Direction.String(),
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			StopLoss:   t.StopLoss,
			TakeProfit: t.TakeProfit,
			Lots:       t.Lots,
			PnL:        t.PnL,
			RiskAmount: t.RiskAmount,
			RMultiple:  t.RMultiple,
			Mode:       t.ModeAtEntry.String(),
			ExitReason: t.ExitReason.String(),
			Session:    t.Session.String(),
			Trend:      t.Trend.String(),
			Volatility: t.Volatility.String(),
			Pattern:    t.Pattern,
			Tier:       t.Tier.String(),
			RiskScale:  t.RiskScale,
			Variant:    t.Variant,
		}
		if err := j.RecordTrade(rec); err != nil {
			return err
		}
	}

	for _, p := range result.EquityCurve {
		if err := j.RecordEquity(EquityRow{Time: p.Timestamp, Equity: p.Equity}); err != nil {
			return err
		}
	}

	for _, d := range result.DailyStats {
		row := DailyRow{
			Date:          d.Date.Format("2006-01-02"),
			EndTime:       d.EndTimestamp,
			EquityStart:   d.EquityStartOfDay,
			EquityEnd:     d.EquityEndOfDay,
			RealizedPnL:   d.RealizedPnL,
			MaxIntradayDD: d.MaxIntradayDDFraction,
			Mode:          d.Mode.String(),
		}
		if err := j.RecordDaily(row); err != nil {
			return err
		}
	}

	return nil
}
