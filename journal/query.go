package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, symbol, direction, entry_time, exit_time, entry_price, exit_price,
		       stop_loss, take_profit, lots, pnl, risk_amount, r_multiple, mode_at_entry,
		       exit_reason, session_tag, trend_regime, volatility_regime, pattern_tag,
		       tier, risk_scale, variant
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return rec, err
}

// ListTradesClosedBetween returns trades whose exit_time is within
// [start, end), oldest first.
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, direction, entry_time, exit_time, entry_price, exit_price,
		       stop_loss, take_profit, lots, pnl, risk_amount, r_multiple, mode_at_entry,
		       exit_reason, session_tag, trend_regime, volatility_regime, pattern_tag,
		       tier, risk_scale, variant
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity samples within [start, end),
// oldest first.
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquityRow, error) {
	rows, err := j.db.Query(`
		SELECT time, equity
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRow
	for rows.Next() {
		var rec EquityRow
		if err := rows.Scan(&rec.Time, &rec.Equity); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(r rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := r.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Direction,
		&rec.EntryTime,
		&rec.ExitTime,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.Lots,
		&rec.PnL,
		&rec.RiskAmount,
		&rec.RMultiple,
		&rec.Mode,
		&rec.ExitReason,
		&rec.Session,
		&rec.Trend,
		&rec.Volatility,
		&rec.Pattern,
		&rec.Tier,
		&rec.RiskScale,
		&rec.Variant,
	)
	return rec, err
}
