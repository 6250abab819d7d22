package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite journals into a local database file, creating the schema on
// open.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, direction, entry_time, exit_time, entry_price, exit_price,
		 stop_loss, take_profit, lots, pnl, risk_amount, r_multiple, mode_at_entry,
		 exit_reason, session_tag, trend_regime, volatility_regime, pattern_tag,
		 tier, risk_scale, variant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Direction, t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice,
		t.StopLoss, t.TakeProfit, t.Lots, t.PnL, t.RiskAmount, t.RMultiple, t.Mode,
		t.ExitReason, t.Session, t.Trend, t.Volatility, t.Pattern,
		t.Tier, t.RiskScale, t.Variant,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRow) error {
	_, err := j.db.Exec(`INSERT INTO equity (time, equity) VALUES (?, ?)`,
		e.Time, e.Equity)
	return err
}

func (j *SQLite) RecordDaily(d DailyRow) error {
	_, err := j.db.Exec(`
		INSERT INTO daily
		(date, end_time, equity_start_of_day, equity_end_of_day, realized_pnl, max_intraday_dd, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Date, d.EndTime, d.EquityStart, d.EquityEnd, d.RealizedPnL, d.MaxIntradayDD, d.Mode,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
