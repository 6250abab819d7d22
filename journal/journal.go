// Package journal persists backtest output as CSV files or a SQLite
// database for offline analysis.
package journal

import "time"

// TradeRecord is one closed trade, flattened for export.
type TradeRecord struct {
	TradeID    string    `csv:"trade_id"`
	Symbol     string    `csv:"symbol"`
	Direction  string    `csv:"direction"`
	EntryTime  time.Time `csv:"entry_time"`
	ExitTime   time.Time `csv:"exit_time"`
	EntryPrice float64   `csv:"entry_price"`
	ExitPrice  float64   `csv:"exit_price"`
	StopLoss   float64   `csv:"stop_loss"`
	TakeProfit float64   `csv:"take_profit"`
	Lots       float64   `csv:"lots"`
	PnL        float64   `csv:"pnl"`
	RiskAmount float64   `csv:"risk_amount"`
	RMultiple  float64   `csv:"r_multiple"`
	Mode       string    `csv:"mode_at_entry"`
	ExitReason string    `csv:"exit_reason"`
	Session    string    `csv:"session_tag"`
	Trend      string    `csv:"trend_regime"`
	Volatility string    `csv:"volatility_regime"`
	Pattern    string    `csv:"pattern_tag"`
	Tier       string    `csv:"tier"`
	RiskScale  float64   `csv:"risk_scale"`
	Variant    string    `csv:"variant"`
}

// EquityRow is one mark-to-market sample.
type EquityRow struct {
	Time   time.Time `csv:"time"`
	Equity float64   `csv:"equity"`
}

// DailyRow is one finalized trading day.
type DailyRow struct {
	Date          string    `csv:"date"`
	EndTime       time.Time `csv:"end_time"`
	EquityStart   float64   `csv:"equity_start_of_day"`
	EquityEnd     float64   `csv:"equity_end_of_day"`
	RealizedPnL   float64   `csv:"realized_pnl"`
	MaxIntradayDD float64   `csv:"max_intraday_dd"`
	Mode          string    `csv:"mode"`
}

// Journal is the persistence backend contract.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRow) error
	RecordDaily(DailyRow) error
	Close() error
}
