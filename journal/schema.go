package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	lots REAL NOT NULL,
	pnl REAL NOT NULL,
	risk_amount REAL NOT NULL,
	r_multiple REAL NOT NULL,
	mode_at_entry TEXT NOT NULL,
	exit_reason TEXT NOT NULL,
	session_tag TEXT NOT NULL,
	trend_regime TEXT NOT NULL,
	volatility_regime TEXT NOT NULL,
	pattern_tag TEXT NOT NULL,
	tier TEXT NOT NULL,
	risk_scale REAL NOT NULL,
	variant TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	equity REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS daily (
	date TEXT NOT NULL,
	end_time DATETIME NOT NULL,
	equity_start_of_day REAL NOT NULL,
	equity_end_of_day REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	max_intraday_dd REAL NOT NULL,
	mode TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
