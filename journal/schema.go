// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS days (
	day TEXT PRIMARY KEY,
	starting_balance REAL NOT NULL,
	realized_pnl REAL NOT NULL DEFAULT 0,
	peak_balance REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	plan_id TEXT NOT NULL DEFAULT '',
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	lots REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	day TEXT NOT NULL REFERENCES days(day),
	realized_pnl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);

CREATE TABLE IF NOT EXISTS plans (
	plan_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	balance REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_price REAL NOT NULL,
	lots REAL NOT NULL,
	risk_amount REAL NOT NULL,
	distance_points REAL NOT NULL,
	targets TEXT NOT NULL,
	allowed INTEGER NOT NULL,
	violations TEXT NOT NULL
);
`
