package db

// Schema creates every table of the journal database. Statements are
// idempotent so it runs on each Open.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	password TEXT NOT NULL,
	is_staff BOOLEAN NOT NULL DEFAULT 0,
	is_superuser BOOLEAN NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	date_joined DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS markets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL CHECK (length(name) <= 50)
);

CREATE TABLE IF NOT EXISTS brokers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL CHECK (length(name) <= 300)
);

CREATE TABLE IF NOT EXISTS broker_markets (
	broker_id TEXT NOT NULL REFERENCES brokers(id) ON DELETE CASCADE,
	market_id TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
	PRIMARY KEY (broker_id, market_id)
);

CREATE TABLE IF NOT EXISTS symbol_types (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE CHECK (length(name) <= 50)
);

CREATE TABLE IF NOT EXISTS symbols (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL CHECK (length(name) <= 300),
	code TEXT NOT NULL CHECK (length(code) <= 15),
	type_id TEXT NOT NULL REFERENCES symbol_types(id) ON DELETE CASCADE,
	market_id TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
	UNIQUE (code, market_id)
);

CREATE TABLE IF NOT EXISTS symbol_brokers (
	symbol_id TEXT NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	broker_id TEXT NOT NULL REFERENCES brokers(id) ON DELETE CASCADE,
	PRIMARY KEY (symbol_id, broker_id)
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	broker_id TEXT NOT NULL REFERENCES brokers(id) ON DELETE RESTRICT,
	name TEXT NOT NULL CHECK (length(name) <= 300),
	balance TEXT NOT NULL DEFAULT '0',
	currency TEXT NOT NULL DEFAULT 'USD' CHECK (length(currency) = 3)
);

CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	ticket INTEGER NOT NULL CHECK (ticket >= 0),
	volume TEXT NOT NULL,
	symbol_id TEXT NOT NULL REFERENCES symbols(id) ON DELETE RESTRICT,
	opened_at DATETIME NOT NULL,
	open_price TEXT NOT NULL,
	sl_price TEXT,
	tp_price TEXT,
	closed_at DATETIME,
	closed_manually BOOLEAN,
	close_price TEXT,
	commissions TEXT,
	swaps TEXT,
	profit TEXT,
	modifications TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id, opened_at);

CREATE TABLE IF NOT EXISTS history (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	profit TEXT NOT NULL DEFAULT '0',
	balance TEXT NOT NULL DEFAULT '0',
	operation TEXT NOT NULL CHECK (operation IN ('DE', 'DI', 'PC', 'WD')),
	position_id TEXT REFERENCES positions(id) ON DELETE RESTRICT,
	created_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS unique_position
	ON history(account_id, position_id) WHERE position_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_history_account_time ON history(account_id, created_at, seq);
`
