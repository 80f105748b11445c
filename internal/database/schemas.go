package database

// schemas maps database names to their embedded DDL.
var schemas = map[string]string{
	"universe": `
CREATE TABLE IF NOT EXISTS sector_members (
    sector TEXT NOT NULL,
    symbol TEXT NOT NULL,
    PRIMARY KEY (sector, symbol)
);
CREATE INDEX IF NOT EXISTS idx_sector_members_symbol ON sector_members(symbol);
`,

	"benchmarks": `
CREATE TABLE IF NOT EXISTS etf_prices (
    symbol     TEXT NOT NULL,
    price_date TEXT NOT NULL,
    adj_close  REAL NOT NULL,
    PRIMARY KEY (symbol, price_date)
);
CREATE INDEX IF NOT EXISTS idx_etf_prices_symbol_date ON etf_prices(symbol, price_date);
`,

	"client_data": `
CREATE TABLE IF NOT EXISTS dataservice_statements (
    cache_key  TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS dataservice_prices (
    cache_key  TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS dataservice_events (
    cache_key  TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS dataservice_meta (
    cache_key  TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);
`,
}
