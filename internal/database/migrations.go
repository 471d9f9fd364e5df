package database

// migrations are idempotent and run in order on startup
var migrations = []string{
	// Ranked symbol allowlist
	`CREATE TABLE IF NOT EXISTS symbol_universe (
		symbol VARCHAR(20) PRIMARY KEY,
		rank INT NOT NULL,
		source VARCHAR(40) NOT NULL DEFAULT 'manual',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbol_universe_rank ON symbol_universe(rank) WHERE active`,

	// Exchange lot/price requirements per symbol
	`CREATE TABLE IF NOT EXISTS symbol_requirements (
		symbol VARCHAR(20) PRIMARY KEY,

		-- Precision settings (derived from filters)
		price_precision INT NOT NULL DEFAULT 4,
		quantity_precision INT NOT NULL DEFAULT 0,

		-- From PRICE_FILTER
		tick_size DECIMAL(20, 10) NOT NULL DEFAULT 0.0001,

		-- From LOT_SIZE filter
		step_size DECIMAL(20, 10) NOT NULL DEFAULT 1,
		min_qty DECIMAL(20, 8) NOT NULL DEFAULT 1,

		-- From MIN_NOTIONAL filter
		min_notional DECIMAL(20, 8) DEFAULT 5,

		status VARCHAR(20) NOT NULL DEFAULT 'TRADING',
		last_synced_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbol_requirements_status ON symbol_requirements(status)`,
}
