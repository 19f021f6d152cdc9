package postgres

// migrations are idempotent DDL statements run in order by Migrate.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS handlepay_balances (
		key        TEXT        NOT NULL,
		asset      TEXT        NOT NULL,
		amount     BIGINT      NOT NULL DEFAULT 0 CHECK (amount >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (key, asset)
	)`,
	`CREATE TABLE IF NOT EXISTS handlepay_fee_pools (
		pool       TEXT        NOT NULL,
		asset      TEXT        NOT NULL,
		amount     BIGINT      NOT NULL DEFAULT 0 CHECK (amount >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (pool, asset)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_handlepay_balances_asset ON handlepay_balances (asset)`,
}
