package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS portfolio_state (
	id         BIGSERIAL PRIMARY KEY,
	document   JSONB NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT true,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_portfolio_state_active
	ON portfolio_state (is_active, updated_at DESC);

CREATE TABLE IF NOT EXISTS quote_history (
	id             BIGSERIAL PRIMARY KEY,
	symbol         TEXT NOT NULL,
	timestamp      TIMESTAMPTZ NOT NULL,
	cycle_at       TIMESTAMPTZ NOT NULL,
	trading_day    DATE NOT NULL,
	price          DOUBLE PRECISION NOT NULL,
	change_percent DOUBLE PRECISION,
	open_price     DOUBLE PRECISION,
	source         TEXT NOT NULL DEFAULT 'boerse-frankfurt',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_quote_history_symbol_ts
	ON quote_history (symbol, timestamp DESC);

CREATE INDEX IF NOT EXISTS idx_quote_history_cycle
	ON quote_history (cycle_at DESC);

CREATE INDEX IF NOT EXISTS idx_quote_history_day
	ON quote_history (trading_day);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
