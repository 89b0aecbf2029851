package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS simarket_sessions (
	seed        BIGINT PRIMARY KEY,
	effect_mode TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS simarket_ticks (
	seed          BIGINT NOT NULL,
	hour          INT NOT NULL,
	instrument_id TEXT NOT NULL,
	price         BIGINT NOT NULL,
	PRIMARY KEY (seed, hour, instrument_id)
);
`

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Archiver persists advanced hours so a session's history survives process
// restarts and can be inspected with plain SQL.
type Archiver struct {
	pool *pgxpool.Pool
	seed int64
}

func NewArchiver(ctx context.Context, pool *pgxpool.Pool, seed int64, effectMode string) (*Archiver, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	_, err := pool.Exec(ctx,
		`INSERT INTO simarket_sessions (seed, effect_mode) VALUES ($1, $2)
		 ON CONFLICT (seed) DO NOTHING`, seed, effectMode)
	if err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	return &Archiver{pool: pool, seed: seed}, nil
}

// ArchiveTick upserts the hour's price per instrument in one batch.
func (a *Archiver) ArchiveTick(ctx context.Context, hour int, prices map[string]int64) error {
	batch := &pgx.Batch{}
	for id, price := range prices {
		batch.Queue(
			`INSERT INTO simarket_ticks (seed, hour, instrument_id, price)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (seed, hour, instrument_id) DO UPDATE SET price = EXCLUDED.price`,
			a.seed, hour, id, price)
	}
	br := a.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range prices {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("archive tick %d: %w", hour, err)
		}
	}
	return nil
}
