package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fxvolbridge/internal/model"
	"fxvolbridge/internal/settings"
)

const opTimeout = 10 * time.Second

// Store persists pair settings in Postgres, for deployments where several
// desks share one configuration.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	store := &Store{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pair_settings (
			symbol text PRIMARY KEY,
			atm_source text NOT NULL,
			smile_source text NOT NULL,
			live boolean NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure pair_settings schema: %w", err)
	}
	return nil
}

// Load reads the full settings snapshot, ordered by symbol.
func (s *Store) Load() (settings.Settings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT symbol, atm_source, smile_source, live, updated_at
		FROM pair_settings
		ORDER BY symbol
	`)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("load pair settings: %w", err)
	}
	defer rows.Close()

	var loaded settings.Settings
	for rows.Next() {
		var pair model.Pair
		var updatedAt time.Time
		if err := rows.Scan(&pair.Symbol, &pair.AtmSource, &pair.SmileSource, &pair.Live, &updatedAt); err != nil {
			return settings.Settings{}, fmt.Errorf("scan pair settings: %w", err)
		}
		loaded.Pairs = append(loaded.Pairs, pair)
		if updatedAt.After(loaded.LastSaved) {
			loaded.LastSaved = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return settings.Settings{}, fmt.Errorf("load pair settings: %w", err)
	}
	return loaded, nil
}

// Save replaces the snapshot: upserts every pair and removes rows no longer
// present.
func (s *Store) Save(snapshot settings.Settings) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	batch := &pgx.Batch{}
	symbols := make([]string, 0, len(snapshot.Pairs))
	for _, pair := range snapshot.Pairs {
		symbols = append(symbols, pair.Symbol)
		batch.Queue(`
			INSERT INTO pair_settings (symbol, atm_source, smile_source, live, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (symbol)
			DO UPDATE SET
				atm_source = EXCLUDED.atm_source,
				smile_source = EXCLUDED.smile_source,
				live = EXCLUDED.live,
				updated_at = now()
		`, pair.Symbol, pair.AtmSource, pair.SmileSource, pair.Live)
	}
	batch.Queue(`DELETE FROM pair_settings WHERE NOT (symbol = ANY($1))`, symbols)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save pair settings: %w", err)
		}
	}
	return nil
}
