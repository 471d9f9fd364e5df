package database

import (
	"context"
	"fmt"
	"strings"
)

// UniverseEntry is one ranked allowlist row
type UniverseEntry struct {
	Symbol string `json:"symbol"`
	Rank   int    `json:"rank"`
}

// UniverseRepository reads and writes the symbol_universe table
type UniverseRepository struct {
	db *DB
}

// NewUniverseRepository creates a new repository instance
func NewUniverseRepository(db *DB) *UniverseRepository {
	return &UniverseRepository{db: db}
}

// ListActive returns active symbols ordered by rank, at most limit when limit > 0
func (r *UniverseRepository) ListActive(ctx context.Context, limit int) ([]UniverseEntry, error) {
	query := `
		SELECT symbol, rank
		FROM symbol_universe
		WHERE active
		ORDER BY rank, symbol
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []UniverseEntry
	for rows.Next() {
		var e UniverseEntry
		if err := rows.Scan(&e.Symbol, &e.Rank); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Replace deactivates every row and upserts symbols ranked by position
func (r *UniverseRepository) Replace(ctx context.Context, source string, symbols []string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE symbol_universe SET active = FALSE, updated_at = NOW()`); err != nil {
		return fmt.Errorf("failed to deactivate universe: %w", err)
	}

	for i, symbol := range symbols {
		_, err := tx.Exec(ctx, `
			INSERT INTO symbol_universe (symbol, rank, source, active, updated_at)
			VALUES ($1, $2, $3, TRUE, NOW())
			ON CONFLICT (symbol) DO UPDATE SET
				rank = EXCLUDED.rank,
				source = EXCLUDED.source,
				active = TRUE,
				updated_at = EXCLUDED.updated_at
		`, strings.ToUpper(symbol), i+1, source)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", symbol, err)
		}
	}

	return tx.Commit(ctx)
}
