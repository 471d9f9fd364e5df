package database

import (
	"context"
	"fmt"
	"time"

	"guardian-futures-engine/internal/logging"
)

// SymbolRequirements represents Binance exchange requirements for a trading symbol
type SymbolRequirements struct {
	Symbol            string    `json:"symbol"`
	PricePrecision    int       `json:"price_precision"`
	QuantityPrecision int       `json:"quantity_precision"`
	TickSize          float64   `json:"tick_size"`
	StepSize          float64   `json:"step_size"`
	MinQty            float64   `json:"min_qty"`
	MinNotional       float64   `json:"min_notional"`
	Status            string    `json:"status"`
	LastSyncedAt      time.Time `json:"last_synced_at"`
}

// SymbolRequirementsRepository handles database operations for symbol requirements
type SymbolRequirementsRepository struct {
	db *DB
}

// NewSymbolRequirementsRepository creates a new repository instance
func NewSymbolRequirementsRepository(db *DB) *SymbolRequirementsRepository {
	return &SymbolRequirementsRepository{db: db}
}

const upsertRequirementsSQL = `
	INSERT INTO symbol_requirements (
		symbol, price_precision, quantity_precision, tick_size, step_size,
		min_qty, min_notional, status, last_synced_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $9
	)
	ON CONFLICT (symbol) DO UPDATE SET
		price_precision = EXCLUDED.price_precision,
		quantity_precision = EXCLUDED.quantity_precision,
		tick_size = EXCLUDED.tick_size,
		step_size = EXCLUDED.step_size,
		min_qty = EXCLUDED.min_qty,
		min_notional = EXCLUDED.min_notional,
		status = EXCLUDED.status,
		last_synced_at = EXCLUDED.last_synced_at,
		updated_at = EXCLUDED.updated_at
`

// BulkUpsert inserts or updates multiple symbols in one transaction
func (r *SymbolRequirementsRepository) BulkUpsert(ctx context.Context, requirements []*SymbolRequirements) (int, error) {
	if len(requirements) == 0 {
		return 0, nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	log := logging.DatabaseContext("upsert", "symbol_requirements")
	now := time.Now().UTC()
	count := 0
	for _, req := range requirements {
		if !req.Valid() {
			log.Warn("skipping invalid requirements", "symbol", req.Symbol, "step_size", req.StepSize)
			continue
		}
		_, err := tx.Exec(ctx, upsertRequirementsSQL,
			req.Symbol, req.PricePrecision, req.QuantityPrecision, req.TickSize,
			req.StepSize, req.MinQty, req.MinNotional, req.Status, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert %s: %w", req.Symbol, err)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("symbol requirements synced", "count", count)
	return count, nil
}

// StepSizes returns the quantity step of every trading symbol
func (r *SymbolRequirementsRepository) StepSizes(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT symbol, step_size
		FROM symbol_requirements
		WHERE status = 'TRADING' AND step_size > 0
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make(map[string]float64)
	for rows.Next() {
		var symbol string
		var step float64
		if err := rows.Scan(&symbol, &step); err != nil {
			return nil, err
		}
		steps[symbol] = step
	}
	return steps, rows.Err()
}

// Valid reports a usable row
func (r *SymbolRequirements) Valid() bool {
	return r != nil && r.Symbol != "" && r.StepSize > 0
}
