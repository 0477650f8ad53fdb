package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// PortfolioRepositoryImpl implements the PortfolioRepository interface.
// Monetary columns are NUMERIC; values cross the wire as strings to keep
// exact decimal precision.
type PortfolioRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPortfolioRepository creates a new PortfolioRepository
func NewPortfolioRepository(db *pgxpool.Pool) domain.PortfolioRepository {
	return &PortfolioRepositoryImpl{db: db}
}

// Merge-on-(username, symbol): a re-import of a held symbol sums quantities
// and re-weights the average cost instead of appending a duplicate row.
const upsertPositionSQL = `
	INSERT INTO positions (username, symbol, qty, avg_cost, current_price, updated_at)
	VALUES ($1, $2, $3, $4::NUMERIC, $4::NUMERIC, NOW())
	ON CONFLICT (username, symbol) DO UPDATE SET
		avg_cost = (positions.avg_cost * positions.qty + EXCLUDED.avg_cost * EXCLUDED.qty)
		           / (positions.qty + EXCLUDED.qty),
		qty = positions.qty + EXCLUDED.qty,
		current_price = EXCLUDED.current_price,
		updated_at = EXCLUDED.updated_at
	RETURNING id
`

// OpenOrAccumulate inserts a new position or merges into the existing open row
func (r *PortfolioRepositoryImpl) OpenOrAccumulate(ctx context.Context, username string, row domain.ImportRow) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, upsertPositionSQL,
		username, row.Symbol, row.Qty, row.AvgPrice.String(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to open position %s: %w", row.Symbol, err)
	}
	return id, nil
}

// BulkImport applies a batch of import rows in a single transaction
func (r *PortfolioRepositoryImpl) BulkImport(ctx context.Context, username string, rows []domain.ImportRow) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		var id int64
		err := tx.QueryRow(ctx, upsertPositionSQL,
			username, row.Symbol, row.Qty, row.AvgPrice.String(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to import row %s: %w", row.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// ListOpen retrieves all open positions for a user
func (r *PortfolioRepositoryImpl) ListOpen(ctx context.Context, username string) ([]*domain.Position, error) {
	query := `
		SELECT id, username, symbol, qty, avg_cost::TEXT, current_price::TEXT, updated_at, created_at
		FROM positions
		WHERE username = $1 AND qty > 0
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		position := &domain.Position{}
		var avgCost, currentPrice string
		err := rows.Scan(
			&position.ID,
			&position.Username,
			&position.Symbol,
			&position.Qty,
			&avgCost,
			&currentPrice,
			&position.UpdatedAt,
			&position.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if position.AvgCost, err = decimal.NewFromString(avgCost); err != nil {
			return nil, fmt.Errorf("failed to parse avg_cost: %w", err)
		}
		if position.CurrentPrice, err = decimal.NewFromString(currentPrice); err != nil {
			return nil, fmt.Errorf("failed to parse current_price: %w", err)
		}
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// UpdatePrices writes back observed price drift for a batch of positions.
// Last writer wins; the prices are advisory, so no row locking is taken.
func (r *PortfolioRepositoryImpl) UpdatePrices(ctx context.Context, updates []domain.PriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE positions SET current_price = $1::NUMERIC, updated_at = $2 WHERE id = $3`,
			u.Price.String(), u.ObservedAt, u.PositionID,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to write back price: %w", err)
		}
	}
	return nil
}

// Close deletes the open position and credits the cost-basis refund to the
// user's cash balance, atomically. This is the one strict-consistency
// boundary in the store: either both steps apply or neither does.
func (r *PortfolioRepositoryImpl) Close(ctx context.Context, username, symbol string) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin close transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var qty int64
	var avgCostStr string
	err = tx.QueryRow(ctx,
		`SELECT qty, avg_cost::TEXT FROM positions
		 WHERE username = $1 AND symbol = $2 AND qty > 0
		 FOR UPDATE`,
		username, symbol,
	).Scan(&qty, &avgCostStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, domain.ErrPositionNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to look up position: %w", err)
	}

	avgCost, err := decimal.NewFromString(avgCostStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse avg_cost: %w", err)
	}
	refund := avgCost.Mul(decimal.NewFromInt(qty))

	if _, err := tx.Exec(ctx,
		`DELETE FROM positions WHERE username = $1 AND symbol = $2`,
		username, symbol,
	); err != nil {
		return decimal.Zero, fmt.Errorf("failed to delete position: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET cash_balance = cash_balance + $1::NUMERIC, updated_at = NOW() WHERE username = $2`,
		refund.String(), username,
	); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit refund: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit close: %w", err)
	}

	return refund, nil
}
