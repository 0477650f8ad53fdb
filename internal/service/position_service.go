package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"paperledger/internal/adapter"
	"paperledger/internal/domain"
)

// Required columns of an uploaded position sheet, after header normalization.
var requiredImportColumns = []string{"symbol", "qty", "avg_price"}

// PositionService applies quantity/cost-basis changes: bulk spreadsheet
// imports and manual cancels with cost-basis refunds.
type PositionService struct {
	portfolioRepo domain.PortfolioRepository
}

// NewPositionService creates a new PositionService
func NewPositionService(portfolioRepo domain.PortfolioRepository) *PositionService {
	return &PositionService{portfolioRepo: portfolioRepo}
}

// ImportWorkbook validates and inserts positions from an uploaded workbook.
// The whole batch is rejected with a ValidationError when a required column
// is missing or no row survives filtering; individual bad rows are skipped
// silently. Surviving rows are applied in one transaction and the count of
// applied rows is returned.
func (s *PositionService) ImportWorkbook(ctx context.Context, username string, file io.Reader) (int, error) {
	table, err := adapter.ParseTable(file)
	if err != nil {
		return 0, fmt.Errorf("failed to parse upload: %w", err)
	}

	if !table.HasColumns(requiredImportColumns...) {
		return 0, domain.NewValidationError(
			"workbook must have columns: " + strings.Join(requiredImportColumns, ", "))
	}

	rows := make([]domain.ImportRow, 0, len(table.Rows))
	for _, record := range table.Rows {
		row, ok := parseImportRow(record)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return 0, domain.NewValidationError("no valid rows to insert")
	}

	if err := s.portfolioRepo.BulkImport(ctx, username, rows); err != nil {
		return 0, fmt.Errorf("failed to import positions: %w", err)
	}

	log.Printf("[OK] Imported %d position(s) for %s", len(rows), username)
	return len(rows), nil
}

// Cancel closes the user's position and refunds qty x avg cost to cash.
// The refund reverses the original cost basis, not current market value.
func (s *PositionService) Cancel(ctx context.Context, username, symbol string) (decimal.Decimal, error) {
	refund, err := s.portfolioRepo.Close(ctx, username, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	log.Printf("[OK] Position cancelled: %s %s | refund=%s", username, symbol, refund.String())
	return refund, nil
}

// parseImportRow turns one raw record into an ImportRow. A row is dropped
// (not an error) when the symbol is empty, qty <= 0, avg_price <= 0, or a
// cell does not parse as a number.
func parseImportRow(record map[string]string) (domain.ImportRow, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(record["symbol"]))
	if symbol == "" {
		return domain.ImportRow{}, false
	}

	// Qty cells frequently arrive as "10.0" from spreadsheet tools.
	qtyFloat, err := strconv.ParseFloat(strings.TrimSpace(record["qty"]), 64)
	if err != nil {
		return domain.ImportRow{}, false
	}
	qty := int64(qtyFloat)
	if qty <= 0 {
		return domain.ImportRow{}, false
	}

	avgPrice, err := decimal.NewFromString(strings.TrimSpace(record["avg_price"]))
	if err != nil || !avgPrice.IsPositive() {
		return domain.ImportRow{}, false
	}

	return domain.ImportRow{
		Symbol:   symbol,
		Qty:      qty,
		AvgPrice: avgPrice,
	}, true
}
