package domain

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
)

// QuoteSource defines the interface for live price lookups. Implementations
// must bound each call with a short timeout and return ErrNoQuote when the
// upstream has no usable price; they never fail valuation as a whole.
type QuoteSource interface {
	// GetPrice fetches the current price for a single symbol.
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// Reload swaps the upstream access token at runtime.
	Reload(token string)
}

// InstrumentCatalog defines the interface for the external reference table
// of tradable symbols. It is read-only to the core and refreshed out-of-band.
type InstrumentCatalog interface {
	// ReadAll returns all catalog rows, header first, or
	// ErrCatalogUnavailable when the catalog has not been fetched.
	ReadAll() ([][]string, error)

	// Refresh downloads the latest catalog from upstream.
	Refresh(ctx context.Context) error
}

// ValuationService defines the portfolio read path
type ValuationService interface {
	// Valuate computes cash plus fresh P&L snapshots for all open positions.
	Valuate(ctx context.Context, username string) (*PortfolioValuation, error)
}

// PositionService defines the position mutation entry points
type PositionService interface {
	// ImportWorkbook validates and inserts positions from an uploaded
	// spreadsheet, returning the number of rows applied.
	ImportWorkbook(ctx context.Context, username string, file io.Reader) (int, error)

	// Cancel closes the position and refunds its cost basis to cash.
	Cancel(ctx context.Context, username, symbol string) (decimal.Decimal, error)
}

// ExportService defines the snapshot download path
type ExportService interface {
	// ExportWorkbook renders the user's holdings into a workbook.
	ExportWorkbook(ctx context.Context, username string) ([]byte, error)
}
