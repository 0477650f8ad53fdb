package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PortfolioRepository defines the interface for position storage operations
type PortfolioRepository interface {
	// OpenOrAccumulate inserts a new position or merges into the existing
	// open row for (username, symbol): quantities sum, average cost is
	// weighted by quantity. Returns the position ID.
	OpenOrAccumulate(ctx context.Context, username string, row ImportRow) (int64, error)

	// BulkImport applies a batch of import rows in a single transaction.
	// A failure partway rolls the whole batch back.
	BulkImport(ctx context.Context, username string, rows []ImportRow) error

	// ListOpen retrieves all open positions (qty > 0) for a user.
	ListOpen(ctx context.Context, username string) ([]*Position, error)

	// UpdatePrices writes back observed price drift for a batch of
	// positions, stamping the update time.
	UpdatePrices(ctx context.Context, updates []PriceUpdate) error

	// Close deletes the user's open position for symbol and credits the
	// cost-basis refund (qty x avg cost) to the user's cash balance, both
	// in one transaction. Returns the refund amount, or ErrPositionNotFound.
	Close(ctx context.Context, username, symbol string) (decimal.Decimal, error)
}

// UserRepository defines the interface for user ledger operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetCash retrieves the user's cash balance. An unknown user reads as
	// zero cash rather than an error.
	GetCash(ctx context.Context, username string) (decimal.Decimal, error)

	// CreditCash atomically adds amount to the user's cash balance.
	CreditCash(ctx context.Context, username string, amount decimal.Decimal) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// Rename changes the username (email update flow).
	Rename(ctx context.Context, username, newUsername string) error
}
