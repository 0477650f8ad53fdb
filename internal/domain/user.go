package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a user ledger entry. CashBalance is the simulated cash
// the user can deploy; it is credited by position closes and never touched
// by the valuation read path.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // Never expose password hash in JSON
	CashBalance  decimal.Decimal `json:"cash_balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
