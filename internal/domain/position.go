package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceDriftEpsilon is the smallest price move worth persisting. A freshly
// observed quote is written back to storage only when it differs from the
// stored price by at least this much; a delta exactly at the threshold
// triggers the write.
var PriceDriftEpsilon = decimal.New(1, -4) // 1e-4

// Position represents one open holding. A row with Qty <= 0 is considered
// closed and never surfaces from reads.
type Position struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Symbol       string          `json:"symbol"`
	Qty          int64           `json:"qty"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsOpen reports whether the position still holds quantity.
func (p *Position) IsOpen() bool {
	return p.Qty > 0
}

// CostBasis returns the total acquisition cost (qty x avg cost).
func (p *Position) CostBasis() decimal.Decimal {
	return p.AvgCost.Mul(decimal.NewFromInt(p.Qty))
}

// GrossPnL calculates the absolute profit/loss at the given price.
func (p *Position) GrossPnL(currentPrice decimal.Decimal) decimal.Decimal {
	return currentPrice.Sub(p.AvgCost).Mul(decimal.NewFromInt(p.Qty))
}

// UnitPnL calculates the per-share profit/loss at the given price.
func (p *Position) UnitPnL(currentPrice decimal.Decimal) decimal.Decimal {
	return currentPrice.Sub(p.AvgCost)
}

// PnLRatio calculates the relative profit/loss against the cost basis.
// A zero cost basis yields 0, never a division fault.
func (p *Position) PnLRatio(currentPrice decimal.Decimal) decimal.Decimal {
	if p.AvgCost.IsZero() {
		return decimal.Zero
	}
	return currentPrice.Sub(p.AvgCost).Div(p.AvgCost)
}

// FallbackPrice returns the price to value the position at when no live
// quote is available: the last stored price, or the average cost when no
// price was ever observed. The result is zero only when cost itself is zero.
func (p *Position) FallbackPrice() decimal.Decimal {
	if p.CurrentPrice.IsPositive() {
		return p.CurrentPrice
	}
	return p.AvgCost
}

// ValuationSnapshot is the derived per-position view produced fresh on every
// read. It is never persisted; monetary fields are rounded to 2 decimal
// places and ratios to 4 for presentation.
type ValuationSnapshot struct {
	Symbol       string          `json:"symbol"`
	Qty          int64           `json:"qty"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PnL          decimal.Decimal `json:"pnl"`
	UnitPnL      decimal.Decimal `json:"unit_pnl"`
	PnLRatio     decimal.Decimal `json:"pnl_ratio"`
	PnLPercent   decimal.Decimal `json:"pnl_percent"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// PortfolioValuation is the full read-path output for one user.
type PortfolioValuation struct {
	Cash decimal.Decimal      `json:"cash"`
	Open []*ValuationSnapshot `json:"open"`
}

// ImportRow is one validated row of a bulk position import.
type ImportRow struct {
	Symbol   string
	Qty      int64
	AvgPrice decimal.Decimal
}

// PriceUpdate carries one drift write-back for the batch update.
type PriceUpdate struct {
	PositionID int64
	Price      decimal.Decimal
	ObservedAt time.Time
}
