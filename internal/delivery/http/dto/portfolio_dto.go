package dto

import (
	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// PortfolioResponse is the fixed contract of the portfolio read endpoint.
// Closed is always empty: realized history is out of scope, but the field
// stays for client compatibility.
type PortfolioResponse struct {
	Cash   decimal.Decimal             `json:"cash"`
	Open   []*domain.ValuationSnapshot `json:"open"`
	Closed []struct{}                  `json:"closed"`
}

// UploadResponse reports how many rows a bulk import applied.
type UploadResponse struct {
	Rows int `json:"rows"`
}

// CancelResponse reports the refund credited by a position cancel.
type CancelResponse struct {
	Success bool            `json:"success"`
	Refund  decimal.Decimal `json:"refund"`
}
