package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// hundred scales a ratio to a percentage for presentation.
var hundred = decimal.NewFromInt(100)

// ValuationService computes live portfolio valuations. It reads positions,
// polls the quote source per symbol, and opportunistically persists price
// drift back to storage on the way out.
type ValuationService struct {
	portfolioRepo domain.PortfolioRepository
	userRepo      domain.UserRepository
	quotes        domain.QuoteSource
	quoteTimeout  time.Duration
}

// NewValuationService creates a new ValuationService
func NewValuationService(
	portfolioRepo domain.PortfolioRepository,
	userRepo domain.UserRepository,
	quotes domain.QuoteSource,
	quoteTimeout time.Duration,
) *ValuationService {
	return &ValuationService{
		portfolioRepo: portfolioRepo,
		userRepo:      userRepo,
		quotes:        quotes,
		quoteTimeout:  quoteTimeout,
	}
}

// Valuate computes cash plus fresh P&L snapshots for every open position.
// A quote failure for one symbol degrades that position to its fallback
// price and never aborts the rest. The drift write-back is best-effort: if
// it fails the response still carries the freshly computed values.
func (s *ValuationService) Valuate(ctx context.Context, username string) (*domain.PortfolioValuation, error) {
	cash, err := s.userRepo.GetCash(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to read cash balance: %w", err)
	}

	positions, err := s.portfolioRepo.ListOpen(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list open positions: %w", err)
	}

	snapshots := make([]*domain.ValuationSnapshot, 0, len(positions))
	var updates []domain.PriceUpdate
	now := time.Now()

	for _, pos := range positions {
		live, ok := s.lookupPrice(ctx, pos.Symbol)
		if !ok {
			live = pos.FallbackPrice()
		}

		// Full precision throughout; rounding is presentation only.
		ratio := pos.PnLRatio(live)
		snapshots = append(snapshots, &domain.ValuationSnapshot{
			Symbol:       pos.Symbol,
			Qty:          pos.Qty,
			AvgPrice:     pos.AvgCost.Round(2),
			CurrentPrice: live.Round(2),
			PnL:          pos.GrossPnL(live).Round(2),
			UnitPnL:      pos.UnitPnL(live).Round(2),
			PnLRatio:     ratio.Round(4),
			PnLPercent:   ratio.Mul(hundred).Round(2),
			UpdatedAt:    pos.UpdatedAt,
		})

		if live.Sub(pos.CurrentPrice).Abs().GreaterThanOrEqual(domain.PriceDriftEpsilon) {
			updates = append(updates, domain.PriceUpdate{
				PositionID: pos.ID,
				Price:      live,
				ObservedAt: now,
			})
		}
	}

	if len(updates) > 0 {
		if err := s.portfolioRepo.UpdatePrices(ctx, updates); err != nil {
			log.Printf("[WARN] Price write-back failed for %s: %v", username, err)
		}
	}

	return &domain.PortfolioValuation{
		Cash: cash.Round(2),
		Open: snapshots,
	}, nil
}

// lookupPrice asks the quote source for a price under a bounded timeout.
// Any failure reads as "no price"; only unexpected errors are logged.
func (s *ValuationService) lookupPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	quoteCtx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
	defer cancel()

	price, err := s.quotes.GetPrice(quoteCtx, symbol)
	if err != nil {
		if !errors.Is(err, domain.ErrNoQuote) {
			log.Printf("[WARN] Quote lookup failed for %s: %v", symbol, err)
		}
		return decimal.Zero, false
	}
	if !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}
