package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// memoryStore is an in-memory stand-in for both repositories, with failure
// injection for the atomicity and write-back tests.
type memoryStore struct {
	mu        sync.Mutex
	seq       int64
	positions []*domain.Position
	cash      map[string]decimal.Decimal

	updateCalls int
	failUpdate  bool
	failCredit  bool
	failImport  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{cash: make(map[string]decimal.Decimal)}
}

// seed inserts a position directly, bypassing validation.
func (s *memoryStore) seed(username, symbol string, qty int64, avgCost, currentPrice decimal.Decimal) *domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	pos := &domain.Position{
		ID:           s.seq,
		Username:     username,
		Symbol:       symbol,
		Qty:          qty,
		AvgCost:      avgCost,
		CurrentPrice: currentPrice,
		CreatedAt:    time.Now(),
	}
	s.positions = append(s.positions, pos)
	return pos
}

func (s *memoryStore) find(username, symbol string) *domain.Position {
	for _, p := range s.positions {
		if p.Username == username && p.Symbol == symbol {
			return p
		}
	}
	return nil
}

func (s *memoryStore) OpenOrAccumulate(_ context.Context, username string, row domain.ImportRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(username, row), nil
}

func (s *memoryStore) openLocked(username string, row domain.ImportRow) int64 {
	if existing := s.find(username, row.Symbol); existing != nil {
		oldQty := decimal.NewFromInt(existing.Qty)
		newQty := decimal.NewFromInt(row.Qty)
		total := existing.Qty + row.Qty
		existing.AvgCost = existing.AvgCost.Mul(oldQty).
			Add(row.AvgPrice.Mul(newQty)).
			Div(decimal.NewFromInt(total))
		existing.Qty = total
		existing.CurrentPrice = row.AvgPrice
		return existing.ID
	}
	s.seq++
	now := time.Now()
	s.positions = append(s.positions, &domain.Position{
		ID:           s.seq,
		Username:     username,
		Symbol:       row.Symbol,
		Qty:          row.Qty,
		AvgCost:      row.AvgPrice,
		CurrentPrice: row.AvgPrice,
		UpdatedAt:    &now,
		CreatedAt:    now,
	})
	return s.seq
}

func (s *memoryStore) BulkImport(_ context.Context, username string, rows []domain.ImportRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failImport {
		// Simulates a rolled-back transaction: nothing applied.
		return errors.New("simulated import failure")
	}
	for _, row := range rows {
		s.openLocked(username, row)
	}
	return nil
}

func (s *memoryStore) ListOpen(_ context.Context, username string) ([]*domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Position
	for _, p := range s.positions {
		if p.Username == username && p.Qty > 0 {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memoryStore) UpdatePrices(_ context.Context, updates []domain.PriceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.failUpdate {
		return errors.New("simulated write-back failure")
	}
	for _, u := range updates {
		for _, p := range s.positions {
			if p.ID == u.PositionID {
				p.CurrentPrice = u.Price
				observed := u.ObservedAt
				p.UpdatedAt = &observed
			}
		}
	}
	return nil
}

func (s *memoryStore) Close(_ context.Context, username, symbol string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.find(username, symbol)
	if pos == nil || pos.Qty <= 0 {
		return decimal.Zero, domain.ErrPositionNotFound
	}
	if s.failCredit {
		// The real store runs delete+credit in one transaction; a credit
		// failure rolls everything back, so the fake mutates nothing.
		return decimal.Zero, errors.New("simulated credit failure")
	}

	refund := pos.CostBasis()
	kept := s.positions[:0]
	for _, p := range s.positions {
		if p != pos {
			kept = append(kept, p)
		}
	}
	s.positions = kept
	s.cash[username] = s.cash[username].Add(refund)
	return refund, nil
}

func (s *memoryStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cash[user.Username] = user.CashBalance
	return nil
}

func (s *memoryStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cash, ok := s.cash[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{Username: username, CashBalance: cash}, nil
}

func (s *memoryStore) GetCash(_ context.Context, username string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash[username], nil
}

func (s *memoryStore) CreditCash(_ context.Context, username string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cash[username] = s.cash[username].Add(amount)
	return nil
}

func (s *memoryStore) UpdatePassword(context.Context, string, string) error { return nil }
func (s *memoryStore) Rename(context.Context, string, string) error        { return nil }

// stubQuotes is a canned quote source.
type stubQuotes struct {
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func (q *stubQuotes) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	q.calls++
	if q.err != nil {
		return decimal.Zero, q.err
	}
	price, ok := q.prices[symbol]
	if !ok {
		return decimal.Zero, domain.ErrNoQuote
	}
	return price, nil
}

func (q *stubQuotes) Reload(string) {}

// stubCatalog is a canned instrument catalog.
type stubCatalog struct {
	rows [][]string
	err  error
}

func (c *stubCatalog) ReadAll() ([][]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

func (c *stubCatalog) Refresh(context.Context) error { return nil }
