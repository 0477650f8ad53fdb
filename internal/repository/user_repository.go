package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, cash_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4::NUMERIC, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CashBalance.String(),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByUsername retrieves a user by username
func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, password_hash, cash_balance::TEXT, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	user := &domain.User{}
	var cash string
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&cash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	if user.CashBalance, err = decimal.NewFromString(cash); err != nil {
		return nil, fmt.Errorf("failed to parse cash balance: %w", err)
	}

	return user, nil
}

// GetCash retrieves the user's cash balance. An unknown user reads as zero
// so a portfolio view never fails on a missing ledger row.
func (r *UserRepositoryImpl) GetCash(ctx context.Context, username string) (decimal.Decimal, error) {
	var cash string
	err := r.db.QueryRow(ctx,
		`SELECT cash_balance::TEXT FROM users WHERE username = $1`,
		username,
	).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get cash balance: %w", err)
	}

	balance, err := decimal.NewFromString(cash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse cash balance: %w", err)
	}
	return balance, nil
}

// CreditCash atomically adds amount to the user's cash balance
func (r *UserRepositoryImpl) CreditCash(ctx context.Context, username string, amount decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET cash_balance = cash_balance + $1::NUMERIC, updated_at = NOW() WHERE username = $2`,
		amount.String(), username,
	)
	if err != nil {
		return fmt.Errorf("failed to credit cash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE username = $2`,
		passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Rename changes the username
func (r *UserRepositoryImpl) Rename(ctx context.Context, username, newUsername string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET username = $1, updated_at = NOW() WHERE username = $2`,
		newUsername, username,
	)
	if err != nil {
		return fmt.Errorf("failed to rename user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
