package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sitecraft-ai/sitecraft-backend/internal/credits/domain"
)

// CreditRepository stores per-user credit balances.
type CreditRepository struct {
	db *sql.DB
}

func NewCreditRepository(db *sql.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Ensure returns the user's account, creating it with the signup grant on
// first access.
func (r *CreditRepository) Ensure(ctx context.Context, userID string, signupGrant int) (*domain.Account, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const q = `
INSERT INTO user_credits (user_id, balance)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING user_id, balance, updated_at;
`
	var a domain.Account
	if err := r.db.QueryRowContext(ctx, q, userID, signupGrant).Scan(&a.UserID, &a.Balance, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("ensure credit account: %w", err)
	}
	return &a, nil
}

// Spend subtracts cost when the balance is at least minRequired. The check and
// the decrement are one statement so concurrent spends cannot overdraw.
func (r *CreditRepository) Spend(ctx context.Context, userID string, cost, minRequired int) (int, error) {
	const q = `
UPDATE user_credits
SET balance = balance - $2, updated_at = now()
WHERE user_id = $1 AND balance >= $3 AND balance - $2 >= 0
RETURNING balance;
`
	var balance int
	err := r.db.QueryRowContext(ctx, q, userID, cost, minRequired).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("spend credits: %w", err)
	}
	return balance, nil
}

// Add credits n to an existing account.
func (r *CreditRepository) Add(ctx context.Context, userID string, n int) (int, error) {
	const q = `
UPDATE user_credits
SET balance = balance + $2, updated_at = now()
WHERE user_id = $1
RETURNING balance;
`
	var balance int
	err := r.db.QueryRowContext(ctx, q, userID, n).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return balance, nil
}
