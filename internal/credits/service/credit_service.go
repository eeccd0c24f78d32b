package service

import (
	"context"

	"github.com/sitecraft-ai/sitecraft-backend/internal/credits/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
)

// Repository is the credit balance store.
type Repository interface {
	Ensure(ctx context.Context, userID string, signupGrant int) (*domain.Account, error)
	Spend(ctx context.Context, userID string, cost, minRequired int) (int, error)
	Add(ctx context.Context, userID string, n int) (int, error)
}

// Options mirrors config.CreditsConfig.
type Options struct {
	SignupGrant    int
	GenerationCost int
	MinRequired    int
}

// CreditService gates paid actions on the user's balance.
type CreditService struct {
	repo Repository
	opts Options
}

func NewCreditService(repo Repository, opts Options) *CreditService {
	return &CreditService{repo: repo, opts: opts}
}

// Balance returns the user's account, granting signup credits on first access.
func (s *CreditService) Balance(ctx context.Context, userID string) (*domain.Account, error) {
	return s.repo.Ensure(ctx, userID, s.opts.SignupGrant)
}

// Spend charges one generation. It fails with ErrInsufficientCredits when
// the balance is below MinRequired.
func (s *CreditService) Spend(ctx context.Context, userID string) (int, error) {
	if _, err := s.repo.Ensure(ctx, userID, s.opts.SignupGrant); err != nil {
		return 0, err
	}
	return s.repo.Spend(ctx, userID, s.opts.GenerationCost, s.opts.MinRequired)
}

// Refund returns the cost of one generation after a downstream failure.
func (s *CreditService) Refund(ctx context.Context, userID string) error {
	if s.opts.GenerationCost == 0 {
		return nil
	}
	balance, err := s.repo.Add(ctx, userID, s.opts.GenerationCost)
	if err != nil {
		return err
	}
	l := logging.FromContext(ctx, "credits")
	l.Info().Str("user_id", userID).Int("balance", balance).Msg("generation refunded")
	return nil
}

// Grant adds n credits. Operators top up accounts through `worker grant`.
func (s *CreditService) Grant(ctx context.Context, userID string, n int) (int, error) {
	if n <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if _, err := s.repo.Ensure(ctx, userID, s.opts.SignupGrant); err != nil {
		return 0, err
	}
	return s.repo.Add(ctx, userID, n)
}
