package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// LedgerStore is the persistence contract for the credit ledger: an
// atomic append that also refreshes the derived balance.
type LedgerStore interface {
	Apply(ctx context.Context, userID string, amount int64, txType, description string, relatedServerID *string) (*models.CreditTransaction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.CreditTransaction, error)
}

// LedgerService is the single sanctioned path to move a user's credits.
// Every balance change, whatever its business reason, becomes one chained
// ledger entry.
type LedgerService struct {
	store LedgerStore
}

func NewLedgerService(store LedgerStore) *LedgerService {
	return &LedgerService{store: store}
}

// Apply records a signed credit movement. A debit that would take the
// balance below zero fails with ErrInsufficientFunds and writes nothing.
func (s *LedgerService) Apply(ctx context.Context, userID string, amount int64, txType, description string, relatedServerID *string) (*models.CreditTransaction, error) {
	entry, err := s.store.Apply(ctx, userID, amount, txType, description, relatedServerID)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("apply transaction: %w", err)
	}

	log.Printf("[Ledger] user=%s %s %+d credits (balance %d -> %d)",
		userID, txType, amount, entry.BalanceBefore, entry.BalanceAfter)
	return entry, nil
}

// History returns a user's ledger entries, newest first
func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]*models.CreditTransaction, error) {
	entries, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return entries, nil
}
