package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

// ErrInsufficientBalance is returned when a debit would take a user's
// balance below zero. Nothing is written in that case.
var ErrInsufficientBalance = errors.New("insufficient balance")

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Apply records a signed credit movement for a user. The user row is
// locked for the duration, the ledger entry and the derived credits value
// are written in the same transaction, so concurrent movements against
// one user serialize and the balance chain stays unbroken. This is the
// only code path that writes users.credits.
func (r *TransactionRepository) Apply(ctx context.Context, userID string, amount int64, txType, description string, relatedServerID *string) (*models.CreditTransaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceBefore int64
	err = tx.QueryRow(ctx,
		`SELECT credits FROM panel.users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balanceBefore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock user balance: %w", err)
	}

	balanceAfter := balanceBefore + amount
	if balanceAfter < 0 {
		return nil, ErrInsufficientBalance
	}

	entry := &models.CreditTransaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          amount,
		Type:            txType,
		Description:     description,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		RelatedServerID: relatedServerID,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO panel.credit_transactions (
			id, user_id, amount, type, description,
			balance_before, balance_after, related_server_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		entry.ID, entry.UserID, entry.Amount, entry.Type, entry.Description,
		entry.BalanceBefore, entry.BalanceAfter, entry.RelatedServerID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE panel.users SET credits = $1, updated_at = now() WHERE id = $2`,
		balanceAfter, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user credits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return entry, nil
}

// ListByUser retrieves a user's ledger entries, newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, amount, type, description,
			   balance_before, balance_after, related_server_id, created_at
		FROM panel.credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var entries []*models.CreditTransaction
	for rows.Next() {
		entry := &models.CreditTransaction{}
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Amount, &entry.Type, &entry.Description,
			&entry.BalanceBefore, &entry.BalanceAfter, &entry.RelatedServerID, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
