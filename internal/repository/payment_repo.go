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

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create creates a pending payment record
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO panel.payments (id, user_id, amount, currency, credits_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		payment.ID, payment.UserID, payment.Amount, payment.Currency,
		payment.CreditsAmount, payment.Status,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `
		SELECT id, user_id, amount, currency, credits_amount, status, provider_event_id,
			   created_at, updated_at
		FROM panel.payments
		WHERE id = $1
	`

	payment := &models.Payment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&payment.ID, &payment.UserID, &payment.Amount, &payment.Currency,
		&payment.CreditsAmount, &payment.Status, &payment.ProviderEventID,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return payment, nil
}

// ListByUser retrieves a user's payments, newest first
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	query := `
		SELECT id, user_id, amount, currency, credits_amount, status, provider_event_id,
			   created_at, updated_at
		FROM panel.payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		err := rows.Scan(
			&payment.ID, &payment.UserID, &payment.Amount, &payment.Currency,
			&payment.CreditsAmount, &payment.Status, &payment.ProviderEventID,
			&payment.CreatedAt, &payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// ClaimEvent stamps a provider event id on a pending payment and marks it
// completed in one statement. It reports false when the payment is
// already claimed, which is the webhook replay case: the column carries a
// unique constraint and the conditional update cannot fire while a claim
// is held, so a duplicate delivery can never credit twice. A claim whose
// crediting failed is handed back via ReleaseClaim and may be claimed
// again by the retry.
func (r *PaymentRepository) ClaimEvent(ctx context.Context, paymentID, eventID string) (bool, error) {
	query := `
		UPDATE panel.payments
		SET provider_event_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND provider_event_id IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, eventID, models.PaymentStatusCompleted, paymentID)
	if err != nil {
		return false, fmt.Errorf("claim payment event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseClaim undoes a claim whose crediting failed afterwards: the
// event id is cleared and the payment goes back to pending, so the
// provider's redelivery of the event can claim and credit it.
func (r *PaymentRepository) ReleaseClaim(ctx context.Context, paymentID string) error {
	query := `
		UPDATE panel.payments
		SET provider_event_id = NULL, status = $1, updated_at = now()
		WHERE id = $2
	`

	tag, err := r.pool.Exec(ctx, query, models.PaymentStatusPending, paymentID)
	if err != nil {
		return fmt.Errorf("release payment claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a failed payment
func (r *PaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	query := `UPDATE panel.payments SET status = $1, updated_at = now() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, query, models.PaymentStatusFailed, paymentID)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
