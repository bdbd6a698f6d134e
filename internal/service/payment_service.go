package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// CreditPackage is a purchasable credit bundle
type CreditPackage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Credits     int64  `json:"credits"`
	Price       int64  `json:"price"` // cents
	Description string `json:"description"`
	Popular     bool   `json:"popular,omitempty"`
}

// CreditPackages is the fixed catalog of purchasable bundles
var CreditPackages = []CreditPackage{
	{ID: "credits_100", Name: "100 Credits", Credits: 100, Price: 500, Description: "Perfect for testing"},
	{ID: "credits_500", Name: "500 Credits", Credits: 500, Price: 2000, Description: "Great for small projects", Popular: true},
	{ID: "credits_1000", Name: "1000 Credits", Credits: 1000, Price: 3500, Description: "Best value for regular users"},
	{ID: "credits_5000", Name: "5000 Credits", Credits: 5000, Price: 15000, Description: "For power users"},
}

// PaymentStore is the persistence contract for payments.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Payment, error)
	ClaimEvent(ctx context.Context, paymentID, eventID string) (bool, error)
	ReleaseClaim(ctx context.Context, paymentID string) error
	MarkFailed(ctx context.Context, paymentID string) error
}

// PaymentService records credit purchases and turns provider webhook
// events into ledger credits, exactly once per event.
type PaymentService struct {
	payments PaymentStore
	ledger   *LedgerService
	activity ActivityLogger
}

func NewPaymentService(payments PaymentStore, ledger *LedgerService, activity ActivityLogger) *PaymentService {
	return &PaymentService{
		payments: payments,
		ledger:   ledger,
		activity: activity,
	}
}

// Checkout registers a pending payment for a credit bundle. The provider
// confirms (or fails) it later via webhook.
func (s *PaymentService) Checkout(ctx context.Context, userID, creditPackageID string) (*models.CheckoutResponse, error) {
	var bundle *CreditPackage
	for i := range CreditPackages {
		if CreditPackages[i].ID == creditPackageID {
			bundle = &CreditPackages[i]
			break
		}
	}
	if bundle == nil {
		return nil, fmt.Errorf("credit package: %w", ErrNotFound)
	}

	payment := &models.Payment{
		UserID:        userID,
		Amount:        bundle.Price,
		Currency:      "USD",
		CreditsAmount: bundle.Credits,
		Status:        models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	logActivity(ctx, s.activity, userID, "payment.checkout.created", map[string]interface{}{
		"payment_id": payment.ID,
		"credits":    bundle.Credits,
	})

	return &models.CheckoutResponse{
		PaymentID: payment.ID,
		Credits:   bundle.Credits,
		Amount:    bundle.Price,
		Currency:  payment.Currency,
	}, nil
}

// HandleWebhook processes a provider event. Crediting is idempotent: the
// payment is claimed with the provider's event id before the ledger is
// touched, so a redelivered event finds the payment already claimed and
// is acknowledged without crediting again.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *models.PaymentWebhookEvent) error {
	log.Printf("[Payment] webhook event %s type=%s payment=%s", event.EventID, event.EventType, event.PaymentID)

	switch event.EventType {
	case "checkout.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "payment.failed":
		if err := s.payments.MarkFailed(ctx, event.PaymentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("payment: %w", ErrNotFound)
			}
			return err
		}
		return nil
	default:
		log.Printf("[Payment] unhandled webhook event type: %s", event.EventType)
		return nil
	}
}

func (s *PaymentService) handleCheckoutCompleted(ctx context.Context, event *models.PaymentWebhookEvent) error {
	payment, err := s.payments.GetByID(ctx, event.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("payment: %w", ErrNotFound)
		}
		return fmt.Errorf("load payment: %w", err)
	}

	claimed, err := s.payments.ClaimEvent(ctx, payment.ID, event.EventID)
	if err != nil {
		return err
	}
	if !claimed {
		// Duplicate delivery; the first one already credited.
		log.Printf("[Payment] event %s replayed for payment %s, skipping credit", event.EventID, payment.ID)
		return nil
	}

	_, err = s.ledger.Apply(ctx, payment.UserID, payment.CreditsAmount, models.TransactionTypePurchase,
		fmt.Sprintf("Purchased %d credits", payment.CreditsAmount), nil)
	if err != nil {
		// The claim already committed. If it stayed, the provider's
		// retry would find the payment claimed and be acknowledged
		// without ever crediting; undo the claim so the retry can.
		if relErr := s.payments.ReleaseClaim(ctx, payment.ID); relErr != nil {
			log.Printf("[Payment] COMPENSATION FAILED: release claim on payment %s: %v", payment.ID, relErr)
		}
		return fmt.Errorf("credit purchase: %w", err)
	}

	logActivity(ctx, s.activity, payment.UserID, "payment.completed", map[string]interface{}{
		"payment_id": payment.ID,
		"credits":    payment.CreditsAmount,
	})
	return nil
}

// History returns a user's payments, newest first
func (s *PaymentService) History(ctx context.Context, userID string) ([]*models.Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}
