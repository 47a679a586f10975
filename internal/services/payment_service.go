package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
)

// PaymentService records manual payments against the append-only ledger and
// runs the duplicate reconciliation pass. There is no gateway integration;
// operators record money events by hand.
type PaymentService interface {
	RecordManual(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	FindDuplicates(ctx context.Context) ([]*models.Payment, error)
	ReconcileDuplicates(ctx context.Context) (int64, error)
}

type RecordPaymentRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Amount         float64   `json:"amount"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	DaysAdded      int       `json:"days_added"`
	ReceiptObject  *string   `json:"receipt_object"`
}

type paymentService struct {
	paymentRepo      repositories.PaymentRepository
	subscriptionRepo repositories.SubscriptionRepository
	db               repositories.Database
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	db repositories.Database,
) PaymentService {
	return &paymentService{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		db:               db,
	}
}

func validPaymentType(t string) bool {
	switch t {
	case models.PaymentTypeTrialActivation, models.PaymentTypeUpgrade, models.PaymentTypeRenewal:
		return true
	}
	return false
}

func (s *paymentService) RecordManual(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error) {
	if req.Amount < 0 {
		return nil, errors.New("amount cannot be negative")
	}
	if !validPaymentType(req.Type) {
		return nil, fmt.Errorf("invalid payment type %q", req.Type)
	}
	if req.DaysAdded < 0 {
		return nil, errors.New("days_added cannot be negative")
	}
	if _, err := s.subscriptionRepo.GetByID(ctx, req.SubscriptionID); err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Type:           req.Type,
		Status:         models.PaymentStatusCompleted,
		Description:    req.Description,
		DaysAdded:      req.DaysAdded,
		ReceiptObject:  req.ReceiptObject,
	}
	if err := s.paymentRepo.Create(ctx, s.db, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.paymentRepo.ListBySubscription(ctx, subscriptionID, limit, offset)
}

func (s *paymentService) FindDuplicates(ctx context.Context) ([]*models.Payment, error) {
	return s.paymentRepo.FindDuplicates(ctx)
}

// ReconcileDuplicates deletes confirmed duplicates, keeping originals.
func (s *paymentService) ReconcileDuplicates(ctx context.Context) (int64, error) {
	removed, err := s.paymentRepo.RemoveDuplicates(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("payment reconciliation removed %d duplicate entries", removed)
	}
	return removed, nil
}
