package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentTypeTrialActivation = "trial_activation"
	PaymentTypeUpgrade         = "upgrade"
	PaymentTypeRenewal         = "renewal"

	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
)

// Payment is an append-only ledger entry tied to a subscription. Entries are
// never updated; reconciliation may delete later duplicates, never originals.
type Payment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id" db:"subscription_id"`
	Amount         float64   `json:"amount" db:"amount"`
	Type           string    `json:"type" db:"type"`
	Status         string    `json:"status" db:"status"`
	Description    string    `json:"description" db:"description"`
	DaysAdded      int       `json:"days_added" db:"days_added"`
	ReceiptObject  *string   `json:"receipt_object,omitempty" db:"receipt_object"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
