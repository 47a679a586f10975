package models

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	OrganizationID uuid.UUID          `json:"organization_id" db:"organization_id"`
	PlanID         uuid.UUID          `json:"plan_id" db:"plan_id"`
	Status         SubscriptionStatus `json:"status" db:"status"`
	StartDate      time.Time          `json:"start_date" db:"start_date"`
	EndDate        *time.Time         `json:"end_date" db:"end_date"`
	PaymentStatus  string             `json:"payment_status" db:"payment_status"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

func (s *Subscription) IsActive() bool        { return s.Status.IsActive() }
func (s *Subscription) IsExpired() bool       { return s.Status.IsExpired() }
func (s *Subscription) IsInGracePeriod() bool { return s.Status.IsInGracePeriod() }

// DaysRemaining is the number of whole days until the end date, never
// negative. A subscription with no end date yet reports zero.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s.EndDate == nil {
		return 0
	}
	remaining := int(s.EndDate.Sub(now).Hours() / 24)
	if remaining < 0 {
		return 0
	}
	return remaining
}
