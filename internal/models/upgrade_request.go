package models

import (
	"time"

	"github.com/google/uuid"
)

type UpgradeStatus string

const (
	UpgradePending   UpgradeStatus = "pending"
	UpgradeApproved  UpgradeStatus = "approved"
	UpgradeCompleted UpgradeStatus = "completed"
	UpgradeRejected  UpgradeStatus = "rejected"
	UpgradeCancelled UpgradeStatus = "cancelled"
	UpgradeArchived  UpgradeStatus = "archived"
)

// IsTerminal reports whether the request can no longer move. Archived is a
// housekeeping label assigned by the retention sweep, behaviorally terminal.
func (s UpgradeStatus) IsTerminal() bool {
	switch s {
	case UpgradeCompleted, UpgradeRejected, UpgradeCancelled, UpgradeArchived:
		return true
	}
	return false
}

// IsOutstanding reports whether the request still occupies the single
// outstanding-upgrade slot for its organization.
func (s UpgradeStatus) IsOutstanding() bool {
	return s == UpgradePending || s == UpgradeApproved
}

type UpgradeRequest struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	OrganizationID  uuid.UUID     `json:"organization_id" db:"organization_id"`
	CurrentPlanID   uuid.UUID     `json:"current_plan_id" db:"current_plan_id"`
	RequestedPlanID uuid.UUID     `json:"requested_plan_id" db:"requested_plan_id"`
	RequestedBy     uuid.UUID     `json:"requested_by" db:"requested_by"`
	AmountDue       float64       `json:"amount_due" db:"amount_due"`
	Status          UpgradeStatus `json:"status" db:"status"`
	Notes           string        `json:"notes" db:"notes"`
	RequestedAt     time.Time     `json:"requested_at" db:"requested_at"`
	ApprovedAt      *time.Time    `json:"approved_at" db:"approved_at"`
	ApprovedBy      *uuid.UUID    `json:"approved_by" db:"approved_by"`
	CompletedAt     *time.Time    `json:"completed_at" db:"completed_at"`
	CompletedBy     *uuid.UUID    `json:"completed_by" db:"completed_by"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}
