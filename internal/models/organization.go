package models

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Subdomain string    `json:"subdomain" db:"subdomain"`
	Active    bool      `json:"active" db:"active"`
	PlanID    uuid.UUID `json:"plan_id" db:"plan_id"`
	// MaxUsersFallback is the deprecated org-level seat limit. It is only
	// consulted when the plan cannot be resolved.
	MaxUsersFallback *int      `json:"max_users_fallback,omitempty" db:"max_users_fallback"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// QuotaDetails is the snapshot the membership UI and the access layer consume.
// Seat accounting counts active plus inactive members, so a tenant cannot free
// a slot by deactivating a member.
type QuotaDetails struct {
	ActiveCount    int  `json:"active_count"`
	InactiveCount  int  `json:"inactive_count"`
	TotalCount     int  `json:"total_count"`
	MaxUsers       int  `json:"max_users"`
	AvailableSlots int  `json:"available_slots"`
	AtLimit        bool `json:"at_limit"`
	HasInactive    bool `json:"has_inactive"`
}
