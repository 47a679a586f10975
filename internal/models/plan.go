package models

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Label           string    `json:"label" db:"label"`
	Price           float64   `json:"price" db:"price"`
	MaxUsers        int       `json:"max_users" db:"max_users"`
	TrialDays       int       `json:"trial_days" db:"trial_days"`
	GracePeriodDays int       `json:"grace_period_days" db:"grace_period_days"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasGracePeriod reports whether expiry of this plan passes through a grace
// window before access is cut off. Trial plans never have one.
func (p *Plan) HasGracePeriod() bool {
	return p.GracePeriodDays > 0
}
