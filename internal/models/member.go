package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is a closed set of roles. Platform operators are not bound to an
// organization and are exempt from quota and subscription checks; the other
// two roles always carry an organization.
type MemberRole string

const (
	RolePlatformOperator MemberRole = "platform_operator"
	RoleOrgAdmin         MemberRole = "org_admin"
	RoleOrgMember        MemberRole = "org_member"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RolePlatformOperator, RoleOrgAdmin, RoleOrgMember:
		return true
	}
	return false
}

type Member struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID *uuid.UUID `json:"organization_id" db:"organization_id"` // nil only for platform operators
	Email          string     `json:"email" db:"email"`
	DisplayName    string     `json:"display_name" db:"display_name"`
	Role           MemberRole `json:"role" db:"role"`
	Active         bool       `json:"active" db:"active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

func (m *Member) IsPlatformOperator() bool {
	return m.Role == RolePlatformOperator
}
