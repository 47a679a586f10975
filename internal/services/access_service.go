package services

import (
	"fmt"

	"plangate/internal/models"
)

type AccessLevel string

const (
	AccessFull    AccessLevel = "full"
	AccessLimited AccessLevel = "limited"
	AccessNone    AccessLevel = "none"
)

// AccessDecision is the verdict the request middleware acts on.
type AccessDecision struct {
	HasAccess      bool        `json:"has_access"`
	Level          AccessLevel `json:"level"`
	Message        string      `json:"message,omitempty"`
	RedirectTarget string      `json:"redirect_target,omitempty"`
}

// AccessConfig is passed in at construction. Nothing here is read from
// ambient globals.
type AccessConfig struct {
	// AlwaysAllowedModules bypass evaluation entirely (health, auth, ...).
	// The middleware checks these before calling CheckAccess.
	AlwaysAllowedModules []string
	// BillingModules stay reachable on an expired subscription so the tenant
	// can act to resolve billing.
	BillingModules  []string
	BillingRedirect string
	SupportContact  string
}

// AccessService evaluates subscription state against a requested module.
// CheckAccess is pure: every input is handed in, nothing is loaded.
type AccessService struct {
	alwaysAllowed map[string]bool
	billing       map[string]bool
	config        AccessConfig
}

func NewAccessService(config AccessConfig) *AccessService {
	s := &AccessService{
		alwaysAllowed: make(map[string]bool, len(config.AlwaysAllowedModules)),
		billing:       make(map[string]bool, len(config.BillingModules)),
		config:        config,
	}
	for _, m := range config.AlwaysAllowedModules {
		s.alwaysAllowed[m] = true
	}
	for _, m := range config.BillingModules {
		s.billing[m] = true
	}
	return s
}

func (s *AccessService) IsAlwaysAllowed(module string) bool {
	return s.alwaysAllowed[module]
}

// CheckAccess combines subscription status and quota standing into a verdict.
// Over-limit tenants are warned, never locked out retroactively; only new
// member creation is blocked, and that happens in OrganizationService.
func (s *AccessService) CheckAccess(sub *models.Subscription, quota *models.QuotaDetails, module string) AccessDecision {
	if sub == nil {
		return AccessDecision{
			HasAccess:      false,
			Level:          AccessNone,
			Message:        fmt.Sprintf("No subscription found for your organization. Contact %s.", s.config.SupportContact),
			RedirectTarget: s.config.BillingRedirect,
		}
	}

	if sub.IsExpired() {
		if s.billing[module] {
			return AccessDecision{
				HasAccess: true,
				Level:     AccessLimited,
				Message:   "Your subscription has expired. Billing and account settings remain available.",
			}
		}
		return AccessDecision{
			HasAccess:      false,
			Level:          AccessNone,
			Message:        "Your subscription has expired. Renew or upgrade to regain access.",
			RedirectTarget: s.config.BillingRedirect,
		}
	}

	decision := AccessDecision{HasAccess: true, Level: AccessFull}
	if sub.IsInGracePeriod() {
		decision.Message = "Your subscription has expired and is in its grace period. Renew soon to keep access."
	}
	if quota != nil && quota.TotalCount > quota.MaxUsers {
		over := fmt.Sprintf("Your organization has %d members but the plan allows %d. New members cannot be added.", quota.TotalCount, quota.MaxUsers)
		if decision.Message != "" {
			decision.Message += " " + over
		} else {
			decision.Message = over
		}
	}
	return decision
}
