package services

import "errors"

// Expected business failures. Handlers map these to 4xx responses; anything
// else coming out of a service is a storage or consistency fault.
var (
	ErrNoTrialPlan             = errors.New("no trial plan configured")
	ErrPlanInactive            = errors.New("requested plan is not active")
	ErrPlanNotResolvable       = errors.New("subscription plan cannot be resolved")
	ErrQuotaExceeded           = errors.New("member quota exceeded for organization plan")
	ErrDowngradeNotAllowed     = errors.New("requested plan is not an upgrade")
	ErrDuplicatePendingUpgrade = errors.New("an upgrade request is already outstanding")
	ErrUpgradeAlreadyFinal     = errors.New("upgrade request is already in a terminal state")
	ErrInvalidTransition       = errors.New("invalid upgrade status transition")
	ErrMemberAlreadyActive     = errors.New("member is already active")
	ErrInvalidMember           = errors.New("member fails organization validation")
)
