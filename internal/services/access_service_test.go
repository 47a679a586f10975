package services

import (
	"testing"

	"plangate/internal/models"

	"github.com/stretchr/testify/assert"
)

func testAccessService() *AccessService {
	return NewAccessService(AccessConfig{
		AlwaysAllowedModules: []string{"health", "auth"},
		BillingModules:       []string{"billing", "settings"},
		BillingRedirect:      "/billing/upgrade",
		SupportContact:       "support@plangate.io",
	})
}

func subWithPhase(phase models.Phase) *models.Subscription {
	return &models.Subscription{Status: models.NewStatus("basic", phase)}
}

func TestCheckAccess_NilSubscription(t *testing.T) {
	svc := testAccessService()

	decision := svc.CheckAccess(nil, nil, "reports")
	assert.False(t, decision.HasAccess)
	assert.Equal(t, AccessNone, decision.Level)
	assert.Contains(t, decision.Message, "support@plangate.io")
	assert.Equal(t, "/billing/upgrade", decision.RedirectTarget)
}

func TestCheckAccess_ActiveSubscription(t *testing.T) {
	svc := testAccessService()

	decision := svc.CheckAccess(subWithPhase(models.PhaseActive), nil, "reports")
	assert.True(t, decision.HasAccess)
	assert.Equal(t, AccessFull, decision.Level)
	assert.Empty(t, decision.Message)
}

func TestCheckAccess_GraceKeepsFullAccessWithWarning(t *testing.T) {
	svc := testAccessService()

	decision := svc.CheckAccess(subWithPhase(models.PhaseGrace), nil, "reports")
	assert.True(t, decision.HasAccess)
	assert.Equal(t, AccessFull, decision.Level)
	assert.Contains(t, decision.Message, "grace period")
}

func TestCheckAccess_ExpiredBlocksNonBillingModules(t *testing.T) {
	svc := testAccessService()

	decision := svc.CheckAccess(subWithPhase(models.PhaseExpired), nil, "reports")
	assert.False(t, decision.HasAccess)
	assert.Equal(t, AccessNone, decision.Level)
	assert.Equal(t, "/billing/upgrade", decision.RedirectTarget)
}

func TestCheckAccess_ExpiredKeepsBillingReachable(t *testing.T) {
	svc := testAccessService()

	for _, module := range []string{"billing", "settings"} {
		decision := svc.CheckAccess(subWithPhase(models.PhaseExpired), nil, module)
		assert.True(t, decision.HasAccess, module)
		assert.Equal(t, AccessLimited, decision.Level, module)
	}
}

func TestCheckAccess_OverQuotaWarnsWithoutLockout(t *testing.T) {
	svc := testAccessService()
	quota := &models.QuotaDetails{TotalCount: 5, MaxUsers: 3}

	decision := svc.CheckAccess(subWithPhase(models.PhaseActive), quota, "reports")
	assert.True(t, decision.HasAccess)
	assert.Equal(t, AccessFull, decision.Level)
	assert.Contains(t, decision.Message, "5 members")
}

func TestCheckAccess_GraceAndOverQuotaCombineWarnings(t *testing.T) {
	svc := testAccessService()
	quota := &models.QuotaDetails{TotalCount: 4, MaxUsers: 3}

	decision := svc.CheckAccess(subWithPhase(models.PhaseGrace), quota, "reports")
	assert.True(t, decision.HasAccess)
	assert.Contains(t, decision.Message, "grace period")
	assert.Contains(t, decision.Message, "4 members")
}

func TestIsAlwaysAllowed(t *testing.T) {
	svc := testAccessService()
	assert.True(t, svc.IsAlwaysAllowed("health"))
	assert.True(t, svc.IsAlwaysAllowed("auth"))
	assert.False(t, svc.IsAlwaysAllowed("reports"))
}
