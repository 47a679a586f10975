package handlers

import (
	"net/http"
	"time"

	"plangate/internal/common"
	"plangate/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers exposes the caller's subscription standing
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// GetCurrent handles GET /subscription. Resolves from the caller's
// organization; a missing subscription is healed into a trial.
func (h *SubscriptionHandlers) GetCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	orgID, ok := common.GetOrganizationIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	sub, err := h.subscriptionService.EnsureSubscription(ctx, orgID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve subscription")
	}

	now := time.Now().UTC()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscription":   sub,
		"days_remaining": sub.DaysRemaining(now),
	})
}

// Refresh handles POST /subscription/refresh: recompute the caller's status
// on demand instead of waiting for the daily sweep.
func (h *SubscriptionHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	orgID, ok := common.GetOrganizationIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	sub, err := h.subscriptionService.EnsureSubscription(ctx, orgID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve subscription")
	}

	changed, err := h.subscriptionService.UpdateStatus(ctx, sub, time.Now().UTC())
	if err != nil {
		return common.SendServerError(c, "Failed to refresh subscription status")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscription": sub,
		"changed":      changed,
	})
}

// DryRun handles GET /subscriptions/transitions (operator only): reports what
// the next sweep would change without persisting anything.
func (h *SubscriptionHandlers) DryRun(c echo.Context) error {
	transitions, err := h.subscriptionService.DryRunStatuses(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return common.SendServerError(c, "Failed to compute transitions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"transitions": transitions,
		"count":       len(transitions),
	})
}

// Sweep handles POST /subscriptions/sweep (operator only): runs the status
// sweep immediately.
func (h *SubscriptionHandlers) Sweep(c echo.Context) error {
	report, err := h.subscriptionService.SweepStatuses(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return common.SendServerError(c, "Status sweep failed")
	}
	return c.JSON(http.StatusOK, report)
}
