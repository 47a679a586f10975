package handlers

import (
	"errors"
	"net/http"

	"plangate/internal/common"
	"plangate/internal/services"

	"github.com/labstack/echo/v4"
)

// UpgradeHandlers handles the change-of-plan workflow. Submission and listing
// are tenant-facing; approve/complete/reject are operator surfaces.
type UpgradeHandlers struct {
	upgradeService services.UpgradeService
}

func NewUpgradeHandlers(upgradeService services.UpgradeService) *UpgradeHandlers {
	return &UpgradeHandlers{upgradeService: upgradeService}
}

// Submit handles POST /upgrades
func (h *UpgradeHandlers) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	memberID, ok := common.GetMemberIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	orgID, ok := common.GetOrganizationIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var body struct {
		RequestedPlanID string `json:"requested_plan_id"`
		Notes           string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	planID, err := common.ValidateUUID(body.RequestedPlanID, "requested plan id")
	if err != nil {
		return common.SendValidationError(c, "requested_plan_id", err.Error())
	}

	upgrade, err := h.upgradeService.Submit(ctx, &services.SubmitUpgradeRequest{
		OrganizationID:  orgID,
		RequestedPlanID: planID,
		RequestedBy:     memberID,
		Notes:           body.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicatePendingUpgrade):
			return common.SendConflictError(c, err.Error())
		case errors.Is(err, services.ErrDowngradeNotAllowed),
			errors.Is(err, services.ErrPlanInactive),
			errors.Is(err, services.ErrInvalidMember):
			return common.SendClientError(c, err.Error())
		}
		return common.SendServerError(c, "Failed to submit upgrade request")
	}
	return c.JSON(http.StatusCreated, upgrade)
}

// List handles GET /upgrades for the caller's organization.
func (h *UpgradeHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	orgID, ok := common.GetOrganizationIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	limit, offset := parsePagination(c)
	upgrades, err := h.upgradeService.ListByOrganization(ctx, orgID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list upgrade requests")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"upgrade_requests": upgrades,
		"limit":            limit,
		"offset":           offset,
	})
}

// ListPending handles GET /upgrades/pending (operator only): the review queue.
func (h *UpgradeHandlers) ListPending(c echo.Context) error {
	limit, offset := parsePagination(c)
	upgrades, err := h.upgradeService.ListPending(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list pending upgrades")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"upgrade_requests": upgrades,
		"limit":            limit,
		"offset":           offset,
	})
}

// Get handles GET /upgrades/:id
func (h *UpgradeHandlers) Get(c echo.Context) error {
	requestID, err := common.ValidateUUID(c.Param("id"), "upgrade request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	upgrade, err := h.upgradeService.GetByID(c.Request().Context(), requestID)
	if err != nil {
		return common.SendNotFoundError(c, "Upgrade request")
	}
	return c.JSON(http.StatusOK, upgrade)
}

// Approve handles POST /upgrades/:id/approve (operator only)
func (h *UpgradeHandlers) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	requestID, err := common.ValidateUUID(c.Param("id"), "upgrade request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	operatorID, ok := common.GetMemberIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.upgradeService.Approve(ctx, requestID, operatorID); err != nil {
		if errors.Is(err, services.ErrUpgradeAlreadyFinal) {
			return common.SendConflictError(c, err.Error())
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Upgrade request approved",
	})
}

// Complete handles POST /upgrades/:id/complete (operator only): the operator
// confirms payment was received, which swaps the plan and opens a paid term.
func (h *UpgradeHandlers) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	requestID, err := common.ValidateUUID(c.Param("id"), "upgrade request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	operatorID, ok := common.GetMemberIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	upgrade, err := h.upgradeService.Complete(ctx, requestID, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUpgradeAlreadyFinal):
			return common.SendConflictError(c, err.Error())
		case errors.Is(err, services.ErrPlanInactive), errors.Is(err, services.ErrInvalidTransition):
			return common.SendClientError(c, err.Error())
		}
		return common.SendServerError(c, "Failed to complete upgrade")
	}
	return c.JSON(http.StatusOK, upgrade)
}

// Reject handles POST /upgrades/:id/reject (operator only)
func (h *UpgradeHandlers) Reject(c echo.Context) error {
	requestID, err := common.ValidateUUID(c.Param("id"), "upgrade request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.upgradeService.Reject(c.Request().Context(), requestID, body.Reason); err != nil {
		if errors.Is(err, services.ErrUpgradeAlreadyFinal) {
			return common.SendConflictError(c, err.Error())
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Upgrade request rejected",
	})
}

// Cancel handles POST /upgrades/:id/cancel. Only the original requester may
// cancel.
func (h *UpgradeHandlers) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	requestID, err := common.ValidateUUID(c.Param("id"), "upgrade request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	memberID, ok := common.GetMemberIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.upgradeService.Cancel(ctx, requestID, memberID); err != nil {
		switch {
		case errors.Is(err, services.ErrUpgradeAlreadyFinal):
			return common.SendConflictError(c, err.Error())
		case errors.Is(err, services.ErrInvalidMember):
			return common.SendForbiddenError(c, err.Error())
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Upgrade request cancelled",
	})
}
