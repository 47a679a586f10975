package handlers

import (
	"net/http"

	"plangate/internal/common"
	"plangate/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers handles HTTP requests for the plan catalog
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// ListPlans handles GET /plans
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	plans, err := h.planService.List(c.Request().Context(), activeOnly)
	if err != nil {
		return common.SendServerError(c, "Failed to list plans")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

// GetPlan handles GET /plans/:id
func (h *PlanHandlers) GetPlan(c echo.Context) error {
	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	plan, err := h.planService.GetByID(c.Request().Context(), planID)
	if err != nil {
		return common.SendNotFoundError(c, "Plan")
	}
	return c.JSON(http.StatusOK, plan)
}

// CreatePlan handles POST /plans (operator only)
func (h *PlanHandlers) CreatePlan(c echo.Context) error {
	var req services.CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	plan, err := h.planService.Create(c.Request().Context(), &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, plan)
}

// UpdatePlan handles PUT /plans/:id (operator only)
func (h *PlanHandlers) UpdatePlan(c echo.Context) error {
	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.UpdatePlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	req.ID = planID

	if err := h.planService.Update(c.Request().Context(), &req); err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plan updated successfully",
	})
}

// DeactivatePlan handles DELETE /plans/:id (operator only). Plans are
// retired, never removed.
func (h *PlanHandlers) DeactivatePlan(c echo.Context) error {
	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	if err := h.planService.Deactivate(c.Request().Context(), planID); err != nil {
		return common.SendServerError(c, "Failed to deactivate plan")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plan deactivated",
	})
}
