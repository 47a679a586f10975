package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"plangate/internal/common"
	"plangate/internal/services"

	"github.com/labstack/echo/v4"
)

// OrganizationHandlers handles HTTP requests for organizations, membership
// and quota
type OrganizationHandlers struct {
	orgService          services.OrganizationService
	subscriptionService services.SubscriptionService
}

func NewOrganizationHandlers(orgService services.OrganizationService, subscriptionService services.SubscriptionService) *OrganizationHandlers {
	return &OrganizationHandlers{
		orgService:          orgService,
		subscriptionService: subscriptionService,
	}
}

// CreateOrganization handles POST /organizations. Provisioning also ensures a
// trial subscription so the tenant is usable immediately.
func (h *OrganizationHandlers) CreateOrganization(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.CreateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	org, err := h.orgService.Create(ctx, &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	sub, err := h.subscriptionService.EnsureSubscription(ctx, org.ID)
	if err != nil {
		return common.SendServerError(c, "Organization created but subscription provisioning failed")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"organization": org,
		"subscription": sub,
	})
}

// GetOrganization handles GET /organizations/:id
func (h *OrganizationHandlers) GetOrganization(c echo.Context) error {
	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	org, err := h.orgService.GetByID(c.Request().Context(), orgID)
	if err != nil {
		return common.SendNotFoundError(c, "Organization")
	}
	return c.JSON(http.StatusOK, org)
}

// ListOrganizations handles GET /organizations (operator only)
func (h *OrganizationHandlers) ListOrganizations(c echo.Context) error {
	limit, offset := parsePagination(c)
	orgs, err := h.orgService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list organizations")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"organizations": orgs,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetQuota handles GET /organizations/:id/quota. The membership-creation UI
// calls this before rendering; has_inactive tells it to suggest reactivation.
func (h *OrganizationHandlers) GetQuota(c echo.Context) error {
	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	quota, err := h.orgService.DetailedQuota(c.Request().Context(), orgID)
	if err != nil {
		return common.SendServerError(c, "Failed to compute quota")
	}
	return c.JSON(http.StatusOK, quota)
}

// CreateMember handles POST /organizations/:id/members
func (h *OrganizationHandlers) CreateMember(c echo.Context) error {
	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	req.OrganizationID = orgID

	member, err := h.orgService.CreateMember(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			return common.SendConflictError(c, err.Error())
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, member)
}

// ListMembers handles GET /organizations/:id/members
func (h *OrganizationHandlers) ListMembers(c echo.Context) error {
	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	limit, offset := parsePagination(c)
	members, err := h.orgService.ListMembers(c.Request().Context(), orgID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list members")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": members,
		"limit":   limit,
		"offset":  offset,
	})
}

// ReactivateMember handles POST /organizations/:id/members/:member_id/activate
func (h *OrganizationHandlers) ReactivateMember(c echo.Context) error {
	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	memberID, err := common.ValidateUUID(c.Param("member_id"), "member id")
	if err != nil {
		return common.SendValidationError(c, "member_id", err.Error())
	}

	if err := h.orgService.ReactivateMember(c.Request().Context(), orgID, memberID); err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			return common.SendConflictError(c, err.Error())
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Member reactivated",
	})
}

// DeactivateMember handles POST /organizations/:id/members/:member_id/deactivate
func (h *OrganizationHandlers) DeactivateMember(c echo.Context) error {
	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	memberID, err := common.ValidateUUID(c.Param("member_id"), "member id")
	if err != nil {
		return common.SendValidationError(c, "member_id", err.Error())
	}

	if err := h.orgService.DeactivateMember(c.Request().Context(), orgID, memberID); err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Member deactivated",
	})
}

// TransferMember handles POST /members/:member_id/transfer (operator only)
func (h *OrganizationHandlers) TransferMember(c echo.Context) error {
	memberID, err := common.ValidateUUID(c.Param("member_id"), "member id")
	if err != nil {
		return common.SendValidationError(c, "member_id", err.Error())
	}

	var req struct {
		DestinationOrganizationID string `json:"destination_organization_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	destOrgID, err := common.ValidateUUID(req.DestinationOrganizationID, "destination organization id")
	if err != nil {
		return common.SendValidationError(c, "destination_organization_id", err.Error())
	}

	if err := h.orgService.TransferMember(c.Request().Context(), memberID, destOrgID); err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			return common.SendConflictError(c, err.Error())
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Member transferred",
	})
}

func parsePagination(c echo.Context) (int, int) {
	limit := 10
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
