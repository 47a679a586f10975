package middleware

import (
	"log"
	"net/http"
	"time"

	"plangate/internal/caching"
	"plangate/internal/common"
	"plangate/internal/models"
	"plangate/internal/services"

	"github.com/labstack/echo/v4"
)

// AccessMiddleware is the request-side consumer of the access decision
// function. It resolves the caller's subscription (cached, auto-healing a
// missing one into a trial) and quota standing, then acts on the verdict.
type AccessMiddleware struct {
	accessSvc       *services.AccessService
	subscriptionSvc services.SubscriptionService
	orgSvc          services.OrganizationService
	cacheSvc        caching.CacheService
}

func NewAccessMiddleware(
	accessSvc *services.AccessService,
	subscriptionSvc services.SubscriptionService,
	orgSvc services.OrganizationService,
	cacheSvc caching.CacheService,
) *AccessMiddleware {
	return &AccessMiddleware{
		accessSvc:       accessSvc,
		subscriptionSvc: subscriptionSvc,
		orgSvc:          orgSvc,
		cacheSvc:        cacheSvc,
	}
}

// Require gates a route group behind the named module.
func (m *AccessMiddleware) Require(module string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.accessSvc.IsAlwaysAllowed(module) {
				return next(c)
			}

			ctx := c.Request().Context()
			if role, ok := common.GetRoleFromContext(ctx); ok && role == string(models.RolePlatformOperator) {
				return next(c)
			}

			orgID, ok := common.GetOrganizationIDFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			sub, err := m.cacheSvc.GetSubscription(ctx, orgID)
			if err != nil || sub == nil {
				sub, err = m.subscriptionSvc.EnsureSubscription(ctx, orgID)
				if err != nil {
					log.Printf("access check: resolve subscription for organization %s: %v", orgID, err)
					sub = nil
				} else if cacheErr := m.cacheSvc.SetSubscription(ctx, sub, time.Minute); cacheErr != nil {
					log.Printf("access check: subscription cache write failed: %v", cacheErr)
				}
			}

			var quota *models.QuotaDetails
			if sub != nil {
				quota, err = m.orgSvc.DetailedQuota(ctx, orgID)
				if err != nil {
					// Quota standing only adds a warning; access is decided
					// from the subscription alone.
					quota = nil
				}
			}

			decision := m.accessSvc.CheckAccess(sub, quota, module)
			if !decision.HasAccess {
				return c.JSON(http.StatusPaymentRequired, map[string]interface{}{
					"error":           "subscription_required",
					"message":         decision.Message,
					"redirect_target": decision.RedirectTarget,
				})
			}

			if decision.Message != "" {
				c.Response().Header().Set("X-Subscription-Warning", decision.Message)
			}
			c.Set("access_decision", decision)

			return next(c)
		}
	}
}
