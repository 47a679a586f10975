package middleware

import (
	"context"
	"net/http"

	"plangate/internal/common"
	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig builds the echo-jwt configuration for protected route groups.
// Token issuance lives outside this service; only validation happens here.
func JWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}

// LoadMember runs after echo-jwt validation. It resolves the member named in
// the token's sub claim and loads identity into the request context; a
// deactivated member is rejected even with a valid token.
func LoadMember(memberRepo repositories.MemberRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing member_id in token")
			}

			memberID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid member_id format")
			}

			member, err := memberRepo.GetByID(c.Request().Context(), memberID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Member not found")
			}
			if !member.Active {
				return echo.NewHTTPError(http.StatusUnauthorized, "Member is deactivated")
			}

			ctx := context.WithValue(c.Request().Context(), common.MemberIDKey, member.ID)
			ctx = context.WithValue(ctx, common.RoleKey, string(member.Role))
			if member.OrganizationID != nil {
				ctx = context.WithValue(ctx, common.OrganizationIDKey, *member.OrganizationID)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireOperator guards platform-operator surfaces (plan administration,
// upgrade approval/completion).
func RequireOperator() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok || role != string(models.RolePlatformOperator) {
				return common.SendForbiddenError(c, "Platform operator role required")
			}
			return next(c)
		}
	}
}
