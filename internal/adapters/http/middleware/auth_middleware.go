package middleware

import (
	"errors"
	"strings"

	"gearguard/internal/config"
	"gearguard/internal/core/domain"
	"gearguard/internal/pkg/jwt"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the access token from the cookie or the
// Authorization header and stores the claims in Locals
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if domain.Role(role) == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// ManagerOnly allows only MANAGER
func ManagerOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleManager)
}

// TechnicianOrManager allows TECHNICIAN or MANAGER
func TechnicianOrManager() fiber.Handler {
	return RoleMiddleware(domain.RoleTechnician, domain.RoleManager)
}

// CurrentViewer returns the authenticated user as the workflow rules see
// them. ok is false when the route is not behind AuthMiddleware.
func CurrentViewer(c *fiber.Ctx) (domain.Viewer, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return domain.Viewer{}, false
	}
	role, _ := c.Locals("role").(string)
	return domain.Viewer{UserID: userID, Role: domain.Role(role)}, true
}
