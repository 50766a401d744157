package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		claims, err := issuer.ValidateToken(parts[1])
		if err != nil {
			utils.LogDebug("Rejected access token", map[string]interface{}{"error": err.Error()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", ""))
			return
		}

		c.Set(utils.UserIDKey, claims.UserID)
		c.Set(utils.UserRoleKey, claims.Role)
		c.Set(utils.TokenVersionKey, claims.TokenVersion)

		c.Next()
	}
}

// ActiveUserChecker confirms that a token still belongs to a usable account.
type ActiveUserChecker interface {
	CheckActive(ctx context.Context, userID int64, tokenVersion int) (*models.User, error)
}

// ActiveUserMiddleware rejects tokens of deleted, deactivated or logged out
// accounts. It must run after AuthMiddleware. The role in the context is
// refreshed from the account so role changes apply immediately.
func ActiveUserMiddleware(checker ActiveUserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := utils.CurrentUserID(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
			return
		}

		user, err := checker.CheckActive(c.Request.Context(), userID, c.GetInt(utils.TokenVersionKey))
		switch {
		case err == nil:
		case errors.Is(err, services.ErrAccountInactive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Account is deactivated", ""))
			return
		case errors.Is(err, services.ErrTokenRevoked):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Token has been revoked", ""))
			return
		default:
			utils.LogError(err, "Active user check failed", map[string]interface{}{"user_id": userID})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to verify account.", "Internal error"))
			return
		}

		c.Set(utils.UserRoleKey, user.Role)
		c.Next()
	}
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the user role is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := utils.CurrentUserRole(c)
		if role == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "User role not found. Ensure AuthMiddleware runs first.", ""))
			return
		}

		for _, r := range allowedRoles {
			if strings.EqualFold(role, r) {
				c.Next()
				return
			}
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource. Required roles: "+strings.Join(allowedRoles, ", "), ""))
	}
}
