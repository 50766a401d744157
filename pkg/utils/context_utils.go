package utils

import "github.com/gin-gonic/gin"

// Gin context keys set by the authentication middleware.
const (
	UserIDKey       = "userID"
	UserRoleKey     = "userRole"
	TokenVersionKey = "tokenVersion"
)

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// CurrentUserRole returns the role of the authenticated user or "".
func CurrentUserRole(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}
