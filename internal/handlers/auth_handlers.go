package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Register creates a customer account and logs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("Register: invalid payload", map[string]interface{}{"error": err.Error()})
		utils.RespondBindingError(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "log in")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes every token of the current user.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err, "log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile returns the current user.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "fetch profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile edits the current user's name, email or password.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
