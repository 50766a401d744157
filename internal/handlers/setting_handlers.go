package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler exposes the application settings to administrators.
type SettingHandler struct {
	settingService services.SettingService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ss services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: ss}
}

// GetSettings retrieves all application settings
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingService.GetSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "fetch application settings")
		return
	}
	if settings == nil {
		settings = []models.ApplicationSetting{}
	}
	c.JSON(http.StatusOK, settings)
}

// GetSetting retrieves a specific application setting by its key
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err, "fetch application setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates a new setting or updates an existing one by key
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	var req models.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	setting, err := h.settingService.UpsertSetting(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		respondServiceError(c, err, "save application setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteSetting deletes an application setting by its key
func (h *SettingHandler) DeleteSetting(c *gin.Context) {
	key := c.Param("key")
	if err := h.settingService.DeleteSetting(c.Request.Context(), key); err != nil {
		respondServiceError(c, err, "delete application setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application setting '" + key + "' deleted successfully"})
}
