package handlers

import (
	"errors"
	"net/http"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error onto the API error envelope.
// Anything unclassified is logged and reported as an opaque 500.
func respondServiceError(c *gin.Context, err error, action string) {
	var verr *services.ValidationError
	var serr *services.StockError

	switch {
	case errors.As(err, &verr):
		utils.RespondValidationFailed(c, err.Error(), verr.Fields)
	case errors.As(err, &serr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, serr.Error(), ""))
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found", err.Error()))
	case errors.Is(err, services.ErrTableUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeTableUnavailable, "Table is not available", err.Error()))
	case errors.Is(err, services.ErrProductUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeProductUnavailable, "Product is not available", err.Error()))
	case errors.Is(err, services.ErrInvalidState):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeInvalidState, "Operation not allowed in the current state", err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrTokenRevoked):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), ""))
	case errors.Is(err, services.ErrAccountInactive):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Account is deactivated", ""))
	case errors.Is(err, services.ErrUnauthorized):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You are not allowed to access this resource", ""))
	default:
		utils.LogError(err, action+": unexpected error", map[string]interface{}{"path": c.FullPath()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
	}
}
