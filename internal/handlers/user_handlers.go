package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	q := newQueryParser(c)
	filters := models.UserFilters{
		Search:   q.String("search"),
		Role:     q.OneOf("role", models.RoleAdmin, models.RoleCashier, models.RoleUser),
		IsActive: q.Bool("is_active"),
	}
	if q.Failed() {
		return
	}
	filters.Page, filters.PageSize = pagination(c)

	users, total, err := h.userService.GetUsers(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, paginated(users, filters.Page, filters.PageSize, total))
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), actorID, id, req)
	if err != nil {
		respondServiceError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		respondServiceError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ToggleStatus activates or deactivates an account.
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.ToggleStatus(c.Request.Context(), actorID, id)
	if err != nil {
		respondServiceError(c, err, "toggle user status")
		return
	}
	c.JSON(http.StatusOK, user)
}
