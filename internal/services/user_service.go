package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// UserService is the administrative account management.
type UserService interface {
	GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, int, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, id int64, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, id int64) error
	ToggleStatus(ctx context.Context, actorID, id int64) (*models.User, error)
}

type userService struct {
	uow        repositories.UnitOfWork
	userRepo   repositories.UserRepository
	bcryptCost int
}

// NewUserService creates a new instance of UserService.
func NewUserService(uow repositories.UnitOfWork, ur repositories.UserRepository) UserService {
	return &userService{uow: uow, userRepo: ur, bcryptCost: bcrypt.DefaultCost}
}

func (s *userService) GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, int, error) {
	if filters.Role != nil && !models.IsValidRole(*filters.Role) {
		return nil, 0, newValidationError(map[string]string{"role": "is not a valid role"})
	}
	users, total, err := s.userRepo.GetUsers(ctx, filters)
	if err != nil {
		return nil, 0, internalError("listing users", err)
	}
	return users, total, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, internalError("getting user", err)
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role := strings.ToLower(req.Role)
	if !models.IsValidRole(role) {
		return nil, newValidationError(map[string]string{"role": "is not a valid role"})
	}
	hashed, err := hashPassword("password", req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		Role:         role,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.userRepo.CreateUser(ctx, exec, user)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newValidationError(map[string]string{"email": "has already been taken"})
		}
		return nil, internalError("creating user", err)
	}
	utils.LogInfo("User created", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := user.IsActive

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		role := strings.ToLower(*req.Role)
		if !models.IsValidRole(role) {
			return nil, newValidationError(map[string]string{"role": "is not a valid role"})
		}
		user.Role = role
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == actorID {
			return nil, fmt.Errorf("%w: you cannot deactivate your own account", ErrInvalidState)
		}
		user.IsActive = *req.IsActive
	}
	var newHash string
	if req.Password != nil {
		if newHash, err = hashPassword("password", *req.Password, s.bcryptCost); err != nil {
			return nil, err
		}
	}

	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.userRepo.UpdateUser(ctx, exec, user); err != nil {
			return err
		}
		if wasActive != user.IsActive {
			if err := s.userRepo.SetActive(ctx, exec, id, user.IsActive); err != nil {
				return err
			}
		}
		if newHash != "" {
			return s.userRepo.UpdatePassword(ctx, exec, id, newHash)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, newValidationError(map[string]string{"email": "has already been taken"})
		case errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, internalError("updating user", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return fmt.Errorf("%w: you cannot delete your own account", ErrInvalidState)
	}
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.userRepo.DeleteUser(ctx, exec, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("%w: user %d", ErrNotFound, id)
		case errors.Is(err, repositories.ErrReferenced):
			return fmt.Errorf("%w: user %d still owns orders; deactivate the account instead", ErrInvalidState, id)
		}
		return internalError("deleting user", err)
	}
	utils.LogInfo("User deleted", map[string]interface{}{"user_id": id, "deleted_by": actorID})
	return nil
}

func (s *userService) ToggleStatus(ctx context.Context, actorID, id int64) (*models.User, error) {
	if id == actorID {
		return nil, fmt.Errorf("%w: you cannot change the status of your own account", ErrInvalidState)
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.userRepo.SetActive(ctx, exec, id, user.IsActive)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, internalError("toggling user status", err)
	}
	utils.LogInfo("User status toggled", map[string]interface{}{"user_id": id, "is_active": user.IsActive})
	return user, nil
}
