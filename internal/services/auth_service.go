package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles sign-in, self registration and the caller's own profile.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, userID int64) error
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error)
	// CheckActive verifies that the account behind a token still exists, is
	// active and has not revoked the token's version.
	CheckActive(ctx context.Context, userID int64, tokenVersion int) (*models.User, error)
}

type authService struct {
	uow        repositories.UnitOfWork
	userRepo   repositories.UserRepository
	tokens     *utils.TokenIssuer
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(uow repositories.UnitOfWork, ur repositories.UserRepository, tokens *utils.TokenIssuer) AuthService {
	return &authService{
		uow:        uow,
		userRepo:   ur,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

const minPasswordLength = 8

// hashPassword rejects passwords shorter than minPasswordLength, reported
// against field, and returns the bcrypt hash otherwise.
func hashPassword(field, password string, cost int) (string, error) {
	if !utils.IsValidPasswordLength(password, minPasswordLength) {
		return "", newValidationError(map[string]string{field: fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%w: hashing password: %w", ErrInternal, err)
	}
	return string(hashed), nil
}

func (s *authService) issue(user *models.User) (*models.LoginResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: generating access token: %w", ErrInternal, err)
	}
	return &models.LoginResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if req.Password != req.PasswordConfirmation {
		return nil, newValidationError(map[string]string{"password": "confirmation does not match"})
	}
	hashed, err := hashPassword("password", req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.userRepo.CreateUser(ctx, exec, user)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newValidationError(map[string]string{"email": "has already been taken"})
		}
		return nil, internalError("registering user", err)
	}

	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID})
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalError("finding user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := s.userRepo.TouchLastActivity(ctx, user.ID, s.now()); err != nil {
		utils.LogWarn(err, "Failed to record last activity", map[string]interface{}{"user_id": user.ID})
	}
	return s.issue(user)
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.userRepo.BumpTokenVersion(ctx, exec, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return internalError("revoking tokens", err)
	}
	utils.LogInfo("User logged out", map[string]interface{}{"user_id": userID})
	return nil
}

func (s *authService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, internalError("getting profile", err)
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	var newHash string
	if req.NewPassword != nil {
		if req.CurrentPassword == nil ||
			bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*req.CurrentPassword)) != nil {
			return nil, newValidationError(map[string]string{"current_password": "is incorrect"})
		}
		if newHash, err = hashPassword("new_password", *req.NewPassword, s.bcryptCost); err != nil {
			return nil, err
		}
	}

	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.userRepo.UpdateUser(ctx, exec, user); err != nil {
			return err
		}
		if newHash != "" {
			return s.userRepo.UpdatePassword(ctx, exec, user.ID, newHash)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newValidationError(map[string]string{"email": "has already been taken"})
		}
		return nil, internalError("updating profile", err)
	}
	return user, nil
}

func (s *authService) CheckActive(ctx context.Context, userID int64, tokenVersion int) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, internalError("checking account", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if user.TokenVersion != tokenVersion {
		return nil, ErrTokenRevoked
	}
	if err := s.userRepo.TouchLastActivity(ctx, user.ID, s.now()); err != nil {
		utils.LogWarn(err, "Failed to record last activity", map[string]interface{}{"user_id": user.ID})
	}
	return user, nil
}
