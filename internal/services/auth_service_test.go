package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*store, *authService) {
	t.Helper()
	issuer, err := utils.NewTokenIssuer("test-secret-with-enough-length", time.Hour, "restaurant-pos")
	if err != nil {
		t.Fatal(err)
	}
	s := newStore()
	svc := NewAuthService(&fakeUnitOfWork{s: s}, &fakeUserRepo{s: s}, issuer).(*authService)
	svc.bcryptCost = bcrypt.MinCost
	return s, svc
}

func register(t *testing.T, svc *authService, email string) *models.LoginResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Budi", Email: email, Password: "password123", PasswordConfirmation: "password123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

func TestAuthService_Register(t *testing.T) {
	_, svc := newAuthFixture(t)

	resp := register(t, svc, "Budi@Example.com")
	if resp.User.Role != models.RoleUser || resp.User.Email != "budi@example.com" {
		t.Errorf("user = %+v, want lower-cased email and role user", resp.User)
	}
	if resp.TokenType != "Bearer" || resp.AccessToken == "" {
		t.Errorf("token = %q %q", resp.TokenType, resp.AccessToken)
	}

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Other", Email: "budi@example.com", Password: "password123", PasswordConfirmation: "password123",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] == "" {
		t.Errorf("duplicate email error = %v, want validation on email", err)
	}

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Name: "Other", Email: "other@example.com", Password: "password123", PasswordConfirmation: "password124",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("confirmation mismatch error = %v, want ErrValidation", err)
	}

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Name: "Short", Email: "short@example.com", Password: "short", PasswordConfirmation: "short",
	})
	if !errors.As(err, &verr) || verr.Fields["password"] == "" {
		t.Errorf("short password error = %v, want validation on password", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		inactive bool
		wantErr  error
	}{
		{name: "valid", email: "budi@example.com", password: "password123"},
		{name: "emailCaseInsensitive", email: "BUDI@example.com", password: "password123"},
		{name: "wrongPassword", email: "budi@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknownEmail", email: "ghost@example.com", password: "password123", wantErr: ErrInvalidCredentials},
		{name: "inactive", email: "budi@example.com", password: "password123", inactive: true, wantErr: ErrAccountInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc := newAuthFixture(t)
			registered := register(t, svc, "budi@example.com")
			if tt.inactive {
				u := s.users[registered.User.ID]
				u.IsActive = false
				s.users[u.ID] = u
			}

			resp, err := svc.Login(context.Background(), models.LoginRequest{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			claims, err := svc.tokens.ValidateToken(resp.AccessToken)
			if err != nil {
				t.Fatalf("issued token invalid: %v", err)
			}
			if claims.UserID != registered.User.ID || claims.Role != models.RoleUser {
				t.Errorf("claims = %+v", claims)
			}
			if s.users[registered.User.ID].LastActivity == nil {
				t.Error("last activity not recorded")
			}
		})
	}
}

func TestAuthService_LogoutRevokesTokens(t *testing.T) {
	s, svc := newAuthFixture(t)
	resp := register(t, svc, "budi@example.com")
	ctx := context.Background()

	if _, err := svc.CheckActive(ctx, resp.User.ID, resp.User.TokenVersion); err != nil {
		t.Fatalf("CheckActive() before logout error = %v", err)
	}
	if err := svc.Logout(ctx, resp.User.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.CheckActive(ctx, resp.User.ID, resp.User.TokenVersion); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("CheckActive() after logout error = %v, want ErrTokenRevoked", err)
	}

	u := s.users[resp.User.ID]
	u.IsActive = false
	s.users[u.ID] = u
	if _, err := svc.CheckActive(ctx, u.ID, u.TokenVersion); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("CheckActive() inactive error = %v, want ErrAccountInactive", err)
	}
	if _, err := svc.CheckActive(ctx, 999, 0); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("CheckActive() unknown user error = %v, want ErrTokenRevoked", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	s, svc := newAuthFixture(t)
	resp := register(t, svc, "budi@example.com")
	ctx := context.Background()
	id := resp.User.ID

	wrong := "wrong-password"
	newPassword := "new-password-1"
	_, err := svc.UpdateProfile(ctx, id, models.UpdateProfileRequest{CurrentPassword: &wrong, NewPassword: &newPassword})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("wrong current password error = %v, want ErrValidation", err)
	}

	current := "password123"
	name := "Budi Santoso"
	updated, err := svc.UpdateProfile(ctx, id, models.UpdateProfileRequest{Name: &name, CurrentPassword: &current, NewPassword: &newPassword})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != name {
		t.Errorf("name = %q, want %q", updated.Name, name)
	}
	if bcrypt.CompareHashAndPassword([]byte(s.users[id].PasswordHash), []byte(newPassword)) != nil {
		t.Error("password was not changed")
	}
}
