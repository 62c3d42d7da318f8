package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Manuloff/customer-retention/internal/auth"
	"github.com/Manuloff/customer-retention/internal/config"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// AuthService coordinates staff accounts and login.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the manager so middleware validates what login issues.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// LoginStaff authenticates a staff member by channel user id.
func (s *AuthService) LoginStaff(ctx context.Context, userID int64, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, storeError(err, "user", nil)
	}
	if !user.IsStaff() || user.PasswordHash == nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// AddStaff grants the staff role to a channel user, creating the user if
// needed. An empty password leaves the account without HTTP login.
func (s *AuthService) AddStaff(ctx context.Context, userID int64, displayName, password string) (*domain.User, error) {
	if userID == 0 {
		return nil, apperrors.NewValidationError("user id required", nil)
	}
	var hash *string
	if password != "" {
		h, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		hash = &h
	}

	user, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user = &domain.User{ID: userID, Role: domain.RoleStaff, DisplayName: strings.TrimSpace(displayName), PasswordHash: hash}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, storeError(err, "user", nil)
		}
		return user, nil
	case err != nil:
		return nil, storeError(err, "user", nil)
	}

	user.Role = domain.RoleStaff
	if name := strings.TrimSpace(displayName); name != "" {
		user.DisplayName = name
	}
	if hash != nil {
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(err, "user", nil)
	}
	return user, nil
}

// EnsureUser returns the stored user, registering unknown ids as clients.
func (s *AuthService) EnsureUser(ctx context.Context, userID int64, displayName string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err, "user", nil)
	}
	user = &domain.User{ID: userID, Role: domain.RoleClient, DisplayName: strings.TrimSpace(displayName)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// registered concurrently
			existing, err := s.users.GetByID(ctx, userID)
			if err != nil {
				return nil, storeError(err, "user", nil)
			}
			return existing, nil
		}
		return nil, storeError(err, "user", nil)
	}
	return user, nil
}
