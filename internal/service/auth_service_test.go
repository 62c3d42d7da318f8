package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manuloff/customer-retention/internal/config"
	"github.com/Manuloff/customer-retention/internal/domain"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

func newAuth(t *testing.T) (*AuthService, *fixture) {
	f := newFixture(t, FirstSelector{})
	cfg := config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}
	return NewAuthService(cfg, f.store.Users()), f
}

func TestAuth_AddStaffAndLogin(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	user, err := svc.AddStaff(ctx, 900, "Olga", "pa55")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, user.Role)

	_, token, _, err := svc.LoginStaff(ctx, 900, "pa55")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(900), claims.UserID)

	_, _, _, err = svc.LoginStaff(ctx, 900, "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, _, _, err = svc.LoginStaff(ctx, 901, "pa55")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestAuth_AddStaffPromotesClient(t *testing.T) {
	svc, f := newAuth(t)
	ctx := context.Background()

	client, err := svc.EnsureUser(ctx, 42, "Ivan")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, client.Role)

	_, _, _, err = svc.LoginStaff(ctx, 42, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = svc.AddStaff(ctx, 42, "", "")
	require.NoError(t, err)

	stored, err := f.store.Users().GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, stored.Role)
	assert.Equal(t, "Ivan", stored.DisplayName)
	assert.Nil(t, stored.PasswordHash)
}

func TestAuth_EnsureUserIsIdempotent(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	first, err := svc.EnsureUser(ctx, 7, "Anna")
	require.NoError(t, err)
	second, err := svc.EnsureUser(ctx, 7, "Other")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Anna", second.DisplayName)
}
