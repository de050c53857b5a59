package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nusantara-hq/gapura/internal/roles"
	"github.com/nusantara-hq/gapura/internal/shared"
	"github.com/nusantara-hq/gapura/internal/users"
)

type stubUsers struct {
	byIdentifier map[string]*users.User
	byID         map[int64]*users.User
}

func (s *stubUsers) FindByIdentifier(ctx context.Context, identifier string) (*users.User, error) {
	if user, ok := s.byIdentifier[identifier]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubUsers) Get(ctx context.Context, id int64) (*users.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

type stubRoles struct {
	byID map[int64]*roles.Role
}

func (s *stubRoles) Get(ctx context.Context, id int64) (*roles.Role, error) {
	if role, ok := s.byID[id]; ok {
		return role, nil
	}
	return nil, shared.ErrNotFound
}

func newTestService(t *testing.T, user *users.User) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	userSource := &stubUsers{byIdentifier: map[string]*users.User{}, byID: map[int64]*users.User{}}
	if user != nil {
		if user.Email != "" {
			userSource.byIdentifier[user.Email] = user
		}
		if user.Username != "" {
			userSource.byIdentifier[user.Username] = user
		}
		userSource.byID[user.ID] = user
	}
	roleSource := &stubRoles{byID: map[int64]*roles.Role{
		7: {ID: 7, Name: "Staff", Level: 2},
	}}

	issuer := NewTokenIssuer("test-secret-please-rotate", "gapura", 15*time.Minute)
	refresh := NewRefreshStore(client, 7*24*time.Hour)
	throttle := NewLoginThrottle(client, 5, 10*time.Minute)
	return NewService(userSource, roleSource, issuer, refresh, throttle), client
}

func activeUser(t *testing.T) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &users.User{
		ID:           42,
		Email:        "admin@gapura.local",
		Username:     "admin",
		Name:         "Admin",
		PasswordHash: string(hash),
		IsActive:     true,
		IsVerified:   true,
		RoleID:       7,
	}
}

func TestLoginSuccess(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	pair, err := service.Login(context.Background(), "admin@gapura.local", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))
}

func TestLoginByUsername(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	_, err := service.Login(context.Background(), "admin", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
}

func TestLoginWrongPasswordIsUniform(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	_, err := service.Login(context.Background(), "admin@gapura.local", "wrong-password", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownUserIsUniform(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	// Same error as a wrong password: no account enumeration.
	_, err := service.Login(context.Background(), "nobody@gapura.local", "whatever-pass", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveUserDenied(t *testing.T) {
	user := activeUser(t)
	user.IsActive = false
	service, _ := newTestService(t, user)

	_, err := service.Login(context.Background(), "admin@gapura.local", "correct-horse", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	for i := 0; i < 5; i++ {
		_, err := service.Login(context.Background(), "admin@gapura.local", "wrong-password", "10.0.0.1")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}
	// Even the correct password is refused once the counter trips.
	_, err := service.Login(context.Background(), "admin@gapura.local", "correct-horse", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrThrottled)
}

func TestRefreshRotatesAndIsSingleUse(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	pair, err := service.Login(context.Background(), "admin@gapura.local", "correct-horse", "10.0.0.1")
	require.NoError(t, err)

	rotated, err := service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token must not work twice.
	_, err = service.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestRefreshDeniedForDeactivatedUser(t *testing.T) {
	user := activeUser(t)
	service, _ := newTestService(t, user)

	pair, err := service.Login(context.Background(), "admin@gapura.local", "correct-horse", "10.0.0.1")
	require.NoError(t, err)

	user.IsActive = false
	_, err = service.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	pair, err := service.Login(context.Background(), "admin@gapura.local", "correct-horse", "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), pair.RefreshToken))

	_, err = service.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestUnknownRefreshTokenRevoked(t *testing.T) {
	service, _ := newTestService(t, activeUser(t))

	_, err := service.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}
