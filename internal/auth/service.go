package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nusantara-hq/gapura/internal/roles"
	"github.com/nusantara-hq/gapura/internal/shared"
	"github.com/nusantara-hq/gapura/internal/users"
)

// UserSource loads users for credential issuance.
type UserSource interface {
	FindByIdentifier(ctx context.Context, identifier string) (*users.User, error)
	Get(ctx context.Context, id int64) (*users.User, error)
}

// RoleSource loads the role referenced by a user, for the informational
// level claim.
type RoleSource interface {
	Get(ctx context.Context, id int64) (*roles.Role, error)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// Service wraps authentication business rules.
type Service struct {
	users    UserSource
	roles    RoleSource
	issuer   *TokenIssuer
	refresh  *RefreshStore
	throttle *LoginThrottle
}

// NewService constructs a new Service.
func NewService(userSource UserSource, roleSource RoleSource, issuer *TokenIssuer, refresh *RefreshStore, throttle *LoginThrottle) *Service {
	return &Service{users: userSource, roles: roleSource, issuer: issuer, refresh: refresh, throttle: throttle}
}

// Login validates identifier/password credentials and mints a token pair.
// Every failure path returns the same shared.ErrInvalidCredentials so the
// response cannot be used to probe which accounts exist.
func (s *Service) Login(ctx context.Context, identifier, password, ip string) (*TokenPair, error) {
	if s.throttle != nil {
		if err := s.throttle.Check(ctx, identifier, ip); err != nil {
			return nil, err
		}
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		s.recordFailure(ctx, identifier, ip)
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.recordFailure(ctx, identifier, ip)
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, identifier, ip)
		return nil, shared.ErrInvalidCredentials
	}
	if s.throttle != nil {
		s.throttle.Reset(ctx, identifier, ip)
	}
	return s.mint(ctx, user)
}

// Refresh rotates a refresh credential into a fresh token pair. The old
// refresh token is consumed whether or not rotation succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.refresh.Redeem(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrRefreshRevoked
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrRefreshRevoked
	}
	return s.mint(ctx, user)
}

// Logout revokes the refresh credential. Access tokens are short lived and
// expire on their own; there is no persisted deny-list.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}

func (s *Service) mint(ctx context.Context, user *users.User) (*TokenPair, error) {
	level := 0
	if role, err := s.roles.Get(ctx, user.RoleID); err == nil {
		level = role.Level
	}
	access, expiresAt, err := s.issuer.Issue(user, level)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, ExpiresAt: expiresAt, RefreshToken: refreshToken}, nil
}

func (s *Service) recordFailure(ctx context.Context, identifier, ip string) {
	if s.throttle != nil {
		s.throttle.RecordFailure(ctx, identifier, ip)
	}
}
