package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nusantara-hq/gapura/internal/shared"
	"github.com/nusantara-hq/gapura/internal/users"
)

// Token verification failures. All of them are fail-closed: the boundary
// maps every one of them to the same uniform denial.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenInvalid   = errors.New("auth: token invalid")
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrTokenTooLarge guards the credential size budget. Oversized tokens
	// overflow request headers downstream (HTTP 431), so issuance refuses
	// them outright.
	ErrTokenTooLarge = errors.New("auth: token exceeds size budget")
)

// MaxTokenBytes is the serialized credential size budget.
const MaxTokenBytes = 1024

// tokenClaims is the minimal claim set. Permission and module lists are
// deliberately absent: they are resolved server-side on every request,
// which keeps the credential small and makes role changes effective
// immediately.
type tokenClaims struct {
	RoleID     int64 `json:"rid"`
	RoleLevel  int   `json:"rlv"`
	IsActive   bool  `json:"act"`
	IsVerified bool  `json:"vrf"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session credentials.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, issuer string, accessTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, accessTTL: accessTTL}
}

// AccessTTL returns the configured access token lifetime.
func (t *TokenIssuer) AccessTTL() time.Duration {
	return t.accessTTL
}

// Issue mints an access credential for the user. RoleLevel rides along for
// display purposes only; it grants nothing by itself.
func (t *TokenIssuer) Issue(user *users.User, roleLevel int) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.accessTTL)
	claims := tokenClaims{
		RoleID:     user.RoleID,
		RoleLevel:  roleLevel,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	if len(signed) > MaxTokenBytes {
		return "", time.Time{}, fmt.Errorf("%w: %d bytes", ErrTokenTooLarge, len(signed))
	}
	return signed, expiresAt, nil
}

// Verify validates the credential and extracts its claims. Expiry is
// checked even when the signature is valid; any ambiguity denies.
func (t *TokenIssuer) Verify(raw string) (*shared.Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	return &shared.Claims{
		UserID:     userID,
		RoleID:     claims.RoleID,
		RoleLevel:  claims.RoleLevel,
		IsActive:   claims.IsActive,
		IsVerified: claims.IsVerified,
	}, nil
}
