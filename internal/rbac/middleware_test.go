package rbac

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nusantara-hq/gapura/internal/shared"
)

type fakeVerifier struct {
	claims *shared.Claims
	err    error
}

func (f fakeVerifier) Verify(token string) (*shared.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	mw := Middleware{Verifier: fakeVerifier{claims: &shared.Claims{UserID: 1}}}

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer", "Bearer "} {
		var hit bool
		req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(&hit)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.False(t, hit, "header %q", header)
		assert.Contains(t, rec.Body.String(), "access denied")
	}
}

func TestRequireAuthUniformDenialOnBadToken(t *testing.T) {
	// The body must not leak why verification failed.
	for _, verr := range []error{errors.New("token is expired"), errors.New("signature is invalid")} {
		var hit bool
		mw := Middleware{Verifier: fakeVerifier{err: verr}}
		req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
		req.Header.Set("Authorization", "Bearer whatever")
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(&hit)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, hit)
		assert.Contains(t, rec.Body.String(), "access denied")
		assert.NotContains(t, rec.Body.String(), "expired")
		assert.NotContains(t, rec.Body.String(), "signature")
	}
}

func TestRequireAuthStoresClaims(t *testing.T) {
	mw := Middleware{Verifier: fakeVerifier{claims: &shared.Claims{UserID: 42, RoleID: 10}}}

	var got *shared.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.ClaimsFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mw.RequireAuth(inner).ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, int64(10), got.RoleID)
}

func TestRequirePermissionAllowsAndDenies(t *testing.T) {
	mw := Middleware{Resolver: newResolverWith([]string{"read:employee"})}

	var hit bool
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(shared.ContextWithClaims(req.Context(), &shared.Claims{UserID: 1}))
	rec := httptest.NewRecorder()
	mw.RequirePermission("read", "employee")(okHandler(&hit)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hit)

	hit = false
	rec = httptest.NewRecorder()
	mw.RequirePermission("delete", "employee")(okHandler(&hit)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, hit)
	assert.Contains(t, rec.Body.String(), "missing permission delete:employee")
}

func TestRequirePermissionWithoutClaimsIs401(t *testing.T) {
	mw := Middleware{Resolver: newResolverWith([]string{"read:employee"})}

	var hit bool
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	mw.RequirePermission("read", "employee")(okHandler(&hit)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestRequirePermissionResolverFailureIs500(t *testing.T) {
	storeErr := errors.New("connection refused")
	mw := Middleware{Resolver: newResolverWith(nil, func(dir *mockDirectory) {
		dir.userErr = storeErr
	})}

	var hit bool
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(shared.ContextWithClaims(req.Context(), &shared.Claims{UserID: 1}))
	rec := httptest.NewRecorder()
	mw.RequirePermission("read", "employee")(okHandler(&hit)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, hit)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRequireModule(t *testing.T) {
	mw := Middleware{Resolver: newResolverWith(nil)}

	var hit bool
	req := httptest.NewRequest(http.MethodGet, "/api/hrm", nil)
	req = req.WithContext(shared.ContextWithClaims(req.Context(), &shared.Claims{UserID: 1}))
	rec := httptest.NewRecorder()
	mw.RequireModule("hrm")(okHandler(&hit)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hit)

	hit = false
	rec = httptest.NewRecorder()
	mw.RequireModule("finance")(okHandler(&hit)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, hit)
	assert.Contains(t, rec.Body.String(), "missing module access finance")
}
