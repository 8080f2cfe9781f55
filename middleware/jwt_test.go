package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/logibook/config"
)

func withSecret(t *testing.T) {
	t.Helper()
	prev := config.Env
	config.Env.JWTSecret = "test-secret"
	config.Env.TokenTTLHours = 1
	t.Cleanup(func() { config.Env = prev })
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r)))
}

func TestGenerateAndParseToken(t *testing.T) {
	withSecret(t)
	tok, err := GenerateToken(Claims{UserID: "u-1", Name: "Asha", Kind: KindCustomer})
	require.NoError(t, err)

	c, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, KindCustomer, c.Kind)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.ExpiresAt.Time, time.Minute)
}

func TestGenerateToken_NoSecret(t *testing.T) {
	prev := config.Env
	config.Env.JWTSecret = ""
	t.Cleanup(func() { config.Env = prev })

	_, err := GenerateToken(Claims{UserID: "u-1"})
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	withSecret(t)
	valid, err := GenerateToken(Claims{UserID: "u-7", Kind: KindCustomer})
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u-7",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredStr, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u-7"}).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired token", "Bearer " + expiredStr, http.StatusUnauthorized},
		{"wrong signature", "Bearer " + forged, http.StatusUnauthorized},
	}
	h := JWTMiddleware(http.HandlerFunc(echoUser))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u-7", rr.Body.String())
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	h := RequirePermission("bookings:export", ok)

	tests := []struct {
		name   string
		claims *Claims
		status int
	}{
		{"no claims", nil, http.StatusForbidden},
		{"customer token", &Claims{Kind: KindCustomer, Permissions: []string{"*"}}, http.StatusForbidden},
		{"admin without permission", &Claims{Kind: KindAdmin, Permissions: []string{"users:*"}}, http.StatusForbidden},
		{"admin with wildcard", &Claims{Kind: KindAdmin, Permissions: []string{"bookings:*"}}, http.StatusNoContent},
		{"super admin", &Claims{Kind: KindAdmin, Permissions: []string{"*"}}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/bookings/export", nil)
			if tt.claims != nil {
				req = WithClaims(req, tt.claims)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRequireKind(t *testing.T) {
	h := RequireKind(KindAdmin)(http.HandlerFunc(echoUser))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, WithClaims(httptest.NewRequest(http.MethodGet, "/", nil), &Claims{UserID: "a-1", Kind: KindAdmin}))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, WithClaims(httptest.NewRequest(http.MethodGet, "/", nil), &Claims{UserID: "u-1", Kind: KindCustomer}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireActive(t *testing.T) {
	active := map[string]bool{"u-1": true, "u-2": false}
	h := RequireActive(func(_ context.Context, c *Claims) (bool, error) {
		if c.UserID == "u-3" {
			return false, errors.New("db down")
		}
		return active[c.UserID], nil
	})(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		claims *Claims
		status int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"active account", &Claims{UserID: "u-1", Kind: KindCustomer}, http.StatusOK},
		{"deactivated after issue", &Claims{UserID: "u-2", Kind: KindCustomer}, http.StatusForbidden},
		{"deleted account", &Claims{UserID: "u-9", Kind: KindCustomer}, http.StatusForbidden},
		{"lookup failure", &Claims{UserID: "u-3", Kind: KindCustomer}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
			if tt.claims != nil {
				req = WithClaims(req, tt.claims)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole([]string{"super_admin"}, http.HandlerFunc(echoUser))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, WithClaims(httptest.NewRequest(http.MethodPost, "/", nil), &Claims{UserID: "a-1", Kind: KindAdmin, Role: "super_admin"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a-1", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, WithClaims(httptest.NewRequest(http.MethodPost, "/", nil), &Claims{UserID: "a-2", Kind: KindAdmin, Role: "admin"}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequestLogger(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
