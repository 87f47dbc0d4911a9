package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func signToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func runJWT(t *testing.T, cfg JWTConfig, header string) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen string
	h := JWTMiddleware(cfg)(func(c echo.Context) error {
		seen = UserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return seen, err
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired := signToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}, testSigningKey)
	wrongKey := signToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, []byte("other"))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "Token abc123"},
		{"empty token", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", httpErr.Code)
			}
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8d3c5a5e-0f4e-4b83-9d7e-1c1f2b3a4d5e",
			Issuer:    "https://idp.local",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"trabajador_social"},
	}, testSigningKey)

	seen, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "https://idp.local"}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "8d3c5a5e-0f4e-4b83-9d7e-1c1f2b3a4d5e" {
		t.Errorf("expected subject on context, got %q", seen)
	}
}

func TestJWTMiddleware_IssuerMismatch(t *testing.T) {
	token := signToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "https://evil"}}, testSigningKey)
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "https://idp.local"}, "Bearer "+token)
	if err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var uid string
	var roles []string
	h := DevAuthMiddleware("dev-profile")(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		roles = RolesFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "dev-profile" {
		t.Errorf("expected dev-profile, got %q", uid)
	}
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("expected admin role, got %v", roles)
	}
}
