package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedAdminToken(t *testing.T, secret string, method jwt.SigningMethod, expires *jwt.NumericDate) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "ops@allsafe.co.ke",
		ExpiresAt: expires,
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminJWTRejects(t *testing.T) {
	soon := jwt.NewNumericDate(time.Now().Add(5 * time.Minute))
	past := jwt.NewNumericDate(time.Now().Add(-5 * time.Minute))

	cases := []struct {
		name   string
		secret string
		header string
	}{
		{"no secret configured", "", "Bearer " + signedAdminToken(t, "secret", jwt.SigningMethodHS256, soon)},
		{"missing header", "secret", ""},
		{"wrong scheme", "secret", "Basic dXNlcjpwYXNz"},
		{"wrong key", "secret", "Bearer " + signedAdminToken(t, "wrong", jwt.SigningMethodHS256, soon)},
		{"expired", "secret", "Bearer " + signedAdminToken(t, "secret", jwt.SigningMethodHS256, past)},
		{"no expiry", "secret", "Bearer " + signedAdminToken(t, "secret", jwt.SigningMethodHS256, nil)},
		{"other hmac", "secret", "Bearer " + signedAdminToken(t, "secret", jwt.SigningMethodHS512, soon)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			AdminJWT(tc.secret)(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Fatalf("handler must not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected json error, got %q", ct)
			}
		})
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set("Authorization", "bearer "+signedAdminToken(t, "secret", jwt.SigningMethodHS256, jwt.NewNumericDate(time.Now().Add(time.Minute))))
	rec := httptest.NewRecorder()

	called := false
	AdminJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok || claims.Subject != "ops@allsafe.co.ke" {
			t.Fatalf("expected admin claims in context, got %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
