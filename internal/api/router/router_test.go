package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/contact-intake/internal/contacts"
	"github.com/wolfman30/contact-intake/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/contact-intake/internal/http/middleware"
	"github.com/wolfman30/contact-intake/internal/observability/metrics"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewContactMetrics(reg)
	repo := contacts.NewInMemoryRepository()

	cfg := &Config{
		Logger:             logger,
		ContactsHandler:    contacts.NewHandler(repo, logger).WithMetrics(m),
		HealthHandler:      handlers.NewHealthHandler(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func submission() []byte {
	body, _ := json.Marshal(contacts.CreateSubmissionRequest{
		Name:    "John Doe",
		Email:   "john@example.com",
		Service: contacts.ServiceBasicScan,
		Message: "Please scan our site.",
	})
	return body
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp handlers.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp.Status != "OK" {
		t.Errorf("expected status 'OK', got %q", resp.Status)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("expected security headers on every response")
	}
	if rr.Header().Get(httpmiddleware.RequestIDHeader) == "" {
		t.Errorf("expected a request id header")
	}
}

func TestRouterSubmitAndList(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(submission()))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/api/contacts", "/api/contacts/1"} {
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `allsafe_contacts_submissions_total{outcome="persisted"} 1`) {
		t.Errorf("expected submission counter in metrics output, got:\n%s", rr.Body.String())
	}
}

func TestRouterAdminRoutesRequireToken(t *testing.T) {
	const secret = "router-test-secret"
	router := newTestRouter(t, func(cfg *Config) { cfg.AdminAuthSecret = secret })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	// The public form stays open.
	req = httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(submission()))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected public submit to succeed, got %d", rr.Code)
	}
}

func TestRouterRateLimitsSubmissions(t *testing.T) {
	limiter := httpmiddleware.NewPerMinuteLimiter(2)
	t.Cleanup(limiter.Stop)
	router := newTestRouter(t, func(cfg *Config) {
		cfg.ContactLimiter = limiter
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(submission()))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, codes)
		}
	}

	// Reads are never throttled.
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected list to succeed, got %d", rr.Code)
	}
}

func TestRouterServesStaticSite(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"index.html": "<h1>AllSafe</h1>",
		"admin.html": "<h1>Admin</h1>",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	router := newTestRouter(t, func(cfg *Config) { cfg.StaticDir = dir })

	cases := map[string]string{
		"/":      "<h1>AllSafe</h1>",
		"/admin": "<h1>Admin</h1>",
	}
	for path, want := range cases {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), want) {
			t.Errorf("%s: expected %q, got %d %q", path, want, rr.Code, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("api routes must win over the static handler, got %d", rr.Code)
	}
}
