package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/contact-intake/internal/observability/metrics"
)

// Endpoints lists the routes advertised by the health payload.
var Endpoints = map[string]string{
	"GET /":                         "Main website",
	"GET /admin":                    "Admin panel",
	"GET /api/contact":              "Contact form usage",
	"POST /api/contact":             "Submit contact form",
	"GET /api/contacts":             "Get all contacts (admin)",
	"GET /api/contacts/{id}":        "Get single contact",
	"PUT /api/contacts/{id}/status": "Update contact status",
	"GET /api/health":               "Health check",
	"GET /api/test":                 "Test endpoint",
	"GET /metrics":                  "Prometheus metrics",
}

// HealthHandler serves the liveness endpoints. It never touches the store;
// store_fallbacks reports how often degraded answers have been served.
type HealthHandler struct {
	gatherer prometheus.Gatherer
	now      func() time.Time
}

// NewHealthHandler reads fallback counters from gatherer.
func NewHealthHandler(gatherer prometheus.Gatherer) *HealthHandler {
	return &HealthHandler{gatherer: gatherer, now: time.Now}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status         string             `json:"status"`
	Message        string             `json:"message"`
	Timestamp      string             `json:"timestamp"`
	Endpoints      map[string]string  `json:"endpoints"`
	StoreFallbacks map[string]float64 `json:"store_fallbacks"`
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "OK",
		Message:        "AllSafe website server is running",
		Timestamp:      h.timestamp(),
		Endpoints:      Endpoints,
		StoreFallbacks: metrics.SnapshotFallbacks(h.gatherer),
	})
}

// Test handles GET /api/test.
func (h *HealthHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "API is working correctly",
		"timestamp": h.timestamp(),
	})
}

func (h *HealthHandler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
