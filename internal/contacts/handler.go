package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/contact-intake/internal/database"
	"github.com/wolfman30/contact-intake/internal/observability/metrics"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

const (
	msgSubmitted       = "Thank you! Your message has been sent successfully. We'll get back to you soon."
	msgSubmitFailed    = "An error occurred while sending your message. Please try again."
	msgInvalidBody     = "Invalid request body"
	msgStatusUpdated   = "Contact status updated successfully"
	msgNotFound        = "Contact not found"
	msgStoreDown       = "Contact store is temporarily unavailable. Please try again later."
	msgListFailed      = "Error fetching contacts"
	msgGetFailed       = "Error fetching contact"
	msgUpdateFailed    = "Error updating contact status"
	msgPostOnlyContact = "This endpoint only accepts POST requests for contact form submissions."
)

// Notifier is told about every accepted submission. Failures are logged only.
type Notifier interface {
	SubmissionReceived(ctx context.Context, sub *Submission) error
}

// Handler handles HTTP requests for contact submissions
type Handler struct {
	repo     Repository
	notifier Notifier
	metrics  *metrics.ContactMetrics
	logger   *logging.Logger
}

// NewHandler creates a new contacts handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// WithNotifier sets the side-channel told about accepted submissions.
func (h *Handler) WithNotifier(n Notifier) *Handler {
	h.notifier = n
	return h
}

// WithMetrics sets the intake metrics.
func (h *Handler) WithMetrics(m *metrics.ContactMetrics) *Handler {
	h.metrics = m
	return h
}

// MessageResponse is the envelope for responses without data.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitResponse is the response for POST /api/contact. Persisted is false
// when the store was unreachable and the submission was not stored.
type SubmitResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Persisted bool   `json:"persisted"`
}

// ListResponse is the response for GET /api/contacts
type ListResponse struct {
	Success bool          `json:"success"`
	Data    []*Submission `json:"data"`
	Count   int           `json:"count"`
}

// DetailResponse is the response for GET /api/contacts/{id}
type DetailResponse struct {
	Success bool        `json:"success"`
	Data    *Submission `json:"data"`
}

// Submit handles POST /api/contact
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmission(r)
	if err != nil {
		h.logger.Warn("failed to decode contact submission", "error", err)
		h.metrics.ObserveSubmission(metrics.OutcomeRejected)
		writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: msgInvalidBody})
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.logger.Info("contact submission rejected", "reason", err)
		h.metrics.ObserveSubmission(metrics.OutcomeRejected)
		writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: userMessage(err)})
		return
	}

	sub, err := h.repo.Create(r.Context(), req)
	if err != nil {
		if IsValidationError(err) {
			h.metrics.ObserveSubmission(metrics.OutcomeRejected)
			writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: userMessage(err)})
			return
		}
		h.logger.Error("failed to save contact", "error", err)
		h.metrics.ObserveSubmission(metrics.OutcomeFailed)
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Success: false, Message: msgSubmitFailed})
		return
	}

	if sub.Persisted {
		h.metrics.ObserveSubmission(metrics.OutcomePersisted)
	} else {
		h.metrics.ObserveSubmission(metrics.OutcomeFallback)
	}
	h.logger.Info("contact submission accepted", "id", sub.ID, "persisted", sub.Persisted, "service", sub.Service)

	if h.notifier != nil {
		if err := h.notifier.SubmissionReceived(r.Context(), sub); err != nil {
			h.logger.Warn("contact notification failed", "error", err, "id", sub.ID)
		}
	}

	writeJSON(w, http.StatusOK, SubmitResponse{
		Success:   true,
		Message:   msgSubmitted,
		Persisted: sub.Persisted,
	})
}

// SubmitInfo handles GET /api/contact and describes how to submit.
func (h *Handler) SubmitInfo(w http.ResponseWriter, r *http.Request) {
	services := make([]string, 0, len(Services))
	for _, s := range Services {
		services = append(services, string(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": false,
		"message": msgPostOnlyContact,
		"info": map[string]any{
			"method":          http.MethodPost,
			"endpoint":        "/api/contact",
			"required_fields": []string{"name", "email", "service", "message"},
			"optional_fields": []string{"company"},
			"services":        services,
		},
		"example": CreateSubmissionRequest{
			Name:    "John Doe",
			Email:   "john@example.com",
			Company: "Company Name",
			Service: ServicePentest,
			Message: "Your message here",
		},
	})
}

// List handles GET /api/contacts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list contacts", "error", err)
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Success: false, Message: msgListFailed})
		return
	}
	if subs == nil {
		subs = []*Submission{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Success: true, Data: subs, Count: len(subs)})
}

// Get handles GET /api/contacts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, MessageResponse{Success: false, Message: msgNotFound})
		return
	}

	sub, err := h.repo.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, ErrSubmissionNotFound):
		writeJSON(w, http.StatusNotFound, MessageResponse{Success: false, Message: msgNotFound})
		return
	case errors.Is(err, database.ErrUnavailable):
		h.logger.Error("contact store unavailable", "error", err, "id", id)
		writeJSON(w, http.StatusServiceUnavailable, MessageResponse{Success: false, Message: msgStoreDown})
		return
	case err != nil:
		h.logger.Error("failed to fetch contact", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Success: false, Message: msgGetFailed})
		return
	}

	writeJSON(w, http.StatusOK, DetailResponse{Success: true, Data: sub})
}

// UpdateStatus handles PUT /api/contacts/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: msgInvalidBody})
		return
	}
	if !req.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: userMessage(ErrInvalidStatus)})
		return
	}

	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, MessageResponse{Success: false, Message: msgNotFound})
		return
	}

	updated, err := h.repo.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: userMessage(err)})
		return
	case errors.Is(err, database.ErrUnavailable):
		h.logger.Error("contact store unavailable", "error", err, "id", id)
		writeJSON(w, http.StatusServiceUnavailable, MessageResponse{Success: false, Message: msgStoreDown})
		return
	case err != nil:
		h.logger.Error("failed to update contact status", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Success: false, Message: msgUpdateFailed})
		return
	case !updated:
		writeJSON(w, http.StatusNotFound, MessageResponse{Success: false, Message: msgNotFound})
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: msgStatusUpdated})
}

// decodeSubmission accepts JSON bodies and classic form posts.
func decodeSubmission(r *http.Request) (*CreateSubmissionRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return &CreateSubmissionRequest{
			Name:    r.PostForm.Get("name"),
			Email:   r.PostForm.Get("email"),
			Company: r.PostForm.Get("company"),
			Service: Service(r.PostForm.Get("service")),
			Message: r.PostForm.Get("message"),
		}, nil
	}

	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "Please fill in all required fields"
	case errors.Is(err, ErrInvalidEmail):
		return "Please provide a valid email address"
	case errors.Is(err, ErrInvalidService):
		return "Please select a valid service"
	case errors.Is(err, ErrInvalidStatus):
		return "Invalid status. Must be one of: new, contacted, converted, archived"
	default:
		return msgSubmitFailed
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
