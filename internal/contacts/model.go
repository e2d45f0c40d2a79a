package contacts

import (
	"regexp"
	"strings"
	"time"
)

// Service is the offering a prospect is asking about.
type Service string

const (
	ServiceBasicScan Service = "basic-scan"
	ServicePentest   Service = "pentest"
	ServiceTraining  Service = "training"
	ServiceAudit     Service = "audit"
	ServiceWordPress Service = "wordpress"
	ServiceOther     Service = "other"
)

// Services lists every accepted service in display order.
var Services = []Service{ServiceBasicScan, ServicePentest, ServiceTraining, ServiceAudit, ServiceWordPress, ServiceOther}

// Valid reports whether s is one of Services.
func (s Service) Valid() bool {
	for _, known := range Services {
		if s == known {
			return true
		}
	}
	return false
}

// Status is the follow-up state of a submission. Any status may follow any other.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusArchived  Status = "archived"
)

// Statuses lists every lifecycle value.
var Statuses = []Status{StatusNew, StatusContacted, StatusConverted, StatusArchived}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Submission represents a contact form entry
type Submission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Service   Service   `json:"service"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Persisted is false for synthetic records produced while the store is
	// unreachable.
	Persisted bool `json:"-"`
}

// CreateSubmissionRequest represents the request body for POST /api/contact
type CreateSubmissionRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company string  `json:"company"`
	Service Service `json:"service"`
	Message string  `json:"message"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateSubmissionRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Service = Service(strings.TrimSpace(string(r.Service)))
	r.Message = strings.TrimSpace(r.Message)
}

// Validate checks required fields first, then the email shape, then the service.
func (r *CreateSubmissionRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(string(r.Service)) == "" ||
		strings.TrimSpace(r.Message) == "" {
		return ErrMissingFields
	}
	if !ValidEmail(strings.TrimSpace(r.Email)) {
		return ErrInvalidEmail
	}
	if !Service(strings.TrimSpace(string(r.Service))).Valid() {
		return ErrInvalidService
	}
	return nil
}

// UpdateStatusRequest represents the request body for PUT /api/contacts/{id}/status
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}
