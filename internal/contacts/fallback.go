package contacts

import (
	"math/rand/v2"
	"time"
)

// syntheticIDSpan bounds the ids handed out for non-persisted submissions.
// Synthetic ids are negative; the store only assigns positive ones.
const syntheticIDSpan = 1_000_000

// FallbackSource supplies the degraded-mode answers used when the store is
// unreachable.
type FallbackSource interface {
	// Synthesize returns a non-persisted record for an accepted submission.
	Synthesize(req *CreateSubmissionRequest) *Submission
	// Records returns the illustrative listing shown while the store is down.
	Records() []*Submission
}

// IsSyntheticID reports whether id can only have come from a FallbackSource.
func IsSyntheticID(id int64) bool {
	return id <= 0
}

// DefaultFallback is the production FallbackSource.
type DefaultFallback struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to a random id in [-syntheticIDSpan, -1].
	NewID func() int64
}

// NewDefaultFallback returns a DefaultFallback using the wall clock.
func NewDefaultFallback() *DefaultFallback {
	return &DefaultFallback{}
}

func (f *DefaultFallback) now() time.Time {
	if f != nil && f.Now != nil {
		return f.Now().UTC()
	}
	return time.Now().UTC()
}

func (f *DefaultFallback) newID() int64 {
	if f != nil && f.NewID != nil {
		return f.NewID()
	}
	return -(rand.Int64N(syntheticIDSpan) + 1)
}

// Synthesize echoes the submitted fields back with a synthetic id.
func (f *DefaultFallback) Synthesize(req *CreateSubmissionRequest) *Submission {
	now := f.now()
	return &Submission{
		ID:        f.newID(),
		Name:      req.Name,
		Email:     req.Email,
		Company:   req.Company,
		Service:   req.Service,
		Message:   req.Message,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
		Persisted: false,
	}
}

// Records returns two sample submissions, newest first.
func (f *DefaultFallback) Records() []*Submission {
	now := f.now()
	return []*Submission{
		{
			ID:        -1,
			Name:      "John Doe",
			Email:     "john@example.com",
			Company:   "Tech Corp",
			Service:   ServicePentest,
			Message:   "This is a sample contact form submission for testing purposes.",
			Status:    StatusNew,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        -2,
			Name:      "Jane Smith",
			Email:     "jane@example.com",
			Company:   "Security Inc",
			Service:   ServiceAudit,
			Message:   "Another sample contact for demonstration.",
			Status:    StatusContacted,
			CreatedAt: now.Add(-24 * time.Hour),
			UpdatedAt: now,
		},
	}
}
