package contacts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for submission storage
type Repository interface {
	Create(ctx context.Context, req *CreateSubmissionRequest) (*Submission, error)
	List(ctx context.Context) ([]*Submission, error)
	GetByID(ctx context.Context, id int64) (*Submission, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (bool, error)
}

// InMemoryRepository is a Repository kept in process memory. Used for tests
// and dry runs; nothing survives a restart.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]*Submission
	now    func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		items:  make(map[int64]*Submission),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new submission with status new
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateSubmissionRequest) (*Submission, error) {
	normalized := *req
	normalized.Normalize()
	if err := normalized.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	sub := &Submission{
		ID:        r.nextID,
		Name:      normalized.Name,
		Email:     normalized.Email,
		Company:   normalized.Company,
		Service:   normalized.Service,
		Message:   normalized.Message,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
		Persisted: true,
	}
	r.nextID++
	r.items[sub.ID] = sub

	out := *sub
	return &out, nil
}

// List returns every submission, newest first
func (r *InMemoryRepository) List(ctx context.Context) ([]*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Submission, 0, len(r.items))
	for _, sub := range r.items {
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetByID retrieves a submission by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.items[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	out := *sub
	return &out, nil
}

// UpdateStatus sets the status and refreshes updated_at
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id int64, status Status) (bool, error) {
	if !status.Valid() {
		return false, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[id]
	if !ok {
		return false, nil
	}
	now := r.now()
	if now.Before(sub.UpdatedAt) {
		now = sub.UpdatedAt
	}
	sub.Status = status
	sub.UpdatedAt = now
	return true, nil
}
