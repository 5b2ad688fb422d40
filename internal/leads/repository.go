package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository archives accepted leads.
type Repository interface {
	Create(ctx context.Context, in LeadInput) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListRecent(ctx context.Context, limit int) ([]*Lead, error)
}

// Listing bounds shared by every archive and the admin endpoint.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// DefaultMemoryCapacity is how many leads the in-memory archive retains.
const DefaultMemoryCapacity = 1000

// ClampListLimit maps a requested page size onto [1, MaxListLimit]. Zero or
// negative means the default.
func ClampListLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// InMemoryRepository keeps the newest leads up to a fixed capacity, dropping
// the oldest first. Used when no database is configured and in tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	leads    map[string]*Lead
	order    []string
	capacity int
}

// NewInMemoryRepository creates an archive holding DefaultMemoryCapacity leads.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithCapacity(DefaultMemoryCapacity)
}

// NewInMemoryRepositoryWithCapacity creates an archive holding at most capacity leads.
func NewInMemoryRepositoryWithCapacity(capacity int) *InMemoryRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &InMemoryRepository{
		leads:    make(map[string]*Lead),
		capacity: capacity,
	}
}

// Create stores a validated lead.
func (r *InMemoryRepository) Create(ctx context.Context, in LeadInput) (*Lead, error) {
	in = Sanitize(in)
	// The archive accepts anything the most permissive variant accepts.
	if HasErrors(ValidateVariant(in, VariantMinimal)) {
		return nil, ErrInvalidLead
	}

	lead := &Lead{
		ID:        uuid.New().String(),
		LeadInput: in,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.order = append(r.order, lead.ID)
	for len(r.order) > r.capacity {
		delete(r.leads, r.order[0])
		r.order[0] = ""
		r.order = r.order[1:]
	}
	r.mu.Unlock()

	return lead, nil
}

// Len reports how many leads are retained.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}

	return lead, nil
}

// ListRecent returns up to limit leads, newest first.
func (r *InMemoryRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	limit = ClampListLimit(limit)

	r.mu.RLock()
	out := make([]*Lead, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.leads[r.order[i]])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
