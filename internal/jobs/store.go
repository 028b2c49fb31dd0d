package jobs

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
)

// Store persists job postings per user. *db.DB implements it. Get returns
// nil, nil for a posting that is missing or owned by someone else.
type Store interface {
	CreateJobPosting(ctx context.Context, p *db.JobPosting) error
	GetJobPosting(ctx context.Context, userID, id uuid.UUID) (*db.JobPosting, error)
	UpdateJobPosting(ctx context.Context, p *db.JobPosting) (bool, error)
	DeleteJobPosting(ctx context.Context, userID, id uuid.UUID) (bool, error)
	ListJobPostings(ctx context.Context, userID uuid.UUID, opts db.ListJobPostingsOptions) ([]db.JobPosting, int, error)
}

var _ Store = (*db.DB)(nil)

// MemoryStore is a Store backed by a map. Listing follows insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	postings map[uuid.UUID]db.JobPosting
	order    []uuid.UUID
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{postings: make(map[uuid.UUID]db.JobPosting), now: time.Now}
}

// CreateJobPosting implements Store.
func (m *MemoryStore) CreateJobPosting(_ context.Context, p *db.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.postings[p.ID] = clonePosting(*p)
	m.order = append(m.order, p.ID)
	return nil
}

// GetJobPosting implements Store.
func (m *MemoryStore) GetJobPosting(_ context.Context, userID, id uuid.UUID) (*db.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.postings[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	out := clonePosting(p)
	return &out, nil
}

// UpdateJobPosting implements Store.
func (m *MemoryStore) UpdateJobPosting(_ context.Context, p *db.JobPosting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.postings[p.ID]
	if !ok || existing.UserID != p.UserID {
		return false, nil
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = m.now()
	m.postings[p.ID] = clonePosting(*p)
	return true, nil
}

// DeleteJobPosting implements Store.
func (m *MemoryStore) DeleteJobPosting(_ context.Context, userID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(m.postings, id)
	m.order = slices.DeleteFunc(m.order, func(o uuid.UUID) bool { return o == id })
	return true, nil
}

// ListJobPostings implements Store.
func (m *MemoryStore) ListJobPostings(_ context.Context, userID uuid.UUID, opts db.ListJobPostingsOptions) ([]db.JobPosting, int, error) {
	m.mu.RLock()
	matched := []db.JobPosting{}
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.postings[m.order[i]]
		if p.UserID == userID && (opts.JobType == "" || p.JobType == opts.JobType) {
			matched = append(matched, clonePosting(p))
		}
	}
	m.mu.RUnlock()

	limit, offset := db.ClampPage(opts.Limit, opts.Offset)
	total := len(matched)
	if offset >= total {
		return []db.JobPosting{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func clonePosting(p db.JobPosting) db.JobPosting {
	p.Categories = append([]string{}, p.Categories...)
	return p
}
