// Package profiles stores raw profile records and imports public GitHub data into them.
package profiles

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
)

// Store persists one raw profile record per user. Get returns nil, nil
// when the user has no record.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Put(ctx context.Context, userID uuid.UUID, raw []byte, source string) error
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID][]byte)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, userID uuid.UUID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, userID uuid.UUID, raw []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = append([]byte(nil), raw...)
	return nil
}

// PostgresStore is a Store over the profiles table.
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore wraps database.
func NewPostgresStore(database *db.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

// Get implements Store.
func (p *PostgresStore) Get(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	rec, err := p.db.GetProfile(ctx, userID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Content, nil
}

// Put implements Store.
func (p *PostgresStore) Put(ctx context.Context, userID uuid.UUID, raw []byte, source string) error {
	return p.db.UpsertProfile(ctx, userID, json.RawMessage(raw), source)
}
