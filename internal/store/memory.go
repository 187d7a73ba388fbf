package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. It backs the CLI when no
// database is wanted and is handy in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) index(id uuid.UUID) int {
	for i := range m.records {
		if m.records[i].ID == id {
			return i
		}
	}
	return -1
}

// Create stores a copy of record.
func (m *MemoryStore) Create(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = m.now().UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	m.records = append(m.records, clone(record))
	return nil
}

// Get returns a copy of the record with the given id.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	record := clone(&m.records[i])
	return &record, nil
}

// Last returns the record created last; insertion order breaks ties.
func (m *MemoryStore) Last(_ context.Context) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, ErrNotFound
	}
	last := 0
	for i := range m.records {
		if !m.records[i].CreatedAt.Before(m.records[last].CreatedAt) {
			last = i
		}
	}
	record := clone(&m.records[last])
	return &record, nil
}

// List returns all records in insertion order.
func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, 0, len(m.records))
	for i := range m.records {
		records = append(records, clone(&m.records[i]))
	}
	return records, nil
}

// Update replaces the stored record with the same id.
func (m *MemoryStore) Update(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(record.ID)
	if i < 0 {
		return ErrNotFound
	}
	record.CreatedAt = m.records[i].CreatedAt
	record.UpdatedAt = m.now().UTC()
	m.records[i] = clone(record)
	return nil
}

// Delete removes the record with the given id.
func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return ErrNotFound
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func clone(record *Record) Record {
	out := *record
	out.Distribution = make(map[string]float64, len(record.Distribution))
	for k, v := range record.Distribution {
		out.Distribution[k] = v
	}
	out.EnterpriseDetails = make(map[string]DetailRecord, len(record.EnterpriseDetails))
	for k, v := range record.EnterpriseDetails {
		out.EnterpriseDetails[k] = v
	}
	return out
}
