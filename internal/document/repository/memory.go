package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document"
)

// MemoryRepo is an in-memory document repository used in unit tests and when
// the service runs without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
	order []string
	seq   int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.store {
		if d.ActivityID == doc.ActivityID && d.GroupID == doc.GroupID {
			return "", fmt.Errorf("document for activity %s group %d already exists", doc.ActivityID, doc.GroupID)
		}
	}
	if doc.ID == "" {
		m.seq++
		doc.ID = fmt.Sprintf("doc_%d_%d", time.Now().UnixNano(), m.seq)
	}
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	cp := *doc
	m.store[doc.ID] = &cp
	m.order = append(m.order, doc.ID)
	return doc.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) GetByActivityGroup(ctx context.Context, activityID string, groupID int64) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.ActivityID == activityID && d.GroupID == groupID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) SetKey(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Key = key
	d.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) SetLocked(ctx context.Context, id string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Locked = locked
	d.UpdatedAt = time.Now()
	return nil
}

// ListAll returns every document oldest-first, matching the Mongo
// repository's createdAt sort.
func (m *MemoryRepo) ListAll(ctx context.Context) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.store))
	for _, id := range m.order {
		cp := *m.store[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepo) DeleteByActivity(ctx context.Context, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	for _, id := range m.order {
		if m.store[id].ActivityID == activityID {
			delete(m.store, id)
		} else {
			kept = append(kept, id)
		}
	}
	m.order = kept
	return nil
}
