package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
)

var ErrNotFound = errors.New("activity not found")

// MemoryRepo is an in-memory activity repository used in unit tests and when
// the service runs without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*activity.Activity
	seq   int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*activity.Activity)}
}

func (m *MemoryRepo) Create(ctx context.Context, act *activity.Activity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if act.ID == "" {
		m.seq++
		act.ID = fmt.Sprintf("act_%d_%d", time.Now().UnixNano(), m.seq)
	}
	act.CreatedAt = time.Now()
	act.UpdatedAt = act.CreatedAt
	cp := *act
	m.store[act.ID] = &cp
	return act.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*activity.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.store[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Update(ctx context.Context, act *activity.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[act.ID]
	if !ok {
		return ErrNotFound
	}
	act.CreatedAt = cur.CreatedAt
	act.UpdatedAt = time.Now()
	cp := *act
	m.store[act.ID] = &cp
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
