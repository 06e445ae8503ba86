package events

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the document store and the view flow.
const (
	TypeDocumentLocked   = "document_locked"
	TypeDocumentUnlocked = "document_unlocked"
	TypeDocumentViewed   = "document_viewed"
)

// Event is a domain event for audit and notification consumers. Delivery is
// synchronous; consumption is an external concern.
type Event struct {
	Type        string    `json:"type"`
	DocumentID  string    `json:"documentId"`
	ActivityID  string    `json:"activityId"`
	GroupID     int64     `json:"groupId"`
	DocumentKey string    `json:"documentKey"`
	ActorID     string    `json:"actorId"`
	Time        time.Time `json:"time"`
}

// Sink receives domain events.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// MemorySink records events in memory. Used in unit tests and as the default
// sink when Redis is not configured.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
