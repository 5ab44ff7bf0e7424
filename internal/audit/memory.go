package audit

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store] for tests and embedders that do not
// need a durable trail.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertMany appends the batch.
func (m *MemoryStore) InsertMany(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// Query filters stored events in insertion order.
func (m *MemoryStore) Query(_ context.Context, filter Filter, page Page) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		if !matches(e, filter) {
			continue
		}
		matched = append(matched, e)
	}

	if page.Offset >= len(matched) {
		return []Event{}, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}

	out := make([]Event, len(matched))
	copy(out, matched)
	return out, nil
}

// Len returns the number of stored events.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func matches(e Event, f Filter) bool {
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Severity != nil && e.Severity != *f.Severity {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
