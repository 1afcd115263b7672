package memory

import (
	"context"
	"sort"
	"sync"

	"gatehouse/internal/audit"
	id "gatehouse/pkg/domain"

	"github.com/google/uuid"
)

// Store is an in-memory audit store for tests and local development. Events
// are kept per tenant; reads return copies.
type Store struct {
	mu     sync.RWMutex
	events map[id.TenantID][]audit.Event
	seen   map[uuid.UUID]struct{}
}

func New() *Store {
	return &Store{
		events: make(map[id.TenantID][]audit.Event),
		seen:   make(map[uuid.UUID]struct{}),
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.TenantID][]audit.Event)
	s.seen = make(map[uuid.UUID]struct{})
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.TenantID] = append(s.events[event.TenantID], event)
	return nil
}

// AppendWithID is idempotent: replaying an event ID is a no-op, matching the
// ON CONFLICT DO NOTHING semantics of the postgres store.
func (s *Store) AppendWithID(_ context.Context, eventID uuid.UUID, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[eventID]; dup {
		return nil
	}
	s.seen[eventID] = struct{}{}
	event.ID = eventID
	s.events[event.TenantID] = append(s.events[event.TenantID], event)
	return nil
}

func (s *Store) ListByActor(_ context.Context, tenantID id.TenantID, actorID id.ActorID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for _, e := range s.events[tenantID] {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListByResource(_ context.Context, tenantID id.TenantID, resourceType, resourceID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for _, e := range s.events[tenantID] {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListRecent(_ context.Context, tenantID id.TenantID, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]audit.Event{}, s.events[tenantID]...)
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(events []audit.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}
