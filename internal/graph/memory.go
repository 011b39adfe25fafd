package graph

import (
	"context"
	"sync"
)

type edgeKey struct {
	start, end, typ string
}

// MemoryStore keeps the graph in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	persons map[string]Person
	edges   []Relationship
	seen    map[edgeKey]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		persons: make(map[string]Person),
		seen:    make(map[edgeKey]bool),
	}
}

func (s *MemoryStore) SaveTree(_ context.Context, t Tree) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range t.Persons {
		if _, ok := s.persons[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.persons[p.ID] = p
	}
	for _, r := range t.Relationships {
		_, a := s.persons[r.StartID]
		_, b := s.persons[r.EndID]
		k := edgeKey{r.StartID, r.EndID, r.Type}
		if !a || !b || s.seen[k] {
			continue
		}
		s.seen[k] = true
		s.edges = append(s.edges, r)
	}
	return nil
}

func (s *MemoryStore) LoadTree(context.Context) (Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := Tree{
		Persons:       make([]Person, 0, len(s.order)),
		Relationships: make([]Relationship, len(s.edges)),
	}
	for _, id := range s.order {
		t.Persons = append(t.Persons, s.persons[id])
	}
	copy(t.Relationships, s.edges)
	return t, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
