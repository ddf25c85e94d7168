package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process DocumentStore for tests and dev mode.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]map[string]any)}
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc map[string]any) error {
	cloned, err := cloneDoc(doc)
	if err != nil {
		return fmt.Errorf("memstore insert: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], cloned)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, filter Filter) ([]map[string]any, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []map[string]any
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			cloned, err := cloneDoc(doc)
			if err != nil {
				return nil, fmt.Errorf("memstore find: %w", err)
			}
			out = append(out, cloned)
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection string, filter Filter, changes map[string]any) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			for field, value := range changes {
				doc[field] = value
			}
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	kept := docs[:0]
	var count int64
	for _, doc := range docs {
		if matches(doc, filter) {
			count++
			continue
		}
		kept = append(kept, doc)
	}
	s.collections[collection] = kept
	return count, nil
}

func matches(doc map[string]any, filter Filter) bool {
	for field, want := range filter.Eq {
		value, ok := doc[field].(string)
		if !ok || value != want {
			return false
		}
	}
	for field, cutoff := range filter.Lt {
		value, ok := doc[field].(string)
		if !ok || value >= cutoff {
			return false
		}
	}
	return true
}

func cloneDoc(doc map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var cloned map[string]any
	if err := json.Unmarshal(raw, &cloned); err != nil {
		return nil, err
	}
	return cloned, nil
}
