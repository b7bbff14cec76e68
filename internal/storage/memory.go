package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps player records in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*PlayerRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*PlayerRecord)}
}

// Save stores a copy of rec.
func (s *MemoryStore) Save(ctx context.Context, rec *PlayerRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Get returns the most recently seen record for name.
func (s *MemoryStore) Get(ctx context.Context, name string) (*PlayerRecord, error) {
	if name == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *PlayerRecord
	for _, rec := range s.records {
		if !strings.EqualFold(rec.Name, name) {
			continue
		}
		if found == nil || rec.LastSeen.After(found.LastSeen) {
			found = rec
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneRecord(found), nil
}

// GetByID returns the record for id.
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// List returns records, most recently seen first.
func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]*PlayerRecord, error) {
	s.mu.RLock()
	all := make([]*PlayerRecord, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, cloneRecord(rec))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastSeen.Equal(all[j].LastSeen) {
			return all[i].LastSeen.After(all[j].LastSeen)
		}
		return all[i].Name < all[j].Name
	})
	return paginate(all, limit, offset), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func paginate(records []*PlayerRecord, limit, offset int) []*PlayerRecord {
	if offset < 0 {
		offset = 0
	}
	if offset > len(records) {
		offset = len(records)
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end]
}

func cloneRecord(rec *PlayerRecord) *PlayerRecord {
	if rec == nil {
		return nil
	}
	clone := *rec
	return &clone
}
