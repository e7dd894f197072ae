// internal/baseline/memory.go
package baseline

import (
	"context"
	"sync"
	"time"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/diff"
)

// Store is the full baseline contract: the diff engine's read-only view
// plus the write side the storage-owning caller uses.
type Store interface {
	diff.Store
	Record(ctx context.Context, rec catalog.BaselineRecord) error
	Close() error
}

// MemoryStore is an in-memory baseline, used in tests and for dry runs
// where novelty against an empty baseline is the point.
type MemoryStore struct {
	mu      sync.RWMutex
	byKey   map[string]map[string]catalog.BaselineRecord
	byToken map[string]map[string][]catalog.BaselineRecord
}

// NewMemoryStore creates an empty in-memory baseline.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:   map[string]map[string]catalog.BaselineRecord{},
		byToken: map[string]map[string][]catalog.BaselineRecord{},
	}
}

// Lookup implements diff.Store.
func (m *MemoryStore) Lookup(_ context.Context, retailer string, key catalog.MatchKey) (*catalog.BaselineRecord, error) {
	if key.IsZero() {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byKey[retailer][key.String()]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// NearNeighbors implements diff.Store.
func (m *MemoryStore) NearNeighbors(_ context.Context, retailer, firstToken string) ([]catalog.BaselineRecord, error) {
	if firstToken == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	neighbors := m.byToken[retailer][firstToken]
	out := make([]catalog.BaselineRecord, len(neighbors))
	copy(out, neighbors)
	return out, nil
}

// Record stores one baseline entry.
func (m *MemoryStore) Record(_ context.Context, rec catalog.BaselineRecord) error {
	key := rec.Key()
	if key.IsZero() {
		return nil
	}
	if rec.LastSeen.IsZero() {
		rec.LastSeen = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.byKey[rec.Retailer] == nil {
		m.byKey[rec.Retailer] = map[string]catalog.BaselineRecord{}
	}
	if _, exists := m.byKey[rec.Retailer][key.String()]; !exists {
		token := catalog.FirstToken(rec.NormalizedTitle)
		if m.byToken[rec.Retailer] == nil {
			m.byToken[rec.Retailer] = map[string][]catalog.BaselineRecord{}
		}
		m.byToken[rec.Retailer][token] = append(m.byToken[rec.Retailer][token], rec)
	}
	m.byKey[rec.Retailer][key.String()] = rec
	return nil
}

// Close implements Store; a memory store has nothing to release.
func (m *MemoryStore) Close() error { return nil }
