package memory

import (
	"context"
	"sort"
	"sync"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// snapshotKey identifies one snapshot point.
type snapshotKey struct {
	mint string
	ts   int64
}

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[snapshotKey]*domain.MarketSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[snapshotKey]*domain.MarketSnapshot),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBatch adds snapshot points, deduplicating by (mint, timestamp).
func (s *SnapshotStore) InsertBatch(_ context.Context, snapshots []*domain.MarketSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		if snap == nil || snap.Mint == "" {
			return storage.ErrInvalidInput
		}
		snapCopy := *snap
		s.data[snapshotKey{mint: snap.Mint, ts: snap.Timestamp}] = &snapCopy
	}
	return nil
}

// GetLatestByMint retrieves the most recent snapshot for a mint.
func (s *SnapshotStore) GetLatestByMint(_ context.Context, mint string) (*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.MarketSnapshot
	for key, snap := range s.data {
		if key.mint != mint {
			continue
		}
		if latest == nil || snap.Timestamp > latest.Timestamp {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *latest
	return &snapCopy, nil
}

// GetRange retrieves snapshots for a mint within [start, end] (inclusive).
func (s *SnapshotStore) GetRange(_ context.Context, mint string, start, end int64) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketSnapshot
	for key, snap := range s.data {
		if key.mint != mint || snap.Timestamp < start || snap.Timestamp > end {
			continue
		}
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}
