package memory

import (
	"context"
	"sort"
	"sync"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// MatchStore is an in-memory implementation of storage.MatchStore.
type MatchStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MatchRecord // keyed by match_id
}

// NewMatchStore creates a new in-memory match store.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		data: make(map[string]*domain.MatchRecord),
	}
}

// Compile-time interface check.
var _ storage.MatchStore = (*MatchStore)(nil)

// Insert adds a new match. Returns ErrDuplicateKey if match_id exists.
func (s *MatchStore) Insert(_ context.Context, m *domain.MatchRecord) error {
	if m == nil || m.MatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(m)
}

// InsertBulk adds multiple matches atomically. Fails entire batch on any duplicate.
func (s *MatchStore) InsertBulk(_ context.Context, matches []*domain.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range matches {
		if m == nil || m.MatchID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[m.MatchID]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, m := range matches {
		if err := s.insertLocked(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *MatchStore) insertLocked(m *domain.MatchRecord) error {
	if _, exists := s.data[m.MatchID]; exists {
		return storage.ErrDuplicateKey
	}
	matchCopy := *m
	s.data[m.MatchID] = &matchCopy
	return nil
}

// GetByCandidateID retrieves all matches for a candidate, ordered by matched_at ASC.
func (s *MatchStore) GetByCandidateID(_ context.Context, candidateID string) ([]*domain.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MatchRecord
	for _, m := range s.data {
		if m.CandidateID == candidateID {
			matchCopy := *m
			result = append(result, &matchCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MatchedAt != result[j].MatchedAt {
			return result[i].MatchedAt < result[j].MatchedAt
		}
		return result[i].MatchID < result[j].MatchID
	})
	return result, nil
}

// GetByTimeRange retrieves matches within [start, end] (inclusive).
func (s *MatchStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MatchRecord
	for _, m := range s.data {
		if m.MatchedAt >= start && m.MatchedAt <= end {
			matchCopy := *m
			result = append(result, &matchCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MatchedAt != result[j].MatchedAt {
			return result[i].MatchedAt < result[j].MatchedAt
		}
		return result[i].MatchID < result[j].MatchID
	})
	return result, nil
}

// GetTop retrieves the highest-confidence matches within [start, end].
func (s *MatchStore) GetTop(ctx context.Context, start, end int64, limit int) ([]*domain.MatchRecord, error) {
	result, err := s.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Confidence != result[j].Confidence {
			return result[i].Confidence > result[j].Confidence
		}
		return result[i].MatchID < result[j].MatchID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
