package memory

import (
	"context"
	"sort"
	"sync"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenRecord // keyed by token_id
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.TokenRecord),
	}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts a token or refreshes its mutable fields.
func (s *TokenStore) Upsert(_ context.Context, t *domain.TokenRecord) error {
	if t == nil || t.TokenID == "" || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[t.TokenID]; ok {
		updated := *existing
		updated.Name = t.Name
		updated.Symbol = t.Symbol
		updated.Keywords = append([]string(nil), t.Keywords...)
		updated.MarketCap = t.MarketCap
		updated.Volume24h = t.Volume24h
		updated.IsRunner = t.IsRunner
		updated.UpdatedAt = t.UpdatedAt
		s.data[t.TokenID] = &updated
		return nil
	}

	tokenCopy := *t
	tokenCopy.Keywords = append([]string(nil), t.Keywords...)
	s.data[t.TokenID] = &tokenCopy
	return nil
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(_ context.Context, tokenID string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[tokenID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyToken(t), nil
}

// GetByMint retrieves a token by its mint address. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data {
		if t.Mint == mint {
			return copyToken(t), nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListRunners retrieves runner tokens with market cap >= minMarketCap.
func (s *TokenStore) ListRunners(_ context.Context, minMarketCap float64) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenRecord
	for _, t := range s.data {
		if t.IsRunner && t.MarketCap >= minMarketCap {
			result = append(result, copyToken(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MarketCap != result[j].MarketCap {
			return result[i].MarketCap > result[j].MarketCap
		}
		return result[i].TokenID < result[j].TokenID
	})
	return result, nil
}

// ListCandidates retrieves tokens not flagged as runners.
func (s *TokenStore) ListCandidates(_ context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenRecord
	for _, t := range s.data {
		if !t.IsRunner {
			result = append(result, copyToken(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DiscoveredAt != result[j].DiscoveredAt {
			return result[i].DiscoveredAt < result[j].DiscoveredAt
		}
		return result[i].TokenID < result[j].TokenID
	})
	return result, nil
}

// SetParent records a derivative link on a candidate.
func (s *TokenStore) SetParent(_ context.Context, tokenID, parentID, method string, confidence int) error {
	if tokenID == "" || parentID == "" || method == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.data[tokenID]
	if !ok {
		return storage.ErrNotFound
	}

	updated := *t
	updated.ParentTokenID = &parentID
	updated.ParentMethod = &method
	updated.ParentConfidence = &confidence
	s.data[tokenID] = &updated
	return nil
}

// ClearParent removes a derivative link.
func (s *TokenStore) ClearParent(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.data[tokenID]
	if !ok {
		return storage.ErrNotFound
	}

	updated := *t
	updated.ParentTokenID = nil
	updated.ParentMethod = nil
	updated.ParentConfidence = nil
	s.data[tokenID] = &updated
	return nil
}

func copyToken(t *domain.TokenRecord) *domain.TokenRecord {
	tokenCopy := *t
	tokenCopy.Keywords = append([]string(nil), t.Keywords...)
	return &tokenCopy
}
