package stub

import (
	"context"

	"solana-derivative-lab/internal/domain"
)

// StubTokenSource returns fixed in-memory token profiles for testing.
// Implements ingestion.TokenSource interface.
type StubTokenSource struct {
	tokens []*domain.TokenRecord
}

// NewStubTokenSource creates a new stub token source with the given records.
func NewStubTokenSource(tokens []*domain.TokenRecord) *StubTokenSource {
	return &StubTokenSource{tokens: tokens}
}

// FetchTokens returns records updated within the time range.
// Returns copies to prevent mutation.
func (s *StubTokenSource) FetchTokens(_ context.Context, from, to int64) ([]*domain.TokenRecord, error) {
	var result []*domain.TokenRecord
	for _, t := range s.tokens {
		if t.UpdatedAt >= from && t.UpdatedAt <= to {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

// StubSnapshotSource returns fixed in-memory market snapshots for testing.
// Implements ingestion.SnapshotSource interface.
type StubSnapshotSource struct {
	snapshots map[string]*domain.MarketSnapshot // keyed by mint
}

// NewStubSnapshotSource creates a new stub snapshot source.
func NewStubSnapshotSource(snapshots []*domain.MarketSnapshot) *StubSnapshotSource {
	m := make(map[string]*domain.MarketSnapshot)
	for _, snap := range snapshots {
		m[snap.Mint] = snap
	}
	return &StubSnapshotSource{snapshots: m}
}

// FetchSnapshots returns the snapshot for each known mint; unknown mints are omitted.
func (s *StubSnapshotSource) FetchSnapshots(_ context.Context, mints []string) ([]*domain.MarketSnapshot, error) {
	var result []*domain.MarketSnapshot
	for _, mint := range mints {
		snap, exists := s.snapshots[mint]
		if !exists {
			continue
		}
		copy := *snap
		result = append(result, &copy)
	}
	return result, nil
}
