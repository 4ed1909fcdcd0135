package ingestion

import (
	"context"

	"solana-derivative-lab/internal/domain"
)

// TokenSource provides token profiles from external sources.
type TokenSource interface {
	// FetchTokens returns token profiles updated within time range [from, to]
	// (milliseconds, inclusive). Records carry no parent link; the orchestrator
	// assigns those from match results.
	FetchTokens(ctx context.Context, from, to int64) ([]*domain.TokenRecord, error)
}

// SnapshotSource provides market data points from external sources.
type SnapshotSource interface {
	// FetchSnapshots returns the latest market data point for each given mint.
	// Mints with no market data are omitted from the result.
	FetchSnapshots(ctx context.Context, mints []string) ([]*domain.MarketSnapshot, error)
}
