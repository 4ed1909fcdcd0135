package storage

import (
	"context"

	"solana-derivative-lab/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Upsert inserts a token or refreshes its mutable fields (name, symbol,
	// keywords, market data, runner flag) when token_id already exists.
	// Parent link fields are not touched by Upsert.
	Upsert(ctx context.Context, t *domain.TokenRecord) error

	// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tokenID string) (*domain.TokenRecord, error)

	// GetByMint retrieves a token by its mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error)

	// ListRunners retrieves tokens flagged as runners with market cap >= minMarketCap,
	// ordered by market_cap DESC, token_id ASC.
	ListRunners(ctx context.Context, minMarketCap float64) ([]*domain.TokenRecord, error)

	// ListCandidates retrieves tokens not flagged as runners, ordered by
	// discovered_at ASC, token_id ASC.
	ListCandidates(ctx context.Context) ([]*domain.TokenRecord, error)

	// SetParent records a derivative link on a candidate.
	// Returns ErrNotFound if the token does not exist.
	SetParent(ctx context.Context, tokenID, parentID, method string, confidence int) error

	// ClearParent removes a derivative link. Returns ErrNotFound if the token
	// does not exist.
	ClearParent(ctx context.Context, tokenID string) error
}

// MatchStore provides access to the append-only matches history.
type MatchStore interface {
	// Insert adds a new match. Returns ErrDuplicateKey if match_id exists.
	Insert(ctx context.Context, m *domain.MatchRecord) error

	// InsertBulk adds multiple matches atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, matches []*domain.MatchRecord) error

	// GetByCandidateID retrieves all matches for a candidate, ordered by matched_at ASC.
	GetByCandidateID(ctx context.Context, candidateID string) ([]*domain.MatchRecord, error)

	// GetByTimeRange retrieves matches within [start, end] (inclusive),
	// ordered by matched_at ASC, match_id ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.MatchRecord, error)

	// GetTop retrieves the highest-confidence matches within [start, end],
	// ordered by confidence DESC, match_id ASC, limited to limit rows.
	GetTop(ctx context.Context, start, end int64, limit int) ([]*domain.MatchRecord, error)
}

// SnapshotStore provides access to market_snapshots timeseries storage.
type SnapshotStore interface {
	// InsertBatch adds snapshot points. Duplicate (mint, timestamp) points are
	// deduplicated by the backend.
	InsertBatch(ctx context.Context, snapshots []*domain.MarketSnapshot) error

	// GetLatestByMint retrieves the most recent snapshot for a mint.
	// Returns ErrNotFound if the mint has no snapshots.
	GetLatestByMint(ctx context.Context, mint string) (*domain.MarketSnapshot, error)

	// GetRange retrieves snapshots for a mint within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetRange(ctx context.Context, mint string, start, end int64) ([]*domain.MarketSnapshot, error)
}
