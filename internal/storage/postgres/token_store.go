package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `
	token_id, mint, name, symbol, keywords, market_cap, volume_24h, is_runner,
	parent_token_id, parent_method, parent_confidence, discovered_at, updated_at, created_at
`

// Upsert inserts a token or refreshes its mutable fields when token_id exists.
// Parent link fields are not touched on conflict.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.TokenRecord) error {
	if t == nil || t.TokenID == "" || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (
			token_id, mint, name, symbol, keywords, market_cap, volume_24h,
			is_runner, discovered_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (token_id) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			keywords = EXCLUDED.keywords,
			market_cap = EXCLUDED.market_cap,
			volume_24h = EXCLUDED.volume_24h,
			is_runner = EXCLUDED.is_runner,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		t.TokenID,
		t.Mint,
		t.Name,
		t.Symbol,
		t.Keywords,
		t.MarketCap,
		t.Volume24h,
		t.IsRunner,
		t.DiscoveredAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(ctx context.Context, tokenID string) (*domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE token_id = $1`

	row := s.pool.QueryRow(ctx, query, tokenID)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by id: %w", err)
	}
	return t, nil
}

// GetByMint retrieves a token by its mint address. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE mint = $1`

	row := s.pool.QueryRow(ctx, query, mint)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}
	return t, nil
}

// ListRunners retrieves runner tokens with market cap >= minMarketCap.
func (s *TokenStore) ListRunners(ctx context.Context, minMarketCap float64) ([]*domain.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE is_runner AND market_cap >= $1
		ORDER BY market_cap DESC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, minMarketCap)
	if err != nil {
		return nil, fmt.Errorf("list runners: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// ListCandidates retrieves tokens not flagged as runners.
func (s *TokenStore) ListCandidates(ctx context.Context) ([]*domain.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE NOT is_runner
		ORDER BY discovered_at ASC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// SetParent records a derivative link on a candidate.
func (s *TokenStore) SetParent(ctx context.Context, tokenID, parentID, method string, confidence int) error {
	if tokenID == "" || parentID == "" || method == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE tokens
		SET parent_token_id = $2, parent_method = $3, parent_confidence = $4
		WHERE token_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, tokenID, parentID, method, confidence)
	if err != nil {
		return fmt.Errorf("set parent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ClearParent removes a derivative link.
func (s *TokenStore) ClearParent(ctx context.Context, tokenID string) error {
	query := `
		UPDATE tokens
		SET parent_token_id = NULL, parent_method = NULL, parent_confidence = NULL
		WHERE token_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("clear parent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*domain.TokenRecord, error) {
	var t domain.TokenRecord
	err := row.Scan(
		&t.TokenID,
		&t.Mint,
		&t.Name,
		&t.Symbol,
		&t.Keywords,
		&t.MarketCap,
		&t.Volume24h,
		&t.IsRunner,
		&t.ParentTokenID,
		&t.ParentMethod,
		&t.ParentConfidence,
		&t.DiscoveredAt,
		&t.UpdatedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTokens(rows pgx.Rows) ([]*domain.TokenRecord, error) {
	var result []*domain.TokenRecord
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return result, nil
}
