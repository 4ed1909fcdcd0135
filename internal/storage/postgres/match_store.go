package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// MatchStore implements storage.MatchStore using PostgreSQL.
type MatchStore struct {
	pool *Pool
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(pool *Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MatchStore = (*MatchStore)(nil)

const matchColumns = `
	match_id, candidate_id, runner_id, method, confidence, explanation,
	agreement_count, matched_at, created_at
`

const insertMatchQuery = `
	INSERT INTO matches (
		match_id, candidate_id, runner_id, method, confidence, explanation,
		agreement_count, matched_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Insert adds a new match. Returns ErrDuplicateKey if match_id exists.
func (s *MatchStore) Insert(ctx context.Context, m *domain.MatchRecord) error {
	if m == nil || m.MatchID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertMatchQuery,
		m.MatchID,
		m.CandidateID,
		m.RunnerID,
		m.Method,
		m.Confidence,
		m.Explanation,
		m.AgreementCount,
		m.MatchedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// InsertBulk adds multiple matches atomically. Fails entire batch on any duplicate.
func (s *MatchStore) InsertBulk(ctx context.Context, matches []*domain.MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, m := range matches {
		if m == nil || m.MatchID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertMatchQuery,
			m.MatchID,
			m.CandidateID,
			m.RunnerID,
			m.Method,
			m.Confidence,
			m.Explanation,
			m.AgreementCount,
			m.MatchedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("bulk insert match: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

// GetByCandidateID retrieves all matches for a candidate, ordered by matched_at ASC.
func (s *MatchStore) GetByCandidateID(ctx context.Context, candidateID string) ([]*domain.MatchRecord, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE candidate_id = $1
		ORDER BY matched_at ASC, match_id ASC
	`

	rows, err := s.pool.Query(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get matches by candidate: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// GetByTimeRange retrieves matches within [start, end] (inclusive).
func (s *MatchStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.MatchRecord, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE matched_at >= $1 AND matched_at <= $2
		ORDER BY matched_at ASC, match_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get matches by time range: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// GetTop retrieves the highest-confidence matches within [start, end].
func (s *MatchStore) GetTop(ctx context.Context, start, end int64, limit int) ([]*domain.MatchRecord, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE matched_at >= $1 AND matched_at <= $2
		ORDER BY confidence DESC, match_id ASC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("get top matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

func scanMatches(rows pgx.Rows) ([]*domain.MatchRecord, error) {
	var result []*domain.MatchRecord
	for rows.Next() {
		var m domain.MatchRecord
		err := rows.Scan(
			&m.MatchID,
			&m.CandidateID,
			&m.RunnerID,
			&m.Method,
			&m.Confidence,
			&m.Explanation,
			&m.AgreementCount,
			&m.MatchedAt,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return result, nil
}
