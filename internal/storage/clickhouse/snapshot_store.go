package clickhouse

import (
	"context"
	"fmt"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// The market_snapshots table is a ReplacingMergeTree keyed on (mint, timestamp),
// so duplicate points are deduplicated by the engine on merge.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new ClickHouse-backed snapshot store.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBatch adds snapshot points using a prepared batch.
func (s *SnapshotStore) InsertBatch(ctx context.Context, snapshots []*domain.MarketSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for i, snap := range snapshots {
		if snap == nil {
			return fmt.Errorf("%w: snapshot at index %d is nil", storage.ErrInvalidInput, i)
		}
		if snap.Mint == "" {
			return fmt.Errorf("%w: snapshot at index %d has empty mint", storage.ErrInvalidInput, i)
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO market_snapshots (mint, timestamp, price_usd, market_cap, volume_24h)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		if err := batch.Append(
			snap.Mint,
			snap.Timestamp,
			snap.PriceUSD,
			snap.MarketCap,
			snap.Volume24h,
		); err != nil {
			return fmt.Errorf("append snapshot for mint %s: %w", snap.Mint, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetLatestByMint retrieves the most recent snapshot for a mint.
func (s *SnapshotStore) GetLatestByMint(ctx context.Context, mint string) (*domain.MarketSnapshot, error) {
	if mint == "" {
		return nil, fmt.Errorf("%w: mint is empty", storage.ErrInvalidInput)
	}

	row := s.conn.QueryRow(ctx, `
		SELECT mint, timestamp, price_usd, market_cap, volume_24h
		FROM market_snapshots FINAL
		WHERE mint = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, mint)

	var snap domain.MarketSnapshot
	if err := row.Scan(&snap.Mint, &snap.Timestamp, &snap.PriceUSD, &snap.MarketCap, &snap.Volume24h); err != nil {
		return nil, storage.ErrNotFound
	}
	return &snap, nil
}

// GetRange retrieves snapshots for a mint within [start, end] inclusive.
func (s *SnapshotStore) GetRange(ctx context.Context, mint string, start, end int64) ([]*domain.MarketSnapshot, error) {
	if mint == "" {
		return nil, fmt.Errorf("%w: mint is empty", storage.ErrInvalidInput)
	}
	if start > end {
		return nil, fmt.Errorf("%w: start %d is after end %d", storage.ErrInvalidInput, start, end)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT mint, timestamp, price_usd, market_cap, volume_24h
		FROM market_snapshots FINAL
		WHERE mint = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, mint, start, end)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.MarketSnapshot
	for rows.Next() {
		var snap domain.MarketSnapshot
		if err := rows.Scan(&snap.Mint, &snap.Timestamp, &snap.PriceUSD, &snap.MarketCap, &snap.Volume24h); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}
