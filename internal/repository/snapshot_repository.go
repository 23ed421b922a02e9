package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// SnapshotRepository provides append-only access to the portfolio_snapshot table.
// There are deliberately no update or delete methods.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// InsertSnapshot stores a single snapshot in one statement.
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, s model.PortfolioSnapshot) error {
	query := `
		INSERT INTO portfolio_snapshot (id, portfolio_id, value, timestamp)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		s.ID,
		s.PortfolioID,
		s.Value.String(),
		FormatTimestamp(s.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetSnapshotsInRange retrieves snapshots with start <= timestamp <= end for portfolios
// matching the filter, ordered by timestamp ascending.
func (r *SnapshotRepository) GetSnapshotsInRange(ctx context.Context, filter model.PortfolioFilter, start, end time.Time) ([]model.PortfolioSnapshot, error) {
	query := `
		SELECT s.id, s.portfolio_id, s.value, s.timestamp
		FROM portfolio_snapshot s
		JOIN portfolio p ON p.id = s.portfolio_id
		JOIN client c ON c.id = p.client_id
		WHERE s.timestamp >= ? AND s.timestamp <= ?
	`
	query, args, err := ownerClause(query, []any{FormatTimestamp(start), FormatTimestamp(end)}, filter)
	if err != nil {
		return nil, err
	}
	query += " ORDER BY s.timestamp ASC, s.id ASC"

	return r.querySnapshots(ctx, query, args...)
}

// GetLatestSnapshots retrieves the most recent snapshot per portfolio with timestamp <= asOf,
// for portfolios matching the filter. Portfolios without such a snapshot are absent.
func (r *SnapshotRepository) GetLatestSnapshots(ctx context.Context, filter model.PortfolioFilter, asOf time.Time) ([]model.PortfolioSnapshot, error) {
	cutoff := FormatTimestamp(asOf)
	query := `
		SELECT s.id, s.portfolio_id, s.value, s.timestamp
		FROM portfolio_snapshot s
		JOIN portfolio p ON p.id = s.portfolio_id
		JOIN client c ON c.id = p.client_id
		WHERE s.timestamp = (
			SELECT MAX(s2.timestamp)
			FROM portfolio_snapshot s2
			WHERE s2.portfolio_id = s.portfolio_id AND s2.timestamp <= ?
		)
	`
	query, args, err := ownerClause(query, []any{cutoff}, filter)
	if err != nil {
		return nil, err
	}
	query += " ORDER BY s.portfolio_id ASC, s.id ASC"

	snapshots, err := r.querySnapshots(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Two snapshots can share a timestamp; keep the first per portfolio.
	latest := make([]model.PortfolioSnapshot, 0, len(snapshots))
	seen := make(map[string]bool, len(snapshots))
	for _, s := range snapshots {
		if seen[s.PortfolioID] {
			continue
		}
		seen[s.PortfolioID] = true
		latest = append(latest, s)
	}
	return latest, nil
}

func (r *SnapshotRepository) querySnapshots(ctx context.Context, query string, args ...any) ([]model.PortfolioSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_snapshot table: %w", err)
	}
	defer rows.Close()

	snapshots := []model.PortfolioSnapshot{}

	for rows.Next() {
		var s model.PortfolioSnapshot
		var valueStr, timestampStr string

		if err := rows.Scan(&s.ID, &s.PortfolioID, &valueStr, &timestampStr); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_snapshot table results: %w", err)
		}

		if s.Value, err = parseDecimal("value", valueStr); err != nil {
			return nil, err
		}
		if s.Timestamp, err = ParseTime(timestampStr); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
		}

		snapshots = append(snapshots, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_snapshot table: %w", err)
	}

	return snapshots, nil
}
