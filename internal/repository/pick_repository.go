package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/emretalan/muse-db/internal/models"
)

// PickRepository handles the append-only session history of completed picks.
type PickRepository struct {
	db *sql.DB
}

// NewPickRepository creates a new PickRepository.
func NewPickRepository(db *sql.DB) *PickRepository {
	return &PickRepository{db: db}
}

// RecordPick appends one pick record with a snapshot of the filters used.
func (r *PickRepository) RecordPick(ctx context.Context, sessionID string, movieID int, filters models.FilterSpec) error {
	snapshot, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("marshal filter snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pick_records (session_id, movie_id, filters)
		VALUES ($1, $2, $3::jsonb)
	`, sessionID, movieID, string(snapshot))
	if err != nil {
		return fmt.Errorf("insert pick record: %w", err)
	}
	return nil
}

// RecentMovieIDs returns the movie ids of the session's most recent picks,
// newest first, bounded to limit.
func (r *PickRepository) RecentMovieIDs(ctx context.Context, sessionID string, limit int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT movie_id FROM pick_records
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent picks: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, limit)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pick record: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasPicks reports whether any pick record exists for the session.
func (r *PickRepository) HasPicks(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM pick_records WHERE session_id = $1)
	`, sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query pick existence: %w", err)
	}
	return exists, nil
}
