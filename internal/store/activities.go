package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// RecordActivity appends an immutable activity log entry. Activities
// are never updated or deleted; they are the raw material the
// orientation-rewrite trigger counts against (§4.6).
func (s *Store) RecordActivity(ctx context.Context, a *chunkmodel.Activity) (*chunkmodel.Activity, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = nowUTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, project_id, action, details, timestamp, tick) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.Action, a.Details, a.Timestamp, a.Tick)
	if err != nil {
		return nil, verrors.Transient("record activity", err)
	}
	return a, nil
}

// RecentActivities returns the most recent n activities for a project,
// newest first.
func (s *Store) RecentActivities(ctx context.Context, projectID string, n int) ([]*chunkmodel.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, action, details, timestamp, tick FROM activities
		 WHERE project_id = ? ORDER BY timestamp DESC LIMIT ?`, projectID, n)
	if err != nil {
		return nil, verrors.Transient("recent activities", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Activity
	for rows.Next() {
		a := &chunkmodel.Activity{}
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Action, &a.Details, &a.Timestamp, &a.Tick); err != nil {
			return nil, verrors.Transient("scan activity", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountActivitiesSince counts activities recorded since a given tick,
// used by the orientation-rewrite activity-count trigger (§4.6).
func (s *Store) CountActivitiesSince(ctx context.Context, projectID string, sinceTick chunkmodel.Tick) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE project_id = ? AND tick > ?`, projectID, sinceTick)
	if err := row.Scan(&n); err != nil {
		return 0, verrors.Transient("count activities since", err)
	}
	return n, nil
}
