package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// CreateCoherenceWarning raises a pending coherence warning (§5,
// Coherence Check).
func (s *Store) CreateCoherenceWarning(ctx context.Context, w *chunkmodel.CoherenceWarning) (*chunkmodel.CoherenceWarning, error) {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Status == "" {
		w.Status = chunkmodel.WarningPending
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coherence_warnings (id, project_id, task_id, concern, suggestion, status, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.ProjectID, w.TaskID, w.Concern, w.Suggestion, string(w.Status), w.CreatedAt, w.ResolvedAt)
	if err != nil {
		return nil, verrors.Transient("create coherence warning", err)
	}
	return w, nil
}

// ListPendingWarnings returns a project's unresolved coherence
// warnings.
func (s *Store) ListPendingWarnings(ctx context.Context, projectID string) ([]*chunkmodel.CoherenceWarning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, task_id, concern, suggestion, status, created_at, resolved_at
		FROM coherence_warnings WHERE project_id = ? AND status = ? ORDER BY created_at ASC`,
		projectID, string(chunkmodel.WarningPending))
	if err != nil {
		return nil, verrors.Transient("list pending warnings", err)
	}
	defer rows.Close()

	var out []*chunkmodel.CoherenceWarning
	for rows.Next() {
		w := &chunkmodel.CoherenceWarning{}
		var status string
		var resolvedAt sql.NullTime
		if err := rows.Scan(&w.ID, &w.ProjectID, &w.TaskID, &w.Concern, &w.Suggestion, &status, &w.CreatedAt, &resolvedAt); err != nil {
			return nil, verrors.Transient("scan coherence warning", err)
		}
		w.Status = chunkmodel.CoherenceWarningStatus(status)
		if resolvedAt.Valid {
			w.ResolvedAt = &resolvedAt.Time
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ResolveWarning sets a warning's terminal resolution status
// (executed, dismissed, or modified per the human-in-the-loop response
// to the coherence gate).
func (s *Store) ResolveWarning(ctx context.Context, id string, status chunkmodel.CoherenceWarningStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE coherence_warnings SET status = ?, resolved_at = ? WHERE id = ?`,
		string(status), nowUTC(), id)
	if err != nil {
		return verrors.Transient("resolve warning", err)
	}
	return rowsAffectedOrNotFound(res, "coherence_warning", id)
}
