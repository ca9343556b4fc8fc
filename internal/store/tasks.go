package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// CreateTask inserts a new task in ready status.
func (s *Store) CreateTask(ctx context.Context, t *chunkmodel.Task) (*chunkmodel.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = chunkmodel.TaskReady
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = nowUTC()
	}
	dependsOn, _ := json.Marshal(t.DependsOn)
	blockedBy, _ := json.Marshal(t.BlockedBy)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, skill_area, status, depends_on, blocked_by,
		                    outcome, failure_reason, failure_context, created_at, started_at, completed_at, failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.SkillArea, string(t.Status),
		string(dependsOn), string(blockedBy), t.Outcome, t.FailureReason, t.FailureContext,
		t.CreatedAt, t.StartedAt, t.CompletedAt, t.FailedAt)
	if err != nil {
		return nil, verrors.Transient("create task", err)
	}
	return t, nil
}

func scanTask(row interface {
	Scan(dest ...any) error
}) (*chunkmodel.Task, error) {
	t := &chunkmodel.Task{}
	var status, dependsOn, blockedBy string
	var startedAt, completedAt, failedAt sql.NullTime

	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.SkillArea, &status,
		&dependsOn, &blockedBy, &t.Outcome, &t.FailureReason, &t.FailureContext,
		&t.CreatedAt, &startedAt, &completedAt, &failedAt); err != nil {
		return nil, err
	}
	t.Status = chunkmodel.TaskStatus(status)
	json.Unmarshal([]byte(dependsOn), &t.DependsOn)
	json.Unmarshal([]byte(blockedBy), &t.BlockedBy)
	if startedAt.Valid {
		t.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if failedAt.Valid {
		t.FailedAt = &failedAt.Time
	}
	return t, nil
}

const taskColumns = `id, project_id, title, description, skill_area, status, depends_on, blocked_by,
                      outcome, failure_reason, failure_context, created_at, started_at, completed_at, failed_at`

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*chunkmodel.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("task", id)
		}
		return nil, verrors.Transient("get task", err)
	}
	return t, nil
}

// TaskFilter narrows ListTasks by status and/or skill area, matching
// the teacher's dynamic-filter-building pattern in operational.go.
type TaskFilter struct {
	ProjectID string
	Status    chunkmodel.TaskStatus
	SkillArea string
}

// ListTasks returns tasks matching filter, ordered by creation time.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*chunkmodel.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	args := []any{filter.ProjectID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SkillArea != "" {
		query += ` AND skill_area = ?`
		args = append(args, filter.SkillArea)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, verrors.Transient("list tasks", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, verrors.Transient("scan task", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ClaimTask transitions a ready task to in_progress, race-safely via a
// WHERE status=? guard, adapted from the teacher's ClaimTask.
func (s *Store) ClaimTask(ctx context.Context, id string) (*chunkmodel.Task, error) {
	now := nowUTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		string(chunkmodel.TaskInProgress), now, id, string(chunkmodel.TaskReady))
	if err != nil {
		return nil, verrors.Transient("claim task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, verrors.Transient("claim task rows affected", err)
	}
	if n == 0 {
		return nil, verrors.Conflict("task " + id + " was not in ready status")
	}
	return s.GetTask(ctx, id)
}

// CompleteTask marks a task done with its outcome text.
func (s *Store) CompleteTask(ctx context.Context, id, outcome string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, outcome = ?, completed_at = ? WHERE id = ?`,
		string(chunkmodel.TaskDone), outcome, nowUTC(), id)
	if err != nil {
		return verrors.Transient("complete task", err)
	}
	return rowsAffectedOrNotFound(res, "task", id)
}

// FailTask records a failure reason and the context under which it
// failed (used to seed an attempt chunk, §4.4/§5), then resolves the
// task per the documented failure policy: retry leaves it ready for a
// later cycle, otherwise it is marked done with the failure recorded as
// its outcome. blocked is never a valid outcome of a failure on its
// own — that status is reserved for tasks with an open blocking
// question or an unmet dependency.
func (s *Store) FailTask(ctx context.Context, id, reason, failureContext string, retry bool) error {
	now := nowUTC()
	var query string
	var args []any
	if retry {
		query = `UPDATE tasks SET status = ?, failure_reason = ?, failure_context = ?, failed_at = ?, started_at = NULL WHERE id = ?`
		args = []any{string(chunkmodel.TaskReady), reason, failureContext, now, id}
	} else {
		query = `UPDATE tasks SET status = ?, failure_reason = ?, failure_context = ?, failed_at = ?, outcome = ?, completed_at = ? WHERE id = ?`
		args = []any{string(chunkmodel.TaskDone), reason, failureContext, now, "failed: " + reason, now, id}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return verrors.Transient("fail task", err)
	}
	return rowsAffectedOrNotFound(res, "task", id)
}

// BlockTask marks a task blocked pending answers to the given question
// ids.
func (s *Store) BlockTask(ctx context.Context, id string, questionIDs []string) error {
	blockedBy, _ := json.Marshal(questionIDs)
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, blocked_by = ? WHERE id = ?`,
		string(chunkmodel.TaskBlocked), string(blockedBy), id)
	if err != nil {
		return verrors.Transient("block task", err)
	}
	return rowsAffectedOrNotFound(res, "task", id)
}

// UnblockTask transitions a blocked task back to ready, called once its
// blocking question is answered and no other blocker remains.
func (s *Store) UnblockTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, blocked_by = '[]' WHERE id = ? AND status = ?`,
		string(chunkmodel.TaskReady), id, string(chunkmodel.TaskBlocked))
	if err != nil {
		return verrors.Transient("unblock task", err)
	}
	return rowsAffectedOrNotFound(res, "task", id)
}

// AbsorbAnsweredQuestion persists an answered question's chunk and
// unblocks every task it was the last blocker for, atomically: a crash
// partway through must never leave the chunk written with some of its
// dependent tasks still blocked_by an already-answered question, or vice
// versa (§4.1's atomicity example).
func (s *Store) AbsorbAnsweredQuestion(ctx context.Context, c *chunkmodel.Chunk, unblockTaskIDs []string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertChunk(ctx, tx, c); err != nil {
			return err
		}
		for _, id := range unblockTaskIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE tasks SET status = ?, blocked_by = '[]' WHERE id = ? AND status = ?`,
				string(chunkmodel.TaskReady), id, string(chunkmodel.TaskBlocked)); err != nil {
				return err
			}
		}
		return nil
	})
}

func rowsAffectedOrNotFound(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return verrors.Transient("rows affected", err)
	}
	if n == 0 {
		return verrors.NotFound(entity, id)
	}
	return nil
}
