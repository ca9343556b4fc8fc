package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// CreateGoal inserts a new goal in the given status. Activation of the
// active goal and supersession of the previous one is the caller's
// responsibility (internal/agent), since that is a cross-entity
// transition, not a plain insert.
func (s *Store) CreateGoal(ctx context.Context, projectID, goalText string, status chunkmodel.GoalStatus) (*chunkmodel.Goal, error) {
	g := &chunkmodel.Goal{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		GoalText:  goalText,
		Status:    status,
		CreatedAt: nowUTC(),
	}
	if status == chunkmodel.GoalActive {
		now := nowUTC()
		g.ActivatedAt = &now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, project_id, goal_text, status, created_at, activated_at, superseded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ProjectID, g.GoalText, string(g.Status), g.CreatedAt, g.ActivatedAt, g.SupersededAt)
	if err != nil {
		return nil, verrors.Transient("create goal", err)
	}
	return g, nil
}

// GetActiveGoal returns the project's current active goal, if any.
func (s *Store) GetActiveGoal(ctx context.Context, projectID string) (*chunkmodel.Goal, error) {
	g := &chunkmodel.Goal{}
	var status string
	var activatedAt, supersededAt sql.NullTime
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, goal_text, status, created_at, activated_at, superseded_at
		FROM goals WHERE project_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		projectID, string(chunkmodel.GoalActive))
	if err := row.Scan(&g.ID, &g.ProjectID, &g.GoalText, &status, &g.CreatedAt, &activatedAt, &supersededAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("active goal", projectID)
		}
		return nil, verrors.Transient("get active goal", err)
	}
	g.Status = chunkmodel.GoalStatus(status)
	if activatedAt.Valid {
		g.ActivatedAt = &activatedAt.Time
	}
	if supersededAt.Valid {
		g.SupersededAt = &supersededAt.Time
	}
	return g, nil
}

// SupersedeGoal marks a goal superseded. Used when a PendingGoal is
// activated and replaces the current active goal.
func (s *Store) SupersedeGoal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET status = ?, superseded_at = ? WHERE id = ?`,
		string(chunkmodel.GoalSuperseded), nowUTC(), id)
	if err != nil {
		return verrors.Transient("supersede goal", err)
	}
	return nil
}

// CompleteGoal marks a goal completed.
func (s *Store) CompleteGoal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET status = ? WHERE id = ?`, string(chunkmodel.GoalCompleted), id)
	if err != nil {
		return verrors.Transient("complete goal", err)
	}
	return nil
}

// QueuePendingGoal enqueues a goal swap to be activated at the next
// cycle boundary rather than mid-cycle (§5, Agent Cycle Driver).
func (s *Store) QueuePendingGoal(ctx context.Context, projectID, goalText string) (*chunkmodel.PendingGoal, error) {
	pg := &chunkmodel.PendingGoal{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		GoalText:  goalText,
		QueuedAt:  nowUTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_goals (id, project_id, goal_text, queued_at) VALUES (?, ?, ?, ?)`,
		pg.ID, pg.ProjectID, pg.GoalText, pg.QueuedAt)
	if err != nil {
		return nil, verrors.Transient("queue pending goal", err)
	}
	return pg, nil
}

// NextPendingGoal returns the oldest queued goal swap, if any.
func (s *Store) NextPendingGoal(ctx context.Context, projectID string) (*chunkmodel.PendingGoal, error) {
	pg := &chunkmodel.PendingGoal{}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, goal_text, queued_at FROM pending_goals
		 WHERE project_id = ? ORDER BY queued_at ASC LIMIT 1`, projectID)
	if err := row.Scan(&pg.ID, &pg.ProjectID, &pg.GoalText, &pg.QueuedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, verrors.Transient("next pending goal", err)
	}
	return pg, nil
}

// ConsumePendingGoal removes a pending goal once activated.
func (s *Store) ConsumePendingGoal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_goals WHERE id = ?`, id)
	if err != nil {
		return verrors.Transient("consume pending goal", err)
	}
	return nil
}
