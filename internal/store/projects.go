package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// CreateProject inserts a new project and its initial clock_state and
// orientation rows. Mirrors the teacher's RegisterAgent pattern of
// seeding related tables atomically on entity creation.
func (s *Store) CreateProject(ctx context.Context, name string) (*chunkmodel.Project, error) {
	p := &chunkmodel.Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: nowUTC(),
	}

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
			p.ID, p.Name, p.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clock_state (project_id, current_tick, last_decay_tick, last_consolidation_tick)
			 VALUES (?, 0, 0, 0)`, p.ID); err != nil {
			return fmt.Errorf("failed to seed clock state: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orientation (project_id, current_phase, version) VALUES (?, ?, 0)`,
			p.ID, string(chunkmodel.PhaseIntake)); err != nil {
			return fmt.Errorf("failed to seed orientation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, verrors.Transient("create project", err)
	}
	return p, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*chunkmodel.Project, error) {
	p := &chunkmodel.Project{}
	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM projects WHERE id = ?`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("project", id)
		}
		return nil, verrors.Transient("get project", err)
	}
	return p, nil
}

// ListProjects returns every known project, ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]*chunkmodel.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, verrors.Transient("list projects", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Project
	for rows.Next() {
		p := &chunkmodel.Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, verrors.Transient("scan project", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
