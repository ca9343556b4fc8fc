package store

import (
	"context"
	"database/sql"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// GetClockState returns a project's logical-clock row.
func (s *Store) GetClockState(ctx context.Context, projectID string) (*chunkmodel.ClockState, error) {
	cs := &chunkmodel.ClockState{ProjectID: projectID}
	row := s.db.QueryRowContext(ctx,
		`SELECT current_tick, last_decay_tick, last_consolidation_tick FROM clock_state WHERE project_id = ?`,
		projectID)
	if err := row.Scan(&cs.CurrentTick, &cs.LastDecayTick, &cs.LastConsolidationTick); err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("clock_state", projectID)
		}
		return nil, verrors.Transient("get clock state", err)
	}
	return cs, nil
}

// IncrementTick advances a project's current_tick by one and returns the
// new value. Ticks are monotonic and never reset (§4.2).
func (s *Store) IncrementTick(ctx context.Context, projectID string) (chunkmodel.Tick, error) {
	var newTick chunkmodel.Tick
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE clock_state SET current_tick = current_tick + 1 WHERE project_id = ?`, projectID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return verrors.NotFound("clock_state", projectID)
		}
		row := tx.QueryRowContext(ctx, `SELECT current_tick FROM clock_state WHERE project_id = ?`, projectID)
		return row.Scan(&newTick)
	})
	if err != nil {
		return 0, err
	}
	return newTick, nil
}

// MarkDecayRan records that the decay pass has run through the given
// tick.
func (s *Store) MarkDecayRan(ctx context.Context, projectID string, tick chunkmodel.Tick) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE clock_state SET last_decay_tick = ? WHERE project_id = ?`, tick, projectID)
	if err != nil {
		return verrors.Transient("mark decay ran", err)
	}
	return nil
}

// MarkConsolidationRan records that the consolidation pass has run
// through the given tick.
func (s *Store) MarkConsolidationRan(ctx context.Context, projectID string, tick chunkmodel.Tick) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE clock_state SET last_consolidation_tick = ? WHERE project_id = ?`, tick, projectID)
	if err != nil {
		return verrors.Transient("mark consolidation ran", err)
	}
	return nil
}
