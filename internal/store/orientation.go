package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// GetOrientation fetches a project's single orientation document.
func (s *Store) GetOrientation(ctx context.Context, projectID string) (*chunkmodel.Orientation, error) {
	o := &chunkmodel.Orientation{ProjectID: projectID}
	var successCriteria, constraints, skillMap, keyDecisions, activePriorities, progress string
	var lastRewritten sql.NullTime
	var phase string

	row := s.db.QueryRowContext(ctx, `
		SELECT vision_summary, success_criteria, constraints, skill_map, current_phase,
		       key_decisions, active_priorities, progress_snapshot, last_rewritten, version
		FROM orientation WHERE project_id = ?`, projectID)
	if err := row.Scan(&o.VisionSummary, &successCriteria, &constraints, &skillMap, &phase,
		&keyDecisions, &activePriorities, &progress, &lastRewritten, &o.Version); err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("orientation", projectID)
		}
		return nil, verrors.Transient("get orientation", err)
	}

	o.CurrentPhase = chunkmodel.Phase(phase)
	if lastRewritten.Valid {
		o.LastRewritten = lastRewritten.Time
	}
	json.Unmarshal([]byte(successCriteria), &o.SuccessCriteria)
	json.Unmarshal([]byte(constraints), &o.Constraints)
	json.Unmarshal([]byte(skillMap), &o.SkillMap)
	json.Unmarshal([]byte(keyDecisions), &o.KeyDecisions)
	json.Unmarshal([]byte(activePriorities), &o.ActivePriorities)
	json.Unmarshal([]byte(progress), &o.ProgressSnapshot)

	return o, nil
}

// PutOrientation replaces the orientation document in place, bumping
// version. The caller (internal/orientation) is responsible for
// enforcing the MaxKeyDecisions/MaxActivePriorities caps before calling.
func (s *Store) PutOrientation(ctx context.Context, o *chunkmodel.Orientation) error {
	successCriteria, _ := json.Marshal(o.SuccessCriteria)
	constraints, _ := json.Marshal(o.Constraints)
	skillMap, _ := json.Marshal(o.SkillMap)
	keyDecisions, _ := json.Marshal(o.KeyDecisions)
	activePriorities, _ := json.Marshal(o.ActivePriorities)
	progress, _ := json.Marshal(o.ProgressSnapshot)

	res, err := s.db.ExecContext(ctx, `
		UPDATE orientation SET
			vision_summary = ?, success_criteria = ?, constraints = ?, skill_map = ?,
			current_phase = ?, key_decisions = ?, active_priorities = ?, progress_snapshot = ?,
			last_rewritten = ?, version = ?
		WHERE project_id = ?`,
		o.VisionSummary, string(successCriteria), string(constraints), string(skillMap),
		string(o.CurrentPhase), string(keyDecisions), string(activePriorities), string(progress),
		o.LastRewritten, o.Version, o.ProjectID)
	if err != nil {
		return verrors.Transient("put orientation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return verrors.Transient("put orientation rows affected", err)
	}
	if n == 0 {
		return verrors.NotFound("orientation", o.ProjectID)
	}
	return nil
}
