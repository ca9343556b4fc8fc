package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

const relationshipColumns = `id, project_id, from_chunk_id, to_chunk_id, type, weight,
	activation_count, last_activated, context_tags, origin, created_at`

// CreateRelationship inserts a new typed edge between two chunks. The
// UNIQUE(from_chunk_id, to_chunk_id, type) constraint surfaces as a
// ConflictError when the edge already exists; callers that mean to
// reinforce an existing edge should call StrengthenRelationship
// instead.
func (s *Store) CreateRelationship(ctx context.Context, r *chunkmodel.Relationship) (*chunkmodel.Relationship, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = nowUTC()
	}
	contextTags, _ := json.Marshal(r.ContextTags)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relationships (`+relationshipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.FromChunkID, r.ToChunkID, string(r.Type), r.Weight,
		r.ActivationCount, r.LastActivated, string(contextTags), string(r.Origin), r.CreatedAt)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, verrors.Conflict("relationship already exists between " + r.FromChunkID + " and " + r.ToChunkID)
		}
		return nil, verrors.Transient("create relationship", err)
	}
	return r, nil
}

func scanRelationship(row interface{ Scan(dest ...any) error }) (*chunkmodel.Relationship, error) {
	r := &chunkmodel.Relationship{}
	var typ, contextTags, origin string
	var lastActivated sql.NullTime
	if err := row.Scan(&r.ID, &r.ProjectID, &r.FromChunkID, &r.ToChunkID, &typ, &r.Weight,
		&r.ActivationCount, &lastActivated, &contextTags, &origin, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Type = chunkmodel.RelationshipType(typ)
	r.Origin = chunkmodel.RelationshipOrigin(origin)
	json.Unmarshal([]byte(contextTags), &r.ContextTags)
	if lastActivated.Valid {
		r.LastActivated = &lastActivated.Time
	}
	return r, nil
}

// FindRelationship looks up the edge between two chunks of a given
// type, if one exists.
func (s *Store) FindRelationship(ctx context.Context, fromID, toID string, typ chunkmodel.RelationshipType) (*chunkmodel.Relationship, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE from_chunk_id = ? AND to_chunk_id = ? AND type = ?`,
		fromID, toID, string(typ))
	r, err := scanRelationship(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, verrors.Transient("find relationship", err)
	}
	return r, nil
}

// RelationshipsForChunk returns every edge touching a chunk, in either
// direction, for graph-expansion retrieval (§4.4).
func (s *Store) RelationshipsForChunk(ctx context.Context, chunkID string) ([]*chunkmodel.Relationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE from_chunk_id = ? OR to_chunk_id = ? ORDER BY weight DESC`,
		chunkID, chunkID)
	if err != nil {
		return nil, verrors.Transient("relationships for chunk", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, verrors.Transient("scan relationship", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StrengthenRelationship increments activation_count, bumps weight by
// delta (capped at 1.0), and stamps last_activated (§4.5). Used both
// for explicit reinforcement and for implicit edges formed from
// repeated co-retrieval.
func (s *Store) StrengthenRelationship(ctx context.Context, id string, delta float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE relationships SET
			weight = MIN(1.0, weight + ?),
			activation_count = activation_count + 1,
			last_activated = ?
		WHERE id = ?`, delta, nowUTC(), id)
	if err != nil {
		return verrors.Transient("strengthen relationship", err)
	}
	return rowsAffectedOrNotFound(res, "relationship", id)
}

// WeakenRelationship decrements weight by delta (floored at 0). If the
// resulting weight falls below threshold, the edge is archived and
// removed from the live table atomically.
func (s *Store) WeakenRelationship(ctx context.Context, id string, delta, archiveThreshold float64, reason string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id)
		r, err := scanRelationship(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return verrors.NotFound("relationship", id)
			}
			return err
		}

		newWeight := r.Weight - delta
		if newWeight < 0 {
			newWeight = 0
		}

		if newWeight < archiveThreshold {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO relationships_archive (id, project_id, from_chunk_id, to_chunk_id, type, final_weight, reason, archived_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.ProjectID, r.FromChunkID, r.ToChunkID, string(r.Type), newWeight, reason, nowUTC()); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE relationships SET weight = ? WHERE id = ?`, newWeight, id)
		return err
	})
}

func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
