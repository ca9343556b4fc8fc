package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// RecordCoRetrieval logs that two chunks were returned together by one
// retrieval call. Chunk ids are ordered (min, max) by the caller before
// this is invoked, so that a pair is never double-counted under swapped
// order (§3).
func (s *Store) RecordCoRetrieval(ctx context.Context, cr *chunkmodel.CoRetrieval) (*chunkmodel.CoRetrieval, error) {
	if cr.ID == "" {
		cr.ID = uuid.New().String()
	}
	if cr.Timestamp.IsZero() {
		cr.Timestamp = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coretrieval (id, project_id, chunk_a_id, chunk_b_id, session_id, query_context, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cr.ID, cr.ProjectID, cr.ChunkAID, cr.ChunkBID, cr.SessionID, cr.QueryContext, cr.Timestamp)
	if err != nil {
		return nil, verrors.Transient("record co-retrieval", err)
	}
	return cr, nil
}

// CountCoRetrievals counts how many times a chunk pair has been
// co-retrieved, the signal that drives implicit relationship formation
// once it crosses knowledge.coretrieval_threshold (§4.5).
func (s *Store) CountCoRetrievals(ctx context.Context, chunkAID, chunkBID string) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coretrieval WHERE chunk_a_id = ? AND chunk_b_id = ?`, chunkAID, chunkBID)
	if err := row.Scan(&n); err != nil {
		return 0, verrors.Transient("count co-retrievals", err)
	}
	return n, nil
}

// PairsCrossingThreshold returns distinct (chunk_a, chunk_b) pairs whose
// co-retrieval count has reached threshold, for the consolidation job
// that forms implicit relationships in bulk.
func (s *Store) PairsCrossingThreshold(ctx context.Context, projectID string, threshold int) ([][2]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_a_id, chunk_b_id FROM coretrieval
		WHERE project_id = ?
		GROUP BY chunk_a_id, chunk_b_id
		HAVING COUNT(*) >= ?`, projectID, threshold)
	if err != nil {
		return nil, verrors.Transient("pairs crossing threshold", err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, verrors.Transient("scan pair", err)
		}
		out = append(out, [2]string{a, b})
	}
	return out, rows.Err()
}

// PruneCoRetrievalsBefore deletes co-retrieval rows older than the
// configured retention window (§6 memory.coretrieval_retention_days).
func (s *Store) PruneCoRetrievalsBefore(ctx context.Context, projectID string, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM coretrieval WHERE project_id = ? AND timestamp < ?`, projectID, cutoff)
	if err != nil {
		return 0, verrors.Transient("prune co-retrievals", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, verrors.Transient("prune co-retrievals rows affected", err)
	}
	return int(n), nil
}
