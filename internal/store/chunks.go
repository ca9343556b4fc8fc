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

const chunkColumns = `id, project_id, content, type, tags, confidence, source, embedding,
	tick_created, tick_last_accessed, tick_last_useful, learning_context,
	initial_strength, current_strength, decay_function, decay_rate,
	access_count, successful_uses, last_accessed, last_useful,
	status, pinned, superseded_by, contradicted_by, valid_until_tick,
	persistence_score, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx, letting a handful of
// insert/update helpers run either standalone or inside WithTx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateChunk inserts a new knowledge chunk (§3/§4.1 write path). The
// caller (internal/memory) is responsible for assigning the initial
// decay policy before calling.
func (s *Store) CreateChunk(ctx context.Context, c *chunkmodel.Chunk) (*chunkmodel.Chunk, error) {
	if err := insertChunk(ctx, s.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

func insertChunk(ctx context.Context, ex execer, c *chunkmodel.Chunk) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := nowUTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = chunkmodel.StatusActive
	}

	tags, _ := json.Marshal(c.Tags)
	learningContext, _ := json.Marshal(c.LearningContext)

	_, err := ex.ExecContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Content, string(c.Type), string(tags), string(c.Confidence), string(c.Source),
		encodeEmbedding(c.Embedding),
		c.TickCreated, c.TickLastAccessed, c.TickLastUseful, string(learningContext),
		c.InitialStrength, c.CurrentStrength, string(c.DecayFunction), c.DecayRate,
		c.AccessCount, c.SuccessfulUses, c.LastAccessed, c.LastUseful,
		string(c.Status), c.Pinned, c.SupersededBy, c.ContradictedBy, c.ValidUntilTick,
		c.PersistenceScore, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return verrors.Transient("create chunk", err)
	}
	return nil
}

func scanChunk(row interface{ Scan(dest ...any) error }) (*chunkmodel.Chunk, error) {
	c := &chunkmodel.Chunk{}
	var typ, tags, confidence, source, learningContext, decayFn, status string
	var embeddingBlob []byte
	var lastAccessed, lastUseful sql.NullTime
	var validUntilTick sql.NullInt64

	if err := row.Scan(
		&c.ID, &c.ProjectID, &c.Content, &typ, &tags, &confidence, &source, &embeddingBlob,
		&c.TickCreated, &c.TickLastAccessed, &c.TickLastUseful, &learningContext,
		&c.InitialStrength, &c.CurrentStrength, &decayFn, &c.DecayRate,
		&c.AccessCount, &c.SuccessfulUses, &lastAccessed, &lastUseful,
		&status, &c.Pinned, &c.SupersededBy, &c.ContradictedBy, &validUntilTick,
		&c.PersistenceScore, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	c.Type = chunkmodel.ChunkType(typ)
	c.Confidence = chunkmodel.Confidence(confidence)
	c.Source = chunkmodel.Source(source)
	c.DecayFunction = chunkmodel.DecayFunction(decayFn)
	c.Status = chunkmodel.ChunkStatus(status)
	c.Embedding = decodeEmbedding(embeddingBlob)
	json.Unmarshal([]byte(tags), &c.Tags)
	json.Unmarshal([]byte(learningContext), &c.LearningContext)
	if lastAccessed.Valid {
		c.LastAccessed = &lastAccessed.Time
	}
	if lastUseful.Valid {
		c.LastUseful = &lastUseful.Time
	}
	if validUntilTick.Valid {
		t := chunkmodel.Tick(validUntilTick.Int64)
		c.ValidUntilTick = &t
	}
	return c, nil
}

// GetChunk fetches a chunk by id.
func (s *Store) GetChunk(ctx context.Context, id string) (*chunkmodel.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	c, err := scanChunk(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.NotFound("chunk", id)
		}
		return nil, verrors.Transient("get chunk", err)
	}
	return c, nil
}

// UpdateChunk persists the full mutable state of a chunk (used by the
// decay engine, reactivation, and consolidation).
func (s *Store) UpdateChunk(ctx context.Context, c *chunkmodel.Chunk) error {
	c.UpdatedAt = nowUTC()
	tags, _ := json.Marshal(c.Tags)
	learningContext, _ := json.Marshal(c.LearningContext)

	res, err := s.db.ExecContext(ctx, `
		UPDATE chunks SET
			content = ?, type = ?, tags = ?, confidence = ?, source = ?, embedding = ?,
			tick_created = ?, tick_last_accessed = ?, tick_last_useful = ?, learning_context = ?,
			initial_strength = ?, current_strength = ?, decay_function = ?, decay_rate = ?,
			access_count = ?, successful_uses = ?, last_accessed = ?, last_useful = ?,
			status = ?, pinned = ?, superseded_by = ?, contradicted_by = ?, valid_until_tick = ?,
			persistence_score = ?, updated_at = ?
		WHERE id = ?`,
		c.Content, string(c.Type), string(tags), string(c.Confidence), string(c.Source), encodeEmbedding(c.Embedding),
		c.TickCreated, c.TickLastAccessed, c.TickLastUseful, string(learningContext),
		c.InitialStrength, c.CurrentStrength, string(c.DecayFunction), c.DecayRate,
		c.AccessCount, c.SuccessfulUses, c.LastAccessed, c.LastUseful,
		string(c.Status), c.Pinned, c.SupersededBy, c.ContradictedBy, c.ValidUntilTick,
		c.PersistenceScore, c.UpdatedAt, c.ID)
	if err != nil {
		return verrors.Transient("update chunk", err)
	}
	return rowsAffectedOrNotFound(res, "chunk", c.ID)
}

// ChunkFilter narrows ListChunks by the set-query axes of §4.1: type,
// confidence, status, and tag membership (any-of).
type ChunkFilter struct {
	ProjectID    string
	Type         chunkmodel.ChunkType
	Confidence   chunkmodel.Confidence
	Status       chunkmodel.ChunkStatus
	ExcludeStatuses []chunkmodel.ChunkStatus
	Tags         []string
	MinTick      chunkmodel.Tick
	MaxTick      chunkmodel.Tick
	HasMaxTick   bool
}

// ListChunks returns chunks matching filter. Tag filtering is done in
// Go rather than SQL LIKE scans, since tags is a JSON array column and
// a chunk matches if it carries ANY of the requested tags.
func (s *Store) ListChunks(ctx context.Context, filter ChunkFilter) ([]*chunkmodel.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE project_id = ?`
	args := []any{filter.ProjectID}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Confidence != "" {
		query += ` AND confidence = ?`
		args = append(args, string(filter.Confidence))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	for _, excl := range filter.ExcludeStatuses {
		query += ` AND status != ?`
		args = append(args, string(excl))
	}
	if filter.MinTick > 0 {
		query += ` AND tick_created >= ?`
		args = append(args, filter.MinTick)
	}
	if filter.HasMaxTick {
		query += ` AND tick_created <= ?`
		args = append(args, filter.MaxTick)
	}
	query += ` ORDER BY tick_created ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, verrors.Transient("list chunks", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, verrors.Transient("scan chunk", err)
		}
		if len(filter.Tags) > 0 && !hasAnyTag(c.Tags, filter.Tags) {
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func hasAnyTag(chunkTags, want []string) bool {
	set := make(map[string]struct{}, len(chunkTags))
	for _, t := range chunkTags {
		set[strings.ToLower(t)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}

// SearchChunksByText is the lexical fallback search, adapted from the
// teacher's SearchKnowledge LIKE-based query. The BM25 scorer in
// internal/retrieval consumes this candidate set rather than ranking
// purely on SQL LIKE order.
func (s *Store) SearchChunksByText(ctx context.Context, projectID, query string, limit int) ([]*chunkmodel.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks
		 WHERE project_id = ? AND status != ? AND content LIKE ?
		 ORDER BY tick_created DESC LIMIT ?`,
		projectID, string(chunkmodel.StatusTombstone), "%"+query+"%", limit)
	if err != nil {
		return nil, verrors.Transient("search chunks by text", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, verrors.Transient("scan chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ChunksWithEmbedding returns the candidate pool for vectorindex's linear
// scan: every chunk carrying an embedding, restricted by default to
// status active/warm. Pass includeWeak to widen the pool to cool/cold
// chunks as well (still excluding tombstone), the wider pool the
// weak-memory reactivation path needs to even see a candidate worth
// reactivating.
func (s *Store) ChunksWithEmbedding(ctx context.Context, projectID string, includeWeak bool) ([]*chunkmodel.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE project_id = ? AND embedding IS NOT NULL`
	args := []any{projectID}
	if includeWeak {
		query += ` AND status != ?`
		args = append(args, string(chunkmodel.StatusTombstone))
	} else {
		query += ` AND status IN (?, ?)`
		args = append(args, string(chunkmodel.StatusActive), string(chunkmodel.StatusWarm))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, verrors.Transient("chunks with embedding", err)
	}
	defer rows.Close()

	var out []*chunkmodel.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, verrors.Transient("scan chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TombstoneChunk transitions a chunk to tombstone status. Pinned chunks
// must never reach this call; callers enforce that invariant (§4.3).
func (s *Store) TombstoneChunk(ctx context.Context, id string) error {
	chunk, err := s.GetChunk(ctx, id)
	if err != nil {
		return err
	}
	if chunk.Pinned {
		return verrors.Integrity("cannot tombstone pinned chunk " + id)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chunks SET status = ?, updated_at = ? WHERE id = ?`,
		string(chunkmodel.StatusTombstone), nowUTC(), id)
	if err != nil {
		return verrors.Transient("tombstone chunk", err)
	}
	return rowsAffectedOrNotFound(res, "chunk", id)
}

// ArchiveChunk removes a chunk from the live table and leaves a summary
// record, atomically. Used when a tombstoned chunk ages past its
// retention window (§4.3 consolidation).
func (s *Store) ArchiveChunk(ctx context.Context, archive *chunkmodel.ChunkArchive) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks_archive (chunk_id, project_id, content_summary, content_hash, tick_archived, final_strength, final_context, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			archive.ChunkID, archive.ProjectID, archive.ContentSummary, archive.ContentHash,
			archive.TickArchived, archive.FinalStrength, archive.FinalContext, archive.ArchivedAt); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, archive.ChunkID)
		if err != nil {
			return err
		}
		return rowsAffectedOrNotFound(res, "chunk", archive.ChunkID)
	})
}
