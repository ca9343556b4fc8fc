package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/store"
	"github.com/visioneer/core/internal/verrors"
)

// Engine is the Memory Engine of §4.3: the write path, ranking, decay,
// reactivation, consolidation, and relationship-graph operations, all
// sitting on a narrow Store so each concern can be tested independently
// of SQLite.
type Engine struct {
	store     Store
	embedding executor.EmbeddingProvider
}

// NewEngine builds a Memory Engine over store, using embedding to compute
// vectors for newly-written chunks. embedding may be nil, in which case
// WriteChunk stores chunks without an embedding (§7 EmbeddingFailure:
// retrievable lexically/graph-wise only; nothing re-embeds them later).
func NewEngine(s Store, embedding executor.EmbeddingProvider) *Engine {
	return &Engine{store: s, embedding: embedding}
}

// WriteChunkInput captures everything the write path needs that the
// caller (the agent cycle driver, or an orientation rewrite) supplies.
type WriteChunkInput struct {
	ProjectID       string
	Content         string
	Type            chunkmodel.ChunkType
	Tags            []string
	Confidence      chunkmodel.Confidence
	Source          chunkmodel.Source
	Pinned          bool
	LearningContext chunkmodel.LearningContext
	CurrentTick     chunkmodel.Tick
}

// WriteChunk implements §4.3's write path: assign id, compute embedding,
// capture LearningContext, set tick_created/strength, and select the
// decay policy.
func (e *Engine) WriteChunk(ctx context.Context, in WriteChunkInput) (*chunkmodel.Chunk, error) {
	c, embedErr := e.BuildChunk(ctx, in)
	created, err := e.store.CreateChunk(ctx, c)
	if err != nil {
		return nil, err
	}
	if embedErr != nil {
		// §7 EmbeddingFailure: persist anyway, active but
		// lexical/graph-only; no job re-embeds it afterwards.
		return created, embedErr
	}
	return created, nil
}

// BuildChunk assembles a not-yet-persisted chunk the way WriteChunk
// does, including computing its embedding, without writing it to the
// store. Callers that need to persist the chunk as part of a larger
// atomic operation (e.g. absorbing an answered question alongside the
// task unblocks it triggers) build it here first, then hand it to
// whatever transactional write the caller needs, keeping the network
// call to the embedding provider outside of any open transaction. A
// non-nil error alongside a non-nil chunk means the embedding failed
// and the chunk should still be persisted, uncancelled.
func (e *Engine) BuildChunk(ctx context.Context, in WriteChunkInput) (*chunkmodel.Chunk, error) {
	policy := policyFor(in.Type, in.Tags, in.Pinned)

	c := &chunkmodel.Chunk{
		ID:               uuid.NewString(),
		ProjectID:        in.ProjectID,
		Content:          in.Content,
		Type:             in.Type,
		Tags:             in.Tags,
		Confidence:       in.Confidence,
		Source:           in.Source,
		TickCreated:      in.CurrentTick,
		TickLastAccessed: in.CurrentTick,
		LearningContext:  in.LearningContext,
		InitialStrength:  1.0,
		CurrentStrength:  1.0,
		DecayFunction:    policy.Function,
		DecayRate:        policy.Rate,
		Status:           chunkmodel.StatusActive,
		Pinned:           in.Pinned,
	}

	if e.embedding == nil {
		return c, nil
	}
	vec, err := e.embedding.Embed(ctx, in.Content)
	if err != nil {
		return c, verrors.Embedding(c.ID, err)
	}
	c.Embedding = vec
	return c, nil
}

// RunDecay implements §4.3's Decay pass for every eligible chunk in
// project, per currentTick and the project's lastDecayTick. It returns
// the number of chunks updated (strength changed).
func (e *Engine) RunDecay(ctx context.Context, projectID string, currentTick, lastDecayTick chunkmodel.Tick) (int, error) {
	chunks, err := e.store.ListChunks(ctx, store.ChunkFilter{
		ProjectID:       projectID,
		ExcludeStatuses: []chunkmodel.ChunkStatus{chunkmodel.StatusTombstone, chunkmodel.StatusArchived},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list chunks for decay: %w", err)
	}

	updated := 0
	for _, c := range chunks {
		before := c.CurrentStrength
		ApplyDecay(c, currentTick, lastDecayTick)
		if c.CurrentStrength == before {
			continue
		}
		if err := e.store.UpdateChunk(ctx, c); err != nil {
			return updated, fmt.Errorf("failed to persist decayed chunk %s: %w", c.ID, err)
		}
		updated++
	}
	return updated, nil
}

// ReactivateOnRetrieval applies the access-tracking half of reactivation
// to every chunk a retrieval call returned, persisting the update.
func (e *Engine) ReactivateOnRetrieval(ctx context.Context, chunks []*chunkmodel.Chunk, currentTick chunkmodel.Tick) error {
	for _, c := range chunks {
		Record(c, currentTick)
		if err := e.store.UpdateChunk(ctx, c); err != nil {
			return fmt.Errorf("failed to persist reactivated chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// MarkChunkUseful applies the "useful" feedback half of reactivation to
// a single chunk and persists it.
func (e *Engine) MarkChunkUseful(ctx context.Context, chunkID string, currentTick chunkmodel.Tick, contextMatch float64) error {
	c, err := e.store.GetChunk(ctx, chunkID)
	if err != nil {
		return err
	}
	MarkUseful(c, currentTick, contextMatch)
	return e.store.UpdateChunk(ctx, c)
}

// RelationshipCount returns the live relationship count for a chunk, for
// use as the PersistenceScore connection term.
func (e *Engine) RelationshipCount(ctx context.Context, chunkID string) (int, error) {
	rels, err := e.store.RelationshipsForChunk(ctx, chunkID)
	if err != nil {
		return 0, err
	}
	return len(rels), nil
}

// Score computes and returns §4.3's persistence score for chunk, without
// mutating it; callers decide whether/when to persist it onto the row.
func (e *Engine) Score(ctx context.Context, c *chunkmodel.Chunk, currentTick chunkmodel.Tick) (float64, error) {
	count, err := e.RelationshipCount(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	return PersistenceScore(c, currentTick, count), nil
}
