package memory

import (
	"context"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/store"
)

// Store is the subset of store.Store the Memory Engine depends on,
// declared narrowly so tests can substitute a fake without pulling in
// SQLite, matching the pattern used by internal/clock.
type Store interface {
	CreateChunk(ctx context.Context, c *chunkmodel.Chunk) (*chunkmodel.Chunk, error)
	GetChunk(ctx context.Context, id string) (*chunkmodel.Chunk, error)
	UpdateChunk(ctx context.Context, c *chunkmodel.Chunk) error
	ListChunks(ctx context.Context, filter store.ChunkFilter) ([]*chunkmodel.Chunk, error)
	ChunksWithEmbedding(ctx context.Context, projectID string, includeWeak bool) ([]*chunkmodel.Chunk, error)
	SearchByEmbedding(ctx context.Context, projectID string, query []float32, limit int, minSimilarity float64, includeWeak bool) ([]store.ScoredChunk, error)
	TombstoneChunk(ctx context.Context, id string) error
	ArchiveChunk(ctx context.Context, archive *chunkmodel.ChunkArchive) error

	CreateRelationship(ctx context.Context, r *chunkmodel.Relationship) (*chunkmodel.Relationship, error)
	FindRelationship(ctx context.Context, fromID, toID string, typ chunkmodel.RelationshipType) (*chunkmodel.Relationship, error)
	RelationshipsForChunk(ctx context.Context, chunkID string) ([]*chunkmodel.Relationship, error)
	StrengthenRelationship(ctx context.Context, id string, delta float64) error
	WeakenRelationship(ctx context.Context, id string, delta, archiveThreshold float64, reason string) error

	RecordCoRetrieval(ctx context.Context, cr *chunkmodel.CoRetrieval) (*chunkmodel.CoRetrieval, error)
	CountCoRetrievals(ctx context.Context, chunkAID, chunkBID string) (int, error)
	PairsCrossingThreshold(ctx context.Context, projectID string, threshold int) ([][2]string, error)
	PruneCoRetrievalsBefore(ctx context.Context, projectID string, cutoff time.Time) (int, error)
}
