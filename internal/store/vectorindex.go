package store

import (
	"context"
	"sort"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

// ScoredChunk pairs a chunk with a similarity score in [-1, 1].
type ScoredChunk struct {
	Chunk      *chunkmodel.Chunk
	Similarity float64
}

// SearchByEmbedding performs a linear cosine-similarity scan over the
// embedded chunks in a project and returns the top limit matches above
// minSimilarity, descending by score. The candidate pool is restricted
// to status active/warm unless includeWeak is set, per §4.1's default.
//
// This is a full table scan rather than an approximate-nearest-neighbor
// index: Visioneer's working set is a single agent's project memory
// (hundreds to low thousands of chunks, per §1's scale assumptions),
// well within the range where a linear scan outperforms the complexity
// of standing up a dedicated vector index, and keeps the store
// dependency-free of any native vector extension (§4.1).
func (s *Store) SearchByEmbedding(ctx context.Context, projectID string, query []float32, limit int, minSimilarity float64, includeWeak bool) ([]ScoredChunk, error) {
	candidates, err := s.ChunksWithEmbedding(ctx, projectID, includeWeak)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		sim := cosineSimilarity(query, c.Embedding)
		if sim < minSimilarity {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: c, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// SetChunkEmbedding attaches or replaces a chunk's embedding vector
// in place, without touching any other field. No code in the repository
// calls it; chunks stored under an EmbeddingError (§7) keep no
// embedding.
func (s *Store) SetChunkEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chunks SET embedding = ?, updated_at = ? WHERE id = ?`,
		encodeEmbedding(embedding), nowUTC(), chunkID)
	if err != nil {
		return verrors.Transient("set chunk embedding", err)
	}
	return rowsAffectedOrNotFound(res, "chunk", chunkID)
}
