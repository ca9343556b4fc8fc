package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/memory"
	"github.com/visioneer/core/internal/store"
)

// Store is the subset of store.Store the retrieval pipeline depends on.
type Store interface {
	GetChunk(ctx context.Context, id string) (*chunkmodel.Chunk, error)
	ListChunks(ctx context.Context, filter store.ChunkFilter) ([]*chunkmodel.Chunk, error)
	SearchChunksByText(ctx context.Context, projectID, query string, limit int) ([]*chunkmodel.Chunk, error)
	SearchByEmbedding(ctx context.Context, projectID string, query []float32, limit int, minSimilarity float64, includeWeak bool) ([]store.ScoredChunk, error)
	RecordCoRetrieval(ctx context.Context, cr *chunkmodel.CoRetrieval) (*chunkmodel.CoRetrieval, error)
}

// Options bundles the configuration-derived knobs the retrieval
// pipeline needs, translated by the caller from config.Config.
type Options struct {
	CandidatePoolSize int
	ResultLimit       int
	RRFK              int
	MinSimilarity     float64
	ConfidenceWeights struct {
		Verified, Inferred, Speculative float64
	}
}

// Retriever implements §4.4's hybrid retrieval pipeline.
type Retriever struct {
	store     Store
	memory    *memory.Engine
	embedding executor.EmbeddingProvider
	opts      Options
}

// NewRetriever builds a Retriever over store/memory/embedding with the
// given options.
func NewRetriever(s Store, mem *memory.Engine, embedding executor.EmbeddingProvider, opts Options) *Retriever {
	return &Retriever{store: s, memory: mem, embedding: embedding, opts: opts}
}

// Retrieve classifies query, runs the corresponding plan, applies
// context-aware boosting and confidence weighting, records co-retrieval
// pairs for the implicit-relationship job, and returns the ranked,
// score-decomposed candidate list the executor sees.
func (r *Retriever) Retrieve(ctx context.Context, projectID string, rc RetrievalContext) ([]executor.ScoredChunk, error) {
	plan := ClassifyQuery(rc.Query)

	var results []executor.ScoredChunk
	var err error

	switch plan {
	case PlanOperational:
		// Structured Working-layer queries (open questions, ready
		// tasks, blocked tasks) bypass the chunk pipeline entirely;
		// the agent cycle driver answers them directly against the
		// Store. Nothing to rank here.
		return nil, nil
	case PlanLookup:
		results, err = r.lookupPlan(ctx, projectID, rc)
	case PlanConnection:
		results, err = r.connectionPlan(ctx, rc)
	case PlanExploration:
		results, err = r.explorationPlan(ctx, projectID, rc)
	default:
		results, err = r.hybridPlan(ctx, projectID, rc)
	}
	if err != nil {
		return nil, err
	}

	r.applyConfidenceWeights(results)
	sortScoredDesc(results)
	if limit := r.resultLimit(); len(results) > limit {
		results = results[:limit]
	}

	if err := r.recordCoRetrieval(ctx, projectID, rc, results); err != nil {
		return results, fmt.Errorf("retrieval succeeded but co-retrieval recording failed: %w", err)
	}
	return results, nil
}

func (r *Retriever) lookupPlan(ctx context.Context, projectID string, rc RetrievalContext) ([]executor.ScoredChunk, error) {
	decisionType := chunkmodel.ChunkDecision
	chunks, err := r.store.ListChunks(ctx, store.ChunkFilter{ProjectID: projectID, Type: decisionType})
	if err != nil {
		return nil, err
	}
	idx := NewBM25Index(contentMap(chunks))
	scores := idx.Score(rc.Query)

	out := make([]executor.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, r.score(c, 0, scores[c.ID], 0, rc))
	}
	return out, nil
}

func (r *Retriever) connectionPlan(ctx context.Context, rc RetrievalContext) ([]executor.ScoredChunk, error) {
	if rc.AnchorChunkID == "" || r.memory == nil {
		return nil, nil
	}
	traversed, err := r.memory.Traverse(ctx, rc.AnchorChunkID, rc.Tick, 1.0, memory.TraverseFilter{Limit: r.poolSize()})
	if err != nil {
		return nil, err
	}
	out := make([]executor.ScoredChunk, 0, len(traversed))
	for _, t := range traversed {
		out = append(out, r.score(t.Chunk, 0, 0, t.Score, rc))
	}
	return out, nil
}

func (r *Retriever) explorationPlan(ctx context.Context, projectID string, rc RetrievalContext) ([]executor.ScoredChunk, error) {
	semantic, err := r.semanticSearch(ctx, projectID, rc.Query, true)
	if err != nil {
		return nil, err
	}
	out := make([]executor.ScoredChunk, 0, len(semantic))
	for _, sc := range semantic {
		out = append(out, r.score(sc.Chunk, sc.Similarity, 0, 0, rc))
	}
	return out, nil
}

func (r *Retriever) hybridPlan(ctx context.Context, projectID string, rc RetrievalContext) ([]executor.ScoredChunk, error) {
	semantic, err := r.semanticSearch(ctx, projectID, rc.Query, true)
	if err != nil {
		return nil, err
	}
	keywordChunks, err := r.store.SearchChunksByText(ctx, projectID, rc.Query, r.poolSize())
	if err != nil {
		return nil, err
	}

	chunkByID := make(map[string]*chunkmodel.Chunk, len(semantic)+len(keywordChunks))
	semanticSim := make(map[string]float64, len(semantic))
	semanticIDs := make([]string, 0, len(semantic))
	for _, sc := range semantic {
		chunkByID[sc.Chunk.ID] = sc.Chunk
		semanticSim[sc.Chunk.ID] = sc.Similarity
		semanticIDs = append(semanticIDs, sc.Chunk.ID)
	}

	bm25Index := NewBM25Index(contentMap(keywordChunks))
	bm25Scores := make(map[string]float64, len(keywordChunks))
	for _, c := range keywordChunks {
		chunkByID[c.ID] = c
		bm25Scores[c.ID] = bm25Index.Score(rc.Query)[c.ID]
	}
	keywordIDs := rankByScoreDesc(bm25Scores)

	var graphIDs []string
	graphScores := make(map[string]float64)
	if rc.AnchorChunkID != "" && r.memory != nil {
		traversed, err := r.memory.Traverse(ctx, rc.AnchorChunkID, rc.Tick, 1.0, memory.TraverseFilter{Limit: r.poolSize()})
		if err != nil {
			return nil, err
		}
		for _, t := range traversed {
			chunkByID[t.Chunk.ID] = t.Chunk
			graphScores[t.Chunk.ID] = t.Score
			graphIDs = append(graphIDs, t.Chunk.ID)
		}
	}

	rrfScores := FuseRRF(r.rrfK(), semanticIDs, keywordIDs, graphIDs)

	out := make([]executor.ScoredChunk, 0, len(chunkByID))
	for id, c := range chunkByID {
		out = append(out, r.score(c, semanticSim[id], bm25Scores[id], graphScores[id], rc, rrfScores[id]))
	}
	return out, nil
}

// semanticSearch runs the vector channel. includeWeak widens the
// candidate pool past the default active/warm restriction (§4.1) to
// cool/cold chunks too, since weak-memory reactivation can only surface
// a chunk that's in the pool to begin with.
func (r *Retriever) semanticSearch(ctx context.Context, projectID, query string, includeWeak bool) ([]store.ScoredChunk, error) {
	if r.embedding == nil {
		return nil, nil
	}
	vec, err := r.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.store.SearchByEmbedding(ctx, projectID, vec, r.poolSize(), r.opts.MinSimilarity, includeWeak)
}

// score builds one candidate's full score decomposition. fused, when
// provided, is the RRF-fused base score (hybrid plan); otherwise the
// single populated channel score is used directly as the base.
func (r *Retriever) score(c *chunkmodel.Chunk, semantic, bm25, graph float64, rc RetrievalContext, fused ...float64) executor.ScoredChunk {
	base := semantic + bm25 + graph
	if len(fused) > 0 {
		base = fused[0]
	}

	contextMatch := ContextMatch(c.LearningContext, rc)
	boosted, _ := ApplyContextBoost(base, semantic, c.CurrentStrength, contextMatch)

	return executor.ScoredChunk{
		Chunk:         c,
		SemanticScore: semantic,
		BM25Score:     bm25,
		GraphScore:    graph,
		FusedScore:    base,
		ContextMatch:  contextMatch,
		FinalScore:    boosted,
	}
}

func (r *Retriever) applyConfidenceWeights(results []executor.ScoredChunk) {
	for i := range results {
		w := ConfidenceWeight(results[i].Chunk.Confidence, r.opts.ConfidenceWeights.Verified, r.opts.ConfidenceWeights.Inferred, r.opts.ConfidenceWeights.Speculative)
		results[i].ConfidenceWeight = w
		results[i].FinalScore *= w
	}
}

func (r *Retriever) recordCoRetrieval(ctx context.Context, projectID string, rc RetrievalContext, results []executor.ScoredChunk) error {
	now := time.Now().UTC()
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			a, b := results[i].Chunk.ID, results[j].Chunk.ID
			if a > b {
				a, b = b, a
			}
			cr := &chunkmodel.CoRetrieval{
				ID:           uuid.NewString(),
				ProjectID:    projectID,
				ChunkAID:     a,
				ChunkBID:     b,
				SessionID:    rc.SessionID,
				QueryContext: rc.Query,
				Timestamp:    now,
			}
			if _, err := r.store.RecordCoRetrieval(ctx, cr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Retriever) poolSize() int {
	if r.opts.CandidatePoolSize > 0 {
		return r.opts.CandidatePoolSize
	}
	return 50
}

// resultLimit is §4.4's final sort-and-truncate bound on what reaches
// the executor, distinct from poolSize's per-channel candidate cap.
func (r *Retriever) resultLimit() int {
	if r.opts.ResultLimit > 0 {
		return r.opts.ResultLimit
	}
	return 20
}

func (r *Retriever) rrfK() int {
	if r.opts.RRFK > 0 {
		return r.opts.RRFK
	}
	return 60
}

func contentMap(chunks []*chunkmodel.Chunk) map[string]string {
	out := make(map[string]string, len(chunks))
	for _, c := range chunks {
		out[c.ID] = c.Content
	}
	return out
}

func sortScoredDesc(s []executor.ScoredChunk) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].FinalScore > s[j-1].FinalScore; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
