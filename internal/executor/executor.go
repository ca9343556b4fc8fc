// Package executor defines the two external collaborators the core
// treats as opaque, sandboxed shells (§1 Out of scope, §6): the LLM
// task executor and the embedding provider. Both are interfaces here;
// concrete HTTP-backed implementations live alongside them, adapted
// from the teacher's LMStudioEmbedding in internal/memory/embedding_lmstudio.go.
package executor

import (
	"context"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
)

// TaskStatus is the outcome status an executor call reports, per §5
// Execute/Result handling.
type TaskStatus string

const (
	ResultComplete TaskStatus = "complete"
	ResultBlocked  TaskStatus = "blocked"
	ResultPartial  TaskStatus = "partial"
	ResultFailed   TaskStatus = "failed"
)

// ScoredChunk is a retrieved chunk paired with its score decomposition,
// so the executor (and a human debugging it) can see why a chunk was
// promoted (§4.4).
type ScoredChunk struct {
	Chunk             *chunkmodel.Chunk `json:"chunk"`
	SemanticScore     float64           `json:"semantic_score"`
	BM25Score         float64           `json:"bm25_score"`
	GraphScore        float64           `json:"graph_score"`
	FusedScore        float64           `json:"fused_score"`
	ContextMatch      float64           `json:"context_match"`
	ConfidenceWeight  float64           `json:"confidence_weight"`
	FinalScore        float64           `json:"final_score"`
}

// Request is everything the core hands to the executor for one task
// (§6 Executor collaborator).
type Request struct {
	Task        chunkmodel.Task       `json:"task"`
	Context     []ScoredChunk         `json:"context"`
	Goal        chunkmodel.Goal       `json:"goal"`
	Orientation chunkmodel.Orientation `json:"orientation"`
}

// Learning is a piece of knowledge the executor wants persisted as a
// new chunk.
type Learning struct {
	Content        string                  `json:"content"`
	Type           chunkmodel.ChunkType    `json:"type"`
	Tags           []string                `json:"tags,omitempty"`
	Confidence     chunkmodel.Confidence   `json:"confidence"`
	RelatedChunks  []string                `json:"related_chunks,omitempty"`
}

// NewQuestion is a question the executor raises because it is blocked
// pending human input.
type NewQuestion struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// FollowUpTask is a task the executor wants queued.
type FollowUpTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	SkillArea   string   `json:"skill_area"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// Result is the structured output the executor returns for one task
// (§5 Execute, §6 Executor collaborator).
type Result struct {
	Status        TaskStatus     `json:"status"`
	OutcomeText   string         `json:"outcome_text"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Learnings     []Learning     `json:"learnings"`
	NewQuestions  []NewQuestion  `json:"new_questions"`
	FollowUpTasks []FollowUpTask `json:"follow_up_tasks"`
}

// Executor is the inbound interface the core consumes: task + retrieved
// context + active goal + orientation in, a structured result out. A
// call may block or suspend (§5 Suspension points) and must respect the
// context deadline; expiry surfaces to the caller as a plain error,
// which the cycle driver turns into a failed result with
// failure_reason="timeout".
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// EmbeddingProvider computes vector embeddings for chunk content and
// queries alike. Embed calls are a named suspension point (§5); a
// failed embed does not abort chunk storage, it surfaces as an
// EmbeddingError and the chunk is stored without an embedding, staying
// lexically/graph-searchable only; nothing re-embeds it afterwards.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// DefaultTimeout is the per-call timeout NewHTTPExecutor applies when it
// is given a non-positive timeout, matching §6's configurable per-call
// executor timeout
// (internal/config AgentConfig.ExecutorTimeoutSec provides the actual
// configured value; this is just the package-level fallback).
const DefaultTimeout = 120 * time.Second
