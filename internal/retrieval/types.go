// Package retrieval implements the hybrid retrieval pipeline of §4.4:
// query planning, independent semantic/BM25/graph searches, Reciprocal
// Rank Fusion, context-aware boosting and weak-memory reactivation, and
// co-retrieval recording for the implicit-relationship job.
package retrieval

import (
	"github.com/visioneer/core/internal/chunkmodel"
)

// Plan is the classification a query is routed through (§4.4 Query
// planning).
type Plan string

const (
	PlanOperational Plan = "operational"
	PlanLookup      Plan = "lookup"
	PlanConnection  Plan = "connection"
	PlanExploration Plan = "exploration"
	PlanHybrid      Plan = "hybrid"
)

// RetrievalContext is the caller's current situation, compared against
// each candidate chunk's stored LearningContext for context-aware
// boosting.
type RetrievalContext struct {
	Tick      chunkmodel.Tick
	TaskID    string
	GoalID    string
	Phase     string
	SkillArea string
	Query     string
	SessionID string
	// AnchorChunkID is the known chunk a "connection" plan traverses
	// from (e.g. resolved from a lookup-style keyword match).
	AnchorChunkID string
}

// rrfWeights are §4.4's fixed per-source weights for Reciprocal Rank
// Fusion.
const (
	rrfWeightSemantic = 0.40
	rrfWeightKeyword  = 0.35
	rrfWeightGraph    = 0.25
)

// contextDimensionWeights are §4.4's per-dimension weights for
// context_match.
const (
	contextWeightGoal      = 0.40
	contextWeightTask      = 0.25
	contextWeightPhase     = 0.20
	contextWeightSkillArea = 0.15
)

// weakMemoryStrengthThreshold and weakMemoryContextThreshold gate §4.4's
// memory-reactivation boost: a weak chunk in strong context can outrank
// its own naive similarity score.
const (
	weakMemoryStrengthThreshold = 0.3
	weakMemoryContextThreshold  = 0.6
)

// strongMatchThreshold / moderateMatchThreshold gate the two boost
// tiers of §4.4's context-aware boosting: strong is context_match >
// strongMatchThreshold, moderate is moderateMatchThreshold < context_match
// <= strongMatchThreshold.
const (
	strongMatchThreshold   = 0.7
	moderateMatchThreshold = 0.4
)
