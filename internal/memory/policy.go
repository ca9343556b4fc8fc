// Package memory implements the Memory Engine of §4.3: chunk write
// path, persistence-score ranking, decay, reactivation, consolidation,
// and the relationship graph (explicit/implicit/contradiction).
//
// Grounded on the teacher's internal/memory package shape — a thin
// layer of domain logic sitting directly on top of the store — but the
// teacher's version is pure CRUD with no decay or scoring concept of
// its own, so the formulas here are built fresh against §4.3 rather
// than adapted from any teacher function.
package memory

import (
	"strings"

	"github.com/visioneer/core/internal/chunkmodel"
)

// decayPolicy is the (decay_function, decay_rate) pair assigned to a
// new chunk at write time, per §4.3's policy table.
type decayPolicy struct {
	Function chunkmodel.DecayFunction
	Rate     float64
}

// policyFor selects the write-time decay policy for a chunk, given its
// type, tags, and pinned flag.
func policyFor(chunkType chunkmodel.ChunkType, tags []string, pinned bool) decayPolicy {
	if pinned || chunkType == chunkmodel.ChunkUserInput {
		return decayPolicy{Function: chunkmodel.DecayNone, Rate: 0}
	}
	if chunkType == chunkmodel.ChunkDecision {
		return decayPolicy{Function: chunkmodel.DecayLinear, Rate: 0.02}
	}
	if hasGoalOrPriorityTag(tags) {
		return decayPolicy{Function: chunkmodel.DecayExponential, Rate: 0.02}
	}
	if chunkType == chunkmodel.ChunkAttempt {
		return decayPolicy{Function: chunkmodel.DecayExponential, Rate: 0.10}
	}
	return decayPolicy{Function: chunkmodel.DecayExponential, Rate: 0.05}
}

func hasGoalOrPriorityTag(tags []string) bool {
	for _, t := range tags {
		lower := strings.ToLower(t)
		if strings.Contains(lower, "goal") || strings.Contains(lower, "priority") {
			return true
		}
	}
	return false
}

// categoryMultiplier is §4.3's μ table used during decay. A tag of
// "goal" or "priority" overrides the type-based multiplier to 0.4
// regardless of type.
func categoryMultiplier(chunkType chunkmodel.ChunkType, tags []string, superseded bool) float64 {
	if hasGoalOrPriorityTag(tags) {
		return 0.4
	}
	if superseded {
		return 2.5
	}
	switch chunkType {
	case chunkmodel.ChunkUserInput:
		return 0
	case chunkmodel.ChunkDecision:
		return 0.5
	case chunkmodel.ChunkInsight:
		return 0.8
	case chunkmodel.ChunkResearch:
		return 1.0
	case chunkmodel.ChunkAttempt:
		return 1.3
	case chunkmodel.ChunkProcedure:
		return 0.7
	case chunkmodel.ChunkQuestion:
		return 1.1
	default:
		return 1.0
	}
}
