package retrieval

import "github.com/visioneer/core/internal/chunkmodel"

// ContextMatch implements §4.4's weighted dimension-overlap formula
// between a chunk's stored LearningContext and the current
// RetrievalContext: goal (0.40), task (0.25), phase (0.20), skill_area
// (0.15). A dimension counts as matching only when both sides are
// non-empty and equal; two chunks that both lack, say, a goal_id do not
// count as matching on that dimension (§8: "0 when all four dimensions
// mismatch" implies absence is not a match).
func ContextMatch(stored chunkmodel.LearningContext, current RetrievalContext) float64 {
	var score float64
	if dimensionMatches(stored.GoalID, current.GoalID) {
		score += contextWeightGoal
	}
	if dimensionMatches(stored.TaskID, current.TaskID) {
		score += contextWeightTask
	}
	if dimensionMatches(stored.Phase, current.Phase) {
		score += contextWeightPhase
	}
	if dimensionMatches(stored.SkillArea, current.SkillArea) {
		score += contextWeightSkillArea
	}
	return score
}

func dimensionMatches(a, b string) bool {
	return a != "" && a == b
}

// boostReason is recorded on a candidate for observability, per §4.4
// ("Record the boost reason for observability").
type boostReason string

const (
	boostNone           boostReason = ""
	boostStrongMatch    boostReason = "strong_context_match"
	boostModerateMatch  boostReason = "moderate_context_match"
	boostWeakReactivated boostReason = "weak_memory_reactivation"
)

// ApplyContextBoost implements §4.4's context-aware boosting and
// weak-memory reactivation. baseScore is the pre-boost fused score (or,
// for a pure semantic-only plan, the raw similarity); baseSimilarity is
// specifically the semantic-channel similarity used by the reactivation
// substitution. It returns the boosted score and the reason recorded for
// observability.
func ApplyContextBoost(baseScore, baseSimilarity, currentStrength, contextMatch float64) (float64, boostReason) {
	score := baseScore
	reason := boostNone

	if currentStrength < weakMemoryStrengthThreshold && contextMatch > weakMemoryContextThreshold {
		score = contextMatch * baseSimilarity * 0.7
		reason = boostWeakReactivated
	} else {
		switch {
		case contextMatch > strongMatchThreshold:
			score = score * (1 + (contextMatch-0.5)*0.6)
			reason = boostStrongMatch
		case contextMatch > moderateMatchThreshold:
			score = score * (1 + (contextMatch-0.3)*0.3)
			reason = boostModerateMatch
		}
	}

	return score, reason
}

// ConfidenceWeight returns the §4.4 confidence_weight multiplier for a
// chunk's confidence tier, using the caller-supplied weights (from
// config.RetrievalConfig.ConfidenceWeights) rather than hardcoding them,
// since §6 lists confidence_weights as a recognised configuration
// option.
func ConfidenceWeight(c chunkmodel.Confidence, verified, inferred, speculative float64) float64 {
	switch c {
	case chunkmodel.ConfidenceVerified:
		return verified
	case chunkmodel.ConfidenceInferred:
		return inferred
	case chunkmodel.ConfidenceSpeculative:
		return speculative
	default:
		return inferred
	}
}
