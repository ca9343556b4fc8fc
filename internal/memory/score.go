package memory

import (
	"math"
	"strings"

	"github.com/visioneer/core/internal/chunkmodel"
)

// frequencyK is the rate constant in the frequency component of the
// persistence score (§4.3): frequency = 1 - e^(-k*access_count).
const frequencyK = 0.3

// recencyHalfLifeTicks is the divisor in the recency component:
// recency = e^(-(current_tick - tick_last_accessed) / recencyHalfLifeTicks).
const recencyHalfLifeTicks = 50.0

// persistence score weights (§4.3), summing to 1.
const (
	weightFrequency = 0.25
	weightSalience  = 0.30
	weightConnection = 0.15
	weightRecency    = 0.15
	weightImportance = 0.15
)

// typeSalience is the base salience assigned per chunk type before the
// source and confidence multipliers are applied.
func typeSalience(t chunkmodel.ChunkType) float64 {
	switch t {
	case chunkmodel.ChunkUserInput:
		return 1.0
	case chunkmodel.ChunkDecision:
		return 0.9
	case chunkmodel.ChunkInsight:
		return 0.8
	case chunkmodel.ChunkResearch:
		return 0.6
	case chunkmodel.ChunkAttempt:
		return 0.5
	default:
		return 0.5
	}
}

func sourceMultiplier(s chunkmodel.Source) float64 {
	switch s {
	case chunkmodel.SourceUser:
		return 1.0
	case chunkmodel.SourceExperiment:
		return 0.85
	case chunkmodel.SourceDeduction:
		return 0.75
	case chunkmodel.SourceResearch:
		return 0.7
	default:
		return 0.7
	}
}

func confidenceMultiplier(c chunkmodel.Confidence) float64 {
	switch c {
	case chunkmodel.ConfidenceVerified:
		return 1.0
	case chunkmodel.ConfidenceInferred:
		return 0.75
	case chunkmodel.ConfidenceSpeculative:
		return 0.5
	default:
		return 0.75
	}
}

func hasImportanceTag(tags []string) bool {
	for _, t := range tags {
		lower := strings.ToLower(t)
		switch lower {
		case "important", "core", "pinned", "goal", "priority":
			return true
		}
	}
	return false
}

// persistenceComponents holds the five §4.3 sub-scores before weighting,
// surfaced for observability and tests rather than collapsed immediately
// into the single composite score.
type persistenceComponents struct {
	Frequency  float64
	Salience   float64
	Connection float64
	Recency    float64
	Importance float64
}

// computePersistenceComponents derives the five §4.3 sub-scores for c as
// of currentTick, given its live relationship count.
func computePersistenceComponents(c *chunkmodel.Chunk, currentTick chunkmodel.Tick, relationshipCount int) persistenceComponents {
	frequency := 1 - math.Exp(-frequencyK*float64(c.AccessCount))

	salience := typeSalience(c.Type) * sourceMultiplier(c.Source) * confidenceMultiplier(c.Confidence)

	connection := float64(relationshipCount) / 15.0
	if connection > 1 {
		connection = 1
	}

	var recency float64
	if c.AccessCount > 0 {
		elapsed := float64(currentTick) - float64(c.TickLastAccessed)
		if elapsed < 0 {
			elapsed = 0
		}
		recency = math.Exp(-elapsed / recencyHalfLifeTicks)
	}

	var importance float64
	switch {
	case c.Pinned:
		importance = 1.0
	case hasImportanceTag(c.Tags):
		importance = 0.7
	default:
		importance = 0.4
	}

	return persistenceComponents{
		Frequency:  frequency,
		Salience:   salience,
		Connection: connection,
		Recency:    recency,
		Importance: importance,
	}
}

// PersistenceScore computes §4.3's composite persistence score for c as
// of currentTick, given the number of live relationship edges touching
// c. Nothing recomputes it automatically: Engine.Score computes it on
// demand, and no retrieval, decay, or reactivation pass updates the
// chunk row's PersistenceScore field.
func PersistenceScore(c *chunkmodel.Chunk, currentTick chunkmodel.Tick, relationshipCount int) float64 {
	p := computePersistenceComponents(c, currentTick, relationshipCount)
	return weightFrequency*p.Frequency +
		weightSalience*p.Salience +
		weightConnection*p.Connection +
		weightRecency*p.Recency +
		weightImportance*p.Importance
}
