package memory

import (
	"github.com/visioneer/core/internal/chunkmodel"
)

// reactivationBoost is the diminishing-returns strength boost applied on
// a "useful" signal: S <- min(1, S + reactivationBoost*(1-S)).
const reactivationBoost = 0.2

// Record applies the access-tracking half of reactivation (§4.3): every
// retrieval that returns c bumps its access count and last-accessed tick,
// regardless of whether the executor later reports the chunk as useful.
func Record(c *chunkmodel.Chunk, currentTick chunkmodel.Tick) {
	c.AccessCount++
	c.TickLastAccessed = currentTick
}

// MarkUseful applies the "useful" feedback half of reactivation: a
// diminishing-returns strength boost, and — if the boosted strength
// crosses back above the originating tier's threshold and contextMatch
// is strong (> 0.6) — a promotion of at most one tier, never skipping.
func MarkUseful(c *chunkmodel.Chunk, currentTick chunkmodel.Tick, contextMatch float64) {
	c.SuccessfulUses++
	c.TickLastUseful = currentTick

	before := c.Status
	s := c.CurrentStrength + reactivationBoost*(1-c.CurrentStrength)
	if s > 1 {
		s = 1
	}
	c.CurrentStrength = s

	if contextMatch > 0.6 {
		candidate := statusForStrength(s)
		if statusRank(candidate) < statusRank(before) {
			c.Status = promoteOneTier(before)
			return
		}
	}
	c.Status = before
}

// promoteOneTier returns the next status up the ladder from s, never
// skipping a tier (e.g. warm -> active, never cool -> active).
func promoteOneTier(s chunkmodel.ChunkStatus) chunkmodel.ChunkStatus {
	switch s {
	case chunkmodel.StatusTombstone, chunkmodel.StatusArchived:
		return chunkmodel.StatusCold
	case chunkmodel.StatusCold:
		return chunkmodel.StatusCool
	case chunkmodel.StatusCool:
		return chunkmodel.StatusWarm
	case chunkmodel.StatusWarm:
		return chunkmodel.StatusActive
	default:
		return chunkmodel.StatusActive
	}
}
