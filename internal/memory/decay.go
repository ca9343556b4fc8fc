package memory

import (
	"math"

	"github.com/visioneer/core/internal/chunkmodel"
)

// recencyFactorTau is the divisor in the decay recency factor: chunks
// accessed more recently decay more slowly.
const recencyFactorTau = 10.0

// recencyFactor returns §4.3's Decay-phase recency_factor: chunks
// accessed recently decay more slowly than their nominal rate.
func recencyFactor(currentTick, tickLastAccessed chunkmodel.Tick, everAccessed bool) float64 {
	if !everAccessed {
		return 1.0
	}
	elapsed := float64(currentTick) - float64(tickLastAccessed)
	if elapsed < 0 {
		elapsed = 0
	}
	return 1 - 0.3*math.Exp(-elapsed/recencyFactorTau)
}

// statusForStrength maps a post-decay strength to its ladder status per
// §4.3's threshold table. Callers are responsible for never calling this
// to promote status: ApplyDecay only ever moves a chunk down the ladder
// (see clampDemotion).
func statusForStrength(strength float64) chunkmodel.ChunkStatus {
	switch {
	case strength >= 0.30:
		return chunkmodel.StatusActive
	case strength >= 0.15:
		return chunkmodel.StatusWarm
	case strength >= 0.05:
		return chunkmodel.StatusCool
	case strength > 0:
		return chunkmodel.StatusCold
	default:
		return chunkmodel.StatusTombstone
	}
}

// statusRank gives the ladder position of a status, increasing toward
// the tombstoned end, so demotion can be enforced as a one-way move.
func statusRank(s chunkmodel.ChunkStatus) int {
	switch s {
	case chunkmodel.StatusActive:
		return 0
	case chunkmodel.StatusWarm:
		return 1
	case chunkmodel.StatusCool:
		return 2
	case chunkmodel.StatusCold:
		return 3
	case chunkmodel.StatusTombstone:
		return 4
	case chunkmodel.StatusArchived:
		return 5
	default:
		return 0
	}
}

// clampDemotion returns the lower (more-decayed) of current and
// candidate, enforcing decay's one-way-demotion invariant (§4.3, §8).
func clampDemotion(current, candidate chunkmodel.ChunkStatus) chunkmodel.ChunkStatus {
	if statusRank(candidate) > statusRank(current) {
		return candidate
	}
	return current
}

// ApplyDecay applies one decay pass to c as of currentTick, per §4.3.
// lastDecayTick is the project's clock-state last_decay_tick; Δ is
// measured from max(tick_last_accessed, lastDecayTick) so a chunk
// accessed since the previous decay pass only decays for the remainder.
// Pinned chunks and user_input chunks are left untouched (their write-time
// policy already assigns decay_function=none, but the guard is explicit
// here too since a caller could construct c by hand). It returns the same
// chunk pointer for convenience; callers are responsible for persisting it
// via Store.UpdateChunk.
func ApplyDecay(c *chunkmodel.Chunk, currentTick, lastDecayTick chunkmodel.Tick) *chunkmodel.Chunk {
	if c.Pinned || c.Type == chunkmodel.ChunkUserInput || c.DecayFunction == chunkmodel.DecayNone {
		return c
	}

	everAccessed := c.AccessCount > 0
	baseline := maxTick(c.TickLastAccessed, lastDecayTick)
	if currentTick <= baseline {
		return c
	}

	delta := float64(currentTick) - float64(baseline)

	mu := categoryMultiplier(c.Type, c.Tags, c.SupersededBy != "")
	rf := recencyFactor(currentTick, c.TickLastAccessed, everAccessed)

	s := c.CurrentStrength
	switch c.DecayFunction {
	case chunkmodel.DecayExponential:
		s = s * math.Exp(-c.DecayRate*delta*mu*rf)
	case chunkmodel.DecayLinear:
		s = s - c.DecayRate*delta*mu*rf
		if s < 0 {
			s = 0
		}
	case chunkmodel.DecayPowerLaw:
		s = s * math.Pow(1+delta, -c.DecayRate*mu*rf)
	default:
		return c
	}
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}

	c.CurrentStrength = s
	c.Status = clampDemotion(c.Status, statusForStrength(s))
	if s == 0 {
		c.Status = chunkmodel.StatusTombstone
	}
	return c
}

func maxTick(a, b chunkmodel.Tick) chunkmodel.Tick {
	if a > b {
		return a
	}
	return b
}
