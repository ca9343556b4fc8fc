package memory

import (
	"testing"

	"github.com/visioneer/core/internal/chunkmodel"
)

func TestApplyDecayExponentialDemotesLadder(t *testing.T) {
	c := &chunkmodel.Chunk{
		Type:            chunkmodel.ChunkResearch,
		CurrentStrength: 1.0,
		DecayFunction:   chunkmodel.DecayExponential,
		DecayRate:       0.5,
		Status:          chunkmodel.StatusActive,
		TickLastAccessed: 0,
	}

	ApplyDecay(c, 20, 0)

	if c.CurrentStrength >= 1.0 {
		t.Fatalf("expected strength to decrease, got %f", c.CurrentStrength)
	}
	if statusRank(c.Status) <= statusRank(chunkmodel.StatusActive) {
		t.Fatalf("expected status to demote past active, got %s", c.Status)
	}
}

func TestApplyDecaySkipsPinnedAndUserInput(t *testing.T) {
	pinned := &chunkmodel.Chunk{Pinned: true, CurrentStrength: 1.0, DecayFunction: chunkmodel.DecayExponential, DecayRate: 1.0}
	ApplyDecay(pinned, 100, 0)
	if pinned.CurrentStrength != 1.0 {
		t.Errorf("pinned chunk should never decay, got strength %f", pinned.CurrentStrength)
	}

	userInput := &chunkmodel.Chunk{Type: chunkmodel.ChunkUserInput, CurrentStrength: 1.0, DecayFunction: chunkmodel.DecayExponential, DecayRate: 1.0}
	ApplyDecay(userInput, 100, 0)
	if userInput.CurrentStrength != 1.0 {
		t.Errorf("user_input chunk should never decay, got strength %f", userInput.CurrentStrength)
	}
}

func TestApplyDecayNeverPromotes(t *testing.T) {
	// A chunk already demoted to cold should not be bumped back up to
	// active even if a (malformed) strength recomputes higher than its
	// current rank would suggest; clampDemotion enforces one-way travel.
	c := &chunkmodel.Chunk{
		Type:            chunkmodel.ChunkResearch,
		CurrentStrength: 0.9,
		DecayFunction:   chunkmodel.DecayLinear,
		DecayRate:       0,
		Status:          chunkmodel.StatusCold,
	}

	ApplyDecay(c, 5, 0)

	if c.Status != chunkmodel.StatusCold {
		t.Fatalf("expected status to stay clamped at cold, got %s", c.Status)
	}
}

func TestApplyDecayZeroStrengthTombstones(t *testing.T) {
	c := &chunkmodel.Chunk{
		Type:            chunkmodel.ChunkResearch,
		CurrentStrength: 0.01,
		DecayFunction:   chunkmodel.DecayLinear,
		DecayRate:       10,
		Status:          chunkmodel.StatusCold,
	}

	ApplyDecay(c, 5, 0)

	if c.CurrentStrength != 0 {
		t.Errorf("expected strength to floor at 0, got %f", c.CurrentStrength)
	}
	if c.Status != chunkmodel.StatusTombstone {
		t.Errorf("expected zero strength to tombstone, got %s", c.Status)
	}
}

func TestStatusForStrengthThresholds(t *testing.T) {
	cases := []struct {
		strength float64
		want     chunkmodel.ChunkStatus
	}{
		{0.9, chunkmodel.StatusActive},
		{0.30, chunkmodel.StatusActive},
		{0.29, chunkmodel.StatusWarm},
		{0.15, chunkmodel.StatusWarm},
		{0.14, chunkmodel.StatusCool},
		{0.05, chunkmodel.StatusCool},
		{0.04, chunkmodel.StatusCold},
		{0, chunkmodel.StatusTombstone},
	}
	for _, tc := range cases {
		if got := statusForStrength(tc.strength); got != tc.want {
			t.Errorf("statusForStrength(%f) = %s, want %s", tc.strength, got, tc.want)
		}
	}
}
