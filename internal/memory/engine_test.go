package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/store"
)

func setupEngine(t *testing.T) (*Engine, *store.Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p, err := s.CreateProject(context.Background(), "engine-test")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	return NewEngine(s, &executor.StubEmbeddingProvider{Dims: 8}), s, p.ID
}

func TestWriteChunkAssignsActiveStatusAndDecayPolicy(t *testing.T) {
	e, s, projectID := setupEngine(t)
	ctx := context.Background()

	c, err := e.WriteChunk(ctx, WriteChunkInput{
		ProjectID:   projectID,
		Content:     "the retry budget is 3 attempts",
		Type:        chunkmodel.ChunkInsight,
		Confidence:  chunkmodel.ConfidenceVerified,
		Source:      chunkmodel.SourceDeduction,
		CurrentTick: 1,
	})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if c.Status != chunkmodel.StatusActive {
		t.Errorf("expected new chunk to start active, got %s", c.Status)
	}
	if c.CurrentStrength != 1.0 {
		t.Errorf("expected new chunk at full strength, got %f", c.CurrentStrength)
	}
	if len(c.Embedding) == 0 {
		t.Error("expected an embedding to be computed via the stub provider")
	}

	stored, err := s.GetChunk(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetChunk failed: %v", err)
	}
	if stored.Content != c.Content {
		t.Errorf("round-tripped content mismatch: got %q", stored.Content)
	}
}

func TestWriteChunkPinnedNeverDecays(t *testing.T) {
	e, _, projectID := setupEngine(t)
	ctx := context.Background()

	c, err := e.WriteChunk(ctx, WriteChunkInput{
		ProjectID:   projectID,
		Content:     "never forget this",
		Type:        chunkmodel.ChunkDecision,
		Confidence:  chunkmodel.ConfidenceVerified,
		Source:      chunkmodel.SourceUser,
		Pinned:      true,
		CurrentTick: 1,
	})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if c.DecayFunction != chunkmodel.DecayNone {
		t.Errorf("expected pinned chunk to get decay_function=none, got %s", c.DecayFunction)
	}
}

func TestRunDecayDemotesOldChunksAndSkipsTombstoned(t *testing.T) {
	e, s, projectID := setupEngine(t)
	ctx := context.Background()

	c, err := e.WriteChunk(ctx, WriteChunkInput{
		ProjectID:   projectID,
		Content:     "a research finding",
		Type:        chunkmodel.ChunkResearch,
		Confidence:  chunkmodel.ConfidenceInferred,
		Source:      chunkmodel.SourceResearch,
		CurrentTick: 0,
	})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}

	updated, err := e.RunDecay(ctx, projectID, 500, 0)
	if err != nil {
		t.Fatalf("RunDecay failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 chunk updated, got %d", updated)
	}

	stored, err := s.GetChunk(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetChunk failed: %v", err)
	}
	if stored.Status == chunkmodel.StatusActive {
		t.Errorf("expected chunk to have decayed off active after 500 ticks, still %s", stored.Status)
	}

	// A second decay pass over an already-tombstoned/low-strength chunk
	// should not error and should not resurrect it.
	if _, err := e.RunDecay(ctx, projectID, 1000, 500); err != nil {
		t.Fatalf("second RunDecay failed: %v", err)
	}
}
