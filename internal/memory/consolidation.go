package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/store"
)

// ConsolidationConfig bundles the configuration knobs §4.3's
// Consolidation pass reads, mirroring internal/config's MemoryConfig and
// KnowledgeConfig without importing that package directly (the engine
// stays independent of the config surface; the agent cycle driver
// translates config.Config into this struct).
type ConsolidationConfig struct {
	TombstoneRetentionTicks chunkmodel.Tick
	SummariseAgeTicks       chunkmodel.Tick
	CoretrievalThreshold    int
	CoretrievalRetention    time.Duration
}

// summariseFallbackLen is the prefix length used to compress a cool
// chunk's content when no executor is available to summarise it.
const summariseFallbackLen = 280

// ConsolidationResult reports what one pass did, for activity logging.
type ConsolidationResult struct {
	Archived    int
	Summarised  int
	Implicit    ImplicitJobResult
}

// RunConsolidation implements §4.3's Consolidation procedure: archive
// retired tombstones, summarise stale cool chunks, then run the implicit
// relationship job.
func (e *Engine) RunConsolidation(ctx context.Context, projectID string, currentTick chunkmodel.Tick, cfg ConsolidationConfig) (ConsolidationResult, error) {
	var result ConsolidationResult

	archived, err := e.archiveRetiredTombstones(ctx, projectID, currentTick, cfg.TombstoneRetentionTicks)
	if err != nil {
		return result, fmt.Errorf("tombstone archival failed: %w", err)
	}
	result.Archived = archived

	summarised, err := e.summariseStaleCoolChunks(ctx, projectID, currentTick, cfg.SummariseAgeTicks)
	if err != nil {
		return result, fmt.Errorf("cool-chunk summarisation failed: %w", err)
	}
	result.Summarised = summarised

	implicit, err := e.RunImplicitRelationshipJob(ctx, projectID, cfg.CoretrievalThreshold, cfg.CoretrievalRetention)
	if err != nil {
		return result, fmt.Errorf("implicit relationship job failed: %w", err)
	}
	result.Implicit = implicit

	return result, nil
}

// archiveRetiredTombstones implements step 1 of §4.3's Consolidation:
// tombstones older than the retention window get a ChunkArchive row and
// are removed from the live table; outgoing relationships transfer to
// any "replaces" target at 50% weight, the rest are dropped.
func (e *Engine) archiveRetiredTombstones(ctx context.Context, projectID string, currentTick, retention chunkmodel.Tick) (int, error) {
	tombstoned, err := e.store.ListChunks(ctx, store.ChunkFilter{
		ProjectID: projectID,
		Status:    chunkmodel.StatusTombstone,
	})
	if err != nil {
		return 0, err
	}

	archivedCount := 0
	for _, c := range tombstoned {
		if currentTick-c.TickCreated < retention {
			continue
		}

		if err := e.transferOrDropRelationships(ctx, c); err != nil {
			return archivedCount, err
		}

		archive := &chunkmodel.ChunkArchive{
			ChunkID:        c.ID,
			ProjectID:      c.ProjectID,
			ContentSummary: summarise(c.Content),
			ContentHash:    contentHash(c.Content),
			TickArchived:   currentTick,
			FinalStrength:  c.CurrentStrength,
			FinalContext:   c.LearningContext.QueryContext,
			ArchivedAt:     time.Now().UTC(),
		}
		if err := e.store.ArchiveChunk(ctx, archive); err != nil {
			return archivedCount, err
		}
		archivedCount++
	}
	return archivedCount, nil
}

// transferOrDropRelationships moves a retiring chunk's other outgoing
// edges onto its "replaces" target at half weight, if it has one. Either
// way every live edge touching the retiring chunk is then moved to the
// relationship archive (reason "endpoint archived"), so no live edge is
// left pointing at a chunk that is leaving the live table.
func (e *Engine) transferOrDropRelationships(ctx context.Context, c *chunkmodel.Chunk) error {
	rels, err := e.store.RelationshipsForChunk(ctx, c.ID)
	if err != nil {
		return err
	}

	var target string
	for _, r := range rels {
		if r.FromChunkID == c.ID && r.Type == chunkmodel.RelReplaces {
			target = r.ToChunkID
			break
		}
	}
	if target != "" {
		for _, r := range rels {
			if r.FromChunkID != c.ID || r.Type == chunkmodel.RelReplaces {
				continue
			}
			if _, err := e.CreateExplicitRelationship(ctx, c.ProjectID, target, r.ToChunkID, r.Type, r.Weight*0.5, r.ContextTags); err != nil {
				return err
			}
		}
	}

	for _, r := range rels {
		if err := e.store.WeakenRelationship(ctx, r.ID, r.Weight, relationshipArchiveFloor, "endpoint archived"); err != nil {
			return err
		}
	}
	return nil
}

// summariseStaleCoolChunks implements step 2: cool chunks untouched for
// summariseAge ticks get their content replaced by a compact summary,
// re-embedded against that summary so the chunk keeps its semantic
// retrievability.
func (e *Engine) summariseStaleCoolChunks(ctx context.Context, projectID string, currentTick, summariseAge chunkmodel.Tick) (int, error) {
	cool, err := e.store.ListChunks(ctx, store.ChunkFilter{
		ProjectID: projectID,
		Status:    chunkmodel.StatusCool,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, c := range cool {
		if currentTick-c.TickLastAccessed < summariseAge {
			continue
		}
		if len(c.Content) <= summariseFallbackLen {
			continue
		}
		c.Content = summarise(c.Content)
		if e.embedding != nil {
			vec, err := e.embedding.Embed(ctx, c.Content)
			if err != nil {
				return count, fmt.Errorf("re-embedding summary for chunk %s: %w", c.ID, err)
			}
			c.Embedding = vec
		}
		if err := e.store.UpdateChunk(ctx, c); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func summarise(content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= summariseFallbackLen {
		return trimmed
	}
	cut := trimmed[:summariseFallbackLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

func contentHash(content string) string {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(content); i++ {
		h ^= uint64(content[i])
		h *= 1099511628211
	}
	return fmt.Sprintf("%016x", h)
}
