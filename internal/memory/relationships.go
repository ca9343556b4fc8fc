package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

const (
	defaultStrengthenDelta  = 0.05
	contradictionWeakenDelta = 0.30
	manualWeakenDelta        = 0.10
	relationshipArchiveFloor = 0.05
)

// CreateExplicitRelationship implements §4.3's "Create explicit" operation:
// on duplicate (from, to, type) in the live table it merges instead of
// erroring, storing max(weight). The union of context_tags is set on the
// returned relationship only; the stored row keeps its original tags.
func (e *Engine) CreateExplicitRelationship(ctx context.Context, projectID, fromID, toID string, typ chunkmodel.RelationshipType, weight float64, contextTags []string) (*chunkmodel.Relationship, error) {
	existing, err := e.store.FindRelationship(ctx, fromID, toID, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing relationship: %w", err)
	}
	if existing != nil {
		merged := weight
		if existing.Weight > merged {
			merged = existing.Weight
		}
		existing.ContextTags = unionTags(existing.ContextTags, contextTags)
		if err := e.store.StrengthenRelationship(ctx, existing.ID, merged-existing.Weight); err != nil {
			return nil, fmt.Errorf("failed to touch merged relationship: %w", err)
		}
		existing.Weight = clamp01(merged)
		return existing, nil
	}

	r := &chunkmodel.Relationship{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		FromChunkID: fromID,
		ToChunkID:   toID,
		Type:        typ,
		Weight:      clamp01(weight),
		ContextTags: contextTags,
		Origin:      chunkmodel.OriginExplicit,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := e.store.CreateRelationship(ctx, r)
	if err != nil {
		if verrors.IsConflict(err) {
			// Lost a race with a concurrent creator of the same edge;
			// fall back to reading what they wrote.
			if existing, ferr := e.store.FindRelationship(ctx, fromID, toID, typ); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return created, nil
}

// Strengthen implements §4.3's "Strengthen" operation with the default
// delta (0.05) unless delta is explicitly overridden by the caller.
func (e *Engine) Strengthen(ctx context.Context, relationshipID string, delta float64) error {
	if delta == 0 {
		delta = defaultStrengthenDelta
	}
	return e.store.StrengthenRelationship(ctx, relationshipID, delta)
}

// Weaken implements §4.3's "Weaken" operation: delta defaults to the
// contradiction rate (0.30) when contradiction is true, else the manual
// rate (0.10). Weight drops below relationshipArchiveFloor move the edge
// to the archive table with reason.
func (e *Engine) Weaken(ctx context.Context, relationshipID string, contradiction bool, reason string) error {
	delta := manualWeakenDelta
	if contradiction {
		delta = contradictionWeakenDelta
	}
	return e.store.WeakenRelationship(ctx, relationshipID, delta, relationshipArchiveFloor, reason)
}

// TraversedChunk is one hop of a Traverse call: the connected chunk plus
// its traversal score (§4.3: weight * recency_factor * context_match).
type TraversedChunk struct {
	Chunk        *chunkmodel.Chunk
	Relationship *chunkmodel.Relationship
	Score        float64
}

// TraverseFilter narrows a Traverse call.
type TraverseFilter struct {
	Type      chunkmodel.RelationshipType // zero value = any type
	MinWeight float64
	Limit     int
}

// Traverse implements §4.3's "Traverse" operation: connected chunks
// ranked by weight * recency_factor * context_match, descending.
// contextMatch is supplied by the retrieval layer per candidate; when the
// caller has no retrieval context (e.g. a plain graph browse) pass 1.0.
func (e *Engine) Traverse(ctx context.Context, chunkID string, currentTick chunkmodel.Tick, contextMatch float64, filter TraverseFilter) ([]TraversedChunk, error) {
	rels, err := e.store.RelationshipsForChunk(ctx, chunkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships for traversal: %w", err)
	}

	out := make([]TraversedChunk, 0, len(rels))
	for _, r := range rels {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if r.Weight < filter.MinWeight {
			continue
		}
		otherID := r.ToChunkID
		if otherID == chunkID {
			otherID = r.FromChunkID
		}
		other, err := e.store.GetChunk(ctx, otherID)
		if err != nil {
			if verrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}

		var rf float64 = 1.0
		if r.LastActivated != nil {
			lastTick := other.TickLastAccessed
			rf = recencyFactor(currentTick, lastTick, true)
		}
		score := r.Weight * rf * contextMatch
		out = append(out, TraversedChunk{Chunk: other, Relationship: r, Score: score})
	}

	sortTraversedByScoreDesc(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Contradict implements §4.5's contradiction handling: weaken every
// outgoing relationship of the contradicted chunk, record
// contradicted_by, and — when the contradicting chunk also carries a
// "replaces" edge toward it — mark the old chunk superseded.
func (e *Engine) Contradict(ctx context.Context, contradictedID, contradictingID string, replaces bool) error {
	rels, err := e.store.RelationshipsForChunk(ctx, contradictedID)
	if err != nil {
		return fmt.Errorf("failed to load outgoing relationships: %w", err)
	}
	for _, r := range rels {
		if r.FromChunkID != contradictedID {
			continue
		}
		if err := e.Weaken(ctx, r.ID, true, "contradicted"); err != nil {
			return fmt.Errorf("failed to weaken relationship %s: %w", r.ID, err)
		}
	}

	contradicted, err := e.store.GetChunk(ctx, contradictedID)
	if err != nil {
		return err
	}
	contradicted.ContradictedBy = contradictingID
	if replaces {
		contradicted.SupersededBy = contradictingID
	}
	return e.store.UpdateChunk(ctx, contradicted)
}

func unionTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range append(append([]string{}, a...), b...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortTraversedByScoreDesc(s []TraversedChunk) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Score > s[j-1].Score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
