package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visioneer/core/internal/chunkmodel"
)

// implicitRelationshipInitialWeight is the starting weight for a newly
// formed implicit relationship (§4.5).
const implicitRelationshipInitialWeight = 0.2

// ImplicitJobResult reports what one implicit-relationship pass did.
type ImplicitJobResult struct {
	Created    int
	Strengthened int
	Pruned       int
}

// RunImplicitRelationshipJob implements §4.5's background job: group
// CoRetrieval rows by unordered pair, create or strengthen a related_to
// edge once a pair crosses threshold distinct co-retrievals, then prune
// rows older than retention.
func (e *Engine) RunImplicitRelationshipJob(ctx context.Context, projectID string, threshold int, retention time.Duration) (ImplicitJobResult, error) {
	var result ImplicitJobResult

	pairs, err := e.store.PairsCrossingThreshold(ctx, projectID, threshold)
	if err != nil {
		return result, fmt.Errorf("failed to gather co-retrieval pairs: %w", err)
	}

	for _, pair := range pairs {
		a, b := pair[0], pair[1]

		existing, err := e.store.FindRelationship(ctx, a, b, chunkmodel.RelRelatedTo)
		if err != nil {
			return result, err
		}
		if existing == nil {
			existing, err = e.store.FindRelationship(ctx, b, a, chunkmodel.RelRelatedTo)
			if err != nil {
				return result, err
			}
		}

		if existing == nil {
			r := &chunkmodel.Relationship{
				ID:          uuid.NewString(),
				ProjectID:   projectID,
				FromChunkID: a,
				ToChunkID:   b,
				Type:        chunkmodel.RelRelatedTo,
				Weight:      implicitRelationshipInitialWeight,
				Origin:      chunkmodel.OriginImplicit,
				CreatedAt:   time.Now().UTC(),
			}
			if _, err := e.store.CreateRelationship(ctx, r); err != nil {
				return result, err
			}
			result.Created++
			continue
		}

		if err := e.Strengthen(ctx, existing.ID, 0); err != nil {
			return result, err
		}
		result.Strengthened++
	}

	cutoff := time.Now().UTC().Add(-retention)
	pruned, err := e.store.PruneCoRetrievalsBefore(ctx, projectID, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to prune stale co-retrievals: %w", err)
	}
	result.Pruned = pruned

	return result, nil
}
