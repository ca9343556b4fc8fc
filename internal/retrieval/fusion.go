package retrieval

// rankedSource is one channel's ranked candidate list, best first, as
// fed into Reciprocal Rank Fusion.
type rankedSource struct {
	weight float64
	ranks  map[string]int // chunk id -> 1-based rank within this source
}

func rankedFrom(ids []string, weight float64) rankedSource {
	ranks := make(map[string]int, len(ids))
	for i, id := range ids {
		ranks[id] = i + 1
	}
	return rankedSource{weight: weight, ranks: ranks}
}

// FuseRRF implements §4.4's Reciprocal Rank Fusion: each source
// contributes weight * 1/(k+rank), zero if the chunk is absent from that
// source. semanticIDs/keywordIDs/graphIDs are each already ranked best
// first (the caller has already sorted by that channel's own score).
func FuseRRF(k int, semanticIDs, keywordIDs, graphIDs []string) map[string]float64 {
	sources := []rankedSource{
		rankedFrom(semanticIDs, rrfWeightSemantic),
		rankedFrom(keywordIDs, rrfWeightKeyword),
		rankedFrom(graphIDs, rrfWeightGraph),
	}

	scores := make(map[string]float64)
	for _, src := range sources {
		for id, rank := range src.ranks {
			scores[id] += src.weight * 1.0 / float64(k+rank)
		}
	}
	return scores
}

// rankByScoreDesc returns ids sorted by descending score, the shape
// FuseRRF's inputs expect from each independent channel search.
func rankByScoreDesc(scores map[string]float64) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && scores[ids[j]] > scores[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}
