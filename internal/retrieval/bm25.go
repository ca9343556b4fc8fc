package retrieval

import (
	"math"
	"strings"
)

// BM25 constants (Okapi BM25's usual defaults).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25Document is one tokenized document in the corpus the scorer
// ranks against.
type bm25Document struct {
	ID     string
	Tokens []string
}

// BM25Index is a from-scratch Okapi BM25 scorer over an in-memory
// candidate pool. Retrieval builds one per query from the lexical
// candidates of a SearchChunksByText or ListChunks call, scores it, and
// folds the result into Reciprocal Rank Fusion alongside the semantic
// and graph channels.
//
// Hand-rolled rather than built on a bundled search engine: Reciprocal
// Rank Fusion needs a raw per-document BM25 score to combine with the
// other two channels, and no indexing library in the example pack
// exposes that without first building and querying a full inverted
// index for a single scoring function.
type BM25Index struct {
	docs     []bm25Document
	docFreq  map[string]int
	avgLen   float64
	totalLen int
}

// NewBM25Index tokenizes and indexes docs (id -> content).
func NewBM25Index(docs map[string]string) *BM25Index {
	idx := &BM25Index{docFreq: make(map[string]int)}
	for id, content := range docs {
		tokens := tokenize(content)
		idx.docs = append(idx.docs, bm25Document{ID: id, Tokens: tokens})
		idx.totalLen += len(tokens)
		for term := range uniqueTerms(tokens) {
			idx.docFreq[term]++
		}
	}
	if len(idx.docs) > 0 {
		idx.avgLen = float64(idx.totalLen) / float64(len(idx.docs))
	}
	return idx
}

// Score returns the Okapi BM25 score of every indexed document against
// query, in no particular order; callers rank by score themselves.
func (idx *BM25Index) Score(query string) map[string]float64 {
	queryTerms := tokenize(query)
	scores := make(map[string]float64, len(idx.docs))
	n := float64(len(idx.docs))

	for _, doc := range idx.docs {
		termCounts := termFrequencies(doc.Tokens)
		docLen := float64(len(doc.Tokens))

		var score float64
		for _, term := range queryTerms {
			tf, ok := termCounts[term]
			if !ok {
				continue
			}
			df := float64(idx.docFreq[term])
			if df == 0 {
				continue
			}
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			numerator := float64(tf) * (bm25K1 + 1)
			denominator := float64(tf) + bm25K1*(1-bm25B+bm25B*docLen/idx.avgLen)
			score += idf * numerator / denominator
		}
		scores[doc.ID] = score
	}
	return scores
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	return fields
}

func termFrequencies(tokens []string) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t]++
	}
	return out
}

func uniqueTerms(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}
