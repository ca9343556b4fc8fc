package retrieval

import "testing"

func TestBM25ScoresRewardTermOverlap(t *testing.T) {
	idx := NewBM25Index(map[string]string{
		"a": "the retry budget is three attempts",
		"b": "deployment pipeline uses blue green releases",
	})

	scores := idx.Score("retry budget attempts")
	if scores["a"] <= scores["b"] {
		t.Errorf("expected doc a (matching terms) to outscore doc b, got a=%f b=%f", scores["a"], scores["b"])
	}
	if scores["b"] != 0 {
		t.Errorf("expected doc b to score 0 on unrelated query, got %f", scores["b"])
	}
}

func TestBM25ScoreEmptyQueryIsZero(t *testing.T) {
	idx := NewBM25Index(map[string]string{"a": "some content"})
	scores := idx.Score("")
	if scores["a"] != 0 {
		t.Errorf("expected empty query to score 0, got %f", scores["a"])
	}
}

func TestBM25ScoreUnknownTermIsZero(t *testing.T) {
	idx := NewBM25Index(map[string]string{"a": "apples and oranges"})
	scores := idx.Score("bananas")
	if scores["a"] != 0 {
		t.Errorf("expected a query term absent from the corpus to contribute 0, got %f", scores["a"])
	}
}

func TestTokenizeLowercasesAndSplitsOnNonAlnum(t *testing.T) {
	got := tokenize("Retry-Budget: 3 Attempts!")
	want := []string{"retry", "budget", "3", "attempts"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
