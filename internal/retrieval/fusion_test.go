package retrieval

import "testing"

func TestFuseRRFCombinesWeightedSources(t *testing.T) {
	scores := FuseRRF(60, []string{"a", "b"}, []string{"b", "a"}, nil)

	if len(scores) != 2 {
		t.Fatalf("expected 2 scored chunks, got %d", len(scores))
	}

	wantA := rrfWeightSemantic*1.0/61 + rrfWeightKeyword*1.0/62
	wantB := rrfWeightSemantic*1.0/62 + rrfWeightKeyword*1.0/61

	if diff := scores["a"] - wantA; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("a: got %f, want %f", scores["a"], wantA)
	}
	if diff := scores["b"] - wantB; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("b: got %f, want %f", scores["b"], wantB)
	}
}

func TestFuseRRFChunkAbsentFromSourceContributesZero(t *testing.T) {
	scores := FuseRRF(60, []string{"a"}, nil, nil)
	want := rrfWeightSemantic * 1.0 / 61
	if diff := scores["a"] - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("got %f, want %f", scores["a"], want)
	}
}

func TestRankByScoreDescSortsDescending(t *testing.T) {
	ids := rankByScoreDesc(map[string]float64{"a": 0.1, "b": 0.9, "c": 0.5})
	want := []string{"b", "c", "a"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}
