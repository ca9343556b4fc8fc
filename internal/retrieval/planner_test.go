package retrieval

import "testing"

func TestClassifyQueryRoutesByHintPrecedence(t *testing.T) {
	cases := []struct {
		query string
		want  Plan
	}{
		{"what's blocked right now?", PlanOperational},
		{"which tasks are ready?", PlanOperational},
		{"what did we decide about auth?", PlanLookup},
		{"what contradicts the retry policy?", PlanConnection},
		{"what builds on the caching decision?", PlanConnection},
		{"what do we know about the billing system?", PlanExploration},
		{"tell me everything relevant", PlanHybrid},
	}
	for _, tc := range cases {
		if got := ClassifyQuery(tc.query); got != tc.want {
			t.Errorf("ClassifyQuery(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestClassifyQueryIsCaseInsensitive(t *testing.T) {
	if got := ClassifyQuery("WHAT'S BLOCKED"); got != PlanOperational {
		t.Errorf("expected case-insensitive match, got %s", got)
	}
}
