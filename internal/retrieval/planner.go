package retrieval

import "strings"

// operationalHints, lookupHints, and connectionHints are the pattern
// phrases §4.4's table routes on. Checked in this order: operational,
// lookup, connection, exploration, else hybrid.
var (
	operationalHints = []string{"what's blocked", "whats blocked", "open question", "ready task", "tasks are ready"}
	lookupHints      = []string{"what did we decide", "what was decided"}
	connectionHints  = []string{"contradicts", "builds on", "related to", "what contradicts", "relates to"}
	explorationHints = []string{"what do i know about", "what do we know about"}
)

// ClassifyQuery implements §4.4's Query planning table.
func ClassifyQuery(query string) Plan {
	lower := strings.ToLower(query)

	if containsAny(lower, operationalHints) {
		return PlanOperational
	}
	if containsAny(lower, lookupHints) {
		return PlanLookup
	}
	if containsAny(lower, connectionHints) {
		return PlanConnection
	}
	if containsAny(lower, explorationHints) {
		return PlanExploration
	}
	return PlanHybrid
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
