// Package orientation implements the Orientation Manager of §4.6: it
// keeps one up-to-date compressed project-state document and decides
// when to rewrite it.
package orientation

import (
	"context"
	"fmt"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/memory"
)

// Store is the subset of store.Store the Orientation Manager depends on.
type Store interface {
	GetOrientation(ctx context.Context, projectID string) (*chunkmodel.Orientation, error)
	PutOrientation(ctx context.Context, o *chunkmodel.Orientation) error
	CountActivitiesSince(ctx context.Context, projectID string, sinceTick chunkmodel.Tick) (int, error)
}

// TriggerConfig bundles the precautionary-trigger thresholds from
// config.OrientationConfig.
type TriggerConfig struct {
	ActivityTriggerCount int
	MaxTokens            int
	MaxAge               time.Duration
}

// TriggerInputs carries the event-driven trigger facts the agent cycle
// driver observes over the course of a cycle; ShouldRewrite ORs them
// together with the precautionary checks (§4.6: "any one suffices").
type TriggerInputs struct {
	CompletedTaskSkillArea string // non-empty when a task just completed and matches a skill node
	PhaseTransitioned      bool
	QuestionsAnsweredSinceRewrite int
	VerifiedInsightSkillArea     string // non-empty when a verified insight touching a skill area was just stored
	LastRewriteTick              chunkmodel.Tick
	CurrentTick                  chunkmodel.Tick
	LastRewriteAt                time.Time
	Now                          time.Time
	SerializedTokenEstimate       int
}

// Manager implements the rewrite-trigger and rewrite-procedure logic of
// §4.6, on top of a narrow Store and the Memory Engine (rewrites archive
// the outgoing orientation as a decision chunk).
type Manager struct {
	store  Store
	memory *memory.Engine
	cfg    TriggerConfig
}

// NewManager builds an Orientation Manager.
func NewManager(s Store, mem *memory.Engine, cfg TriggerConfig) *Manager {
	return &Manager{store: s, memory: mem, cfg: cfg}
}

// ShouldRewrite implements §4.6's trigger list.
func (m *Manager) ShouldRewrite(ctx context.Context, projectID string, in TriggerInputs, skillMap []chunkmodel.SkillNode) (bool, string, error) {
	if in.CompletedTaskSkillArea != "" && hasTopLevelSkill(skillMap, in.CompletedTaskSkillArea) {
		return true, "completed task matches a top-level skill node", nil
	}
	if in.PhaseTransitioned {
		return true, "explicit phase transition", nil
	}
	if in.QuestionsAnsweredSinceRewrite >= 3 {
		return true, "three or more questions answered since last rewrite", nil
	}
	if in.VerifiedInsightSkillArea != "" {
		return true, "verified insight touching a skill area stored", nil
	}

	if m.cfg.MaxTokens > 0 && in.SerializedTokenEstimate > m.cfg.MaxTokens {
		return true, "orientation exceeds configured token budget", nil
	}

	activityCount, err := m.store.CountActivitiesSince(ctx, projectID, in.LastRewriteTick)
	if err != nil {
		return false, "", fmt.Errorf("failed to count activities since last rewrite: %w", err)
	}
	threshold := m.cfg.ActivityTriggerCount
	if threshold <= 0 {
		threshold = 50
	}
	if activityCount >= threshold {
		return true, "activity count since last rewrite exceeds threshold", nil
	}

	if m.cfg.MaxAge > 0 && activityCount > 0 && in.Now.Sub(in.LastRewriteAt) > m.cfg.MaxAge {
		return true, "wall-clock age exceeds configured hours with activity in the interval", nil
	}

	return false, "", nil
}

func hasTopLevelSkill(skillMap []chunkmodel.SkillNode, skillArea string) bool {
	for _, n := range skillMap {
		if n.Parent == "" && n.Skill == skillArea {
			return true
		}
	}
	return false
}

// RewriteInput is the caller-computed next state of each orientation
// field, assembled by the agent cycle driver from completed tasks,
// verified insights, and phase decisions.
type RewriteInput struct {
	ProjectID        string
	VisionSummary    string
	SuccessCriteria  []string
	Constraints      []string
	SkillMap         []chunkmodel.SkillNode
	CurrentPhase     chunkmodel.Phase
	NewKeyDecisions  []chunkmodel.Decision
	ActivePriorities []string
	ProgressSnapshot []chunkmodel.ProgressSnapshot
	CurrentTick      chunkmodel.Tick
}

// Rewrite implements §4.6's atomic rewrite procedure: archive the
// current orientation as a decision chunk, then persist the updated
// document with version+1.
func (m *Manager) Rewrite(ctx context.Context, in RewriteInput) (*chunkmodel.Orientation, error) {
	current, err := m.store.GetOrientation(ctx, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current orientation: %w", err)
	}

	if m.memory != nil {
		if _, err := m.memory.WriteChunk(ctx, memory.WriteChunkInput{
			ProjectID:  in.ProjectID,
			Content:    summarizeOrientation(current),
			Type:       chunkmodel.ChunkDecision,
			Tags:       []string{"orientation_archive", fmt.Sprintf("v%d", current.Version)},
			Confidence: chunkmodel.ConfidenceVerified,
			Source:     chunkmodel.SourceDeduction,
			LearningContext: chunkmodel.LearningContext{
				Tick:  in.CurrentTick,
				Phase: string(current.CurrentPhase),
			},
			CurrentTick: in.CurrentTick,
		}); err != nil {
			return nil, fmt.Errorf("failed to archive outgoing orientation: %w", err)
		}
	}

	decisions := mergeKeyDecisions(current.KeyDecisions, in.NewKeyDecisions)
	priorities := in.ActivePriorities
	if len(priorities) > chunkmodel.MaxActivePriorities {
		priorities = priorities[:chunkmodel.MaxActivePriorities]
	}

	next := &chunkmodel.Orientation{
		ProjectID:        in.ProjectID,
		VisionSummary:    firstNonEmpty(in.VisionSummary, current.VisionSummary),
		SuccessCriteria:  firstNonEmptySlice(in.SuccessCriteria, current.SuccessCriteria),
		Constraints:      firstNonEmptySlice(in.Constraints, current.Constraints),
		SkillMap:         in.SkillMap,
		CurrentPhase:     in.CurrentPhase,
		KeyDecisions:     decisions,
		ActivePriorities: priorities,
		ProgressSnapshot: in.ProgressSnapshot,
		LastRewritten:    time.Now().UTC(),
		Version:          current.Version + 1,
	}

	if err := m.store.PutOrientation(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist rewritten orientation: %w", err)
	}
	return next, nil
}

// mergeKeyDecisions appends fresh decisions and compresses to the most
// recent MaxKeyDecisions entries (§4.6: "keep <=7").
func mergeKeyDecisions(existing, fresh []chunkmodel.Decision) []chunkmodel.Decision {
	merged := append(append([]chunkmodel.Decision{}, existing...), fresh...)
	if len(merged) <= chunkmodel.MaxKeyDecisions {
		return merged
	}
	return merged[len(merged)-chunkmodel.MaxKeyDecisions:]
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonEmptySlice(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func summarizeOrientation(o *chunkmodel.Orientation) string {
	return fmt.Sprintf("orientation v%d archived: phase=%s, vision=%q", o.Version, o.CurrentPhase, o.VisionSummary)
}
