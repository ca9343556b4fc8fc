// Package chunkmodel defines the entities of the Visioneer data model
// (§3 of the design): projects, orientation, goals, tasks, questions,
// activities, chunks, relationships, and the bookkeeping tables that
// back decay, consolidation, and the relationship graph.
package chunkmodel

import "time"

// Tick is a per-project monotonic logical clock value.
type Tick uint64

// ChunkType is the header discriminator for a knowledge chunk's content.
type ChunkType string

const (
	ChunkResearch   ChunkType = "research"
	ChunkInsight    ChunkType = "insight"
	ChunkDecision   ChunkType = "decision"
	ChunkResource   ChunkType = "resource"
	ChunkAttempt    ChunkType = "attempt"
	ChunkUserInput  ChunkType = "user_input"
	ChunkProcedure  ChunkType = "procedure"
	ChunkQuestion   ChunkType = "question"
)

// Confidence is the epistemic status attached to a chunk.
type Confidence string

const (
	ConfidenceVerified    Confidence = "verified"
	ConfidenceInferred    Confidence = "inferred"
	ConfidenceSpeculative Confidence = "speculative"
)

// Source is the provenance of a chunk's content.
type Source string

const (
	SourceResearch   Source = "research"
	SourceUser       Source = "user"
	SourceDeduction  Source = "deduction"
	SourceExperiment Source = "experiment"
)

// DecayFunction selects the strength-decay law applied to a chunk.
type DecayFunction string

const (
	DecayNone       DecayFunction = "none"
	DecayExponential DecayFunction = "exponential"
	DecayLinear     DecayFunction = "linear"
	DecayPowerLaw   DecayFunction = "power_law"
)

// ChunkStatus is the one-way-demoting status ladder of §3/§4.3.
type ChunkStatus string

const (
	StatusActive    ChunkStatus = "active"
	StatusWarm      ChunkStatus = "warm"
	StatusCool      ChunkStatus = "cool"
	StatusCold      ChunkStatus = "cold"
	StatusArchived  ChunkStatus = "archived"
	StatusTombstone ChunkStatus = "tombstone"
)

// LearningContext is captured at chunk-write time and later compared
// against a RetrievalContext for context-aware boosting (§4.4).
type LearningContext struct {
	Tick          Tick     `json:"tick"`
	TaskID        string   `json:"task_id,omitempty"`
	GoalID        string   `json:"goal_id,omitempty"`
	Phase         string   `json:"phase"`
	SkillArea     string   `json:"skill_area,omitempty"`
	QueryContext  string   `json:"query_context"`
	RelatedChunks []string `json:"related_chunks,omitempty"`
}

// Chunk is the central knowledge-unit entity of §3.
type Chunk struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Content string     `json:"content"`
	Type    ChunkType  `json:"type"`
	Tags    []string   `json:"tags,omitempty"`
	Confidence Confidence `json:"confidence"`
	Source  Source     `json:"source"`

	Embedding []float32 `json:"embedding,omitempty"`

	TickCreated     Tick `json:"tick_created"`
	TickLastAccessed Tick `json:"tick_last_accessed"`
	TickLastUseful  Tick `json:"tick_last_useful"`

	LearningContext LearningContext `json:"learning_context"`

	InitialStrength float64       `json:"initial_strength"`
	CurrentStrength float64       `json:"current_strength"`
	DecayFunction   DecayFunction `json:"decay_function"`
	DecayRate       float64       `json:"decay_rate"`

	AccessCount    int        `json:"access_count"`
	SuccessfulUses int        `json:"successful_uses"`
	LastAccessed   *time.Time `json:"last_accessed,omitempty"`
	LastUseful     *time.Time `json:"last_useful,omitempty"`

	Status         ChunkStatus `json:"status"`
	Pinned         bool        `json:"pinned"`
	SupersededBy   string      `json:"superseded_by,omitempty"`
	ContradictedBy string      `json:"contradicted_by,omitempty"`
	ValidUntilTick *Tick       `json:"valid_until_tick,omitempty"`

	PersistenceScore float64 `json:"persistence_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RelationshipType enumerates the typed edges of the relationship graph.
type RelationshipType string

const (
	RelSupports    RelationshipType = "supports"
	RelContradicts RelationshipType = "contradicts"
	RelBuildsOn    RelationshipType = "builds_on"
	RelReplaces    RelationshipType = "replaces"
	RelRequires    RelationshipType = "requires"
	RelRelatedTo   RelationshipType = "related_to"
)

// RelationshipOrigin records whether an edge was created explicitly by
// the agent or inferred from co-retrieval patterns.
type RelationshipOrigin string

const (
	OriginExplicit RelationshipOrigin = "explicit"
	OriginImplicit RelationshipOrigin = "implicit"
)

// Relationship is a directed, weighted edge between two chunks.
type Relationship struct {
	ID              string             `json:"id"`
	ProjectID       string             `json:"project_id"`
	FromChunkID     string             `json:"from_chunk_id"`
	ToChunkID       string             `json:"to_chunk_id"`
	Type            RelationshipType   `json:"type"`
	Weight          float64            `json:"weight"`
	ActivationCount int                `json:"activation_count"`
	LastActivated   *time.Time         `json:"last_activated,omitempty"`
	ContextTags     []string           `json:"context_tags,omitempty"`
	Origin          RelationshipOrigin `json:"origin"`
	CreatedAt       time.Time          `json:"created_at"`
}

// RelationshipArchive is the terminal record for an edge whose weight
// decayed below the live-table threshold.
type RelationshipArchive struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	FromChunkID string           `json:"from_chunk_id"`
	ToChunkID   string           `json:"to_chunk_id"`
	Type        RelationshipType `json:"type"`
	FinalWeight float64          `json:"final_weight"`
	Reason      string           `json:"reason"`
	ArchivedAt  time.Time        `json:"archived_at"`
}

// CoRetrieval is a raw co-occurrence signal: two chunks returned
// together by one retrieval call, ordered (min, max) to avoid
// double-counting per §3.
type CoRetrieval struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	ChunkAID     string    `json:"chunk_a_id"`
	ChunkBID     string    `json:"chunk_b_id"`
	SessionID    string    `json:"session_id"`
	QueryContext string    `json:"query_context"`
	Timestamp    time.Time `json:"timestamp"`
}

// ChunkArchive is the summary record left behind when a chunk is
// removed from the live table (tombstoned past retention, or
// summarised during consolidation).
type ChunkArchive struct {
	ChunkID        string    `json:"chunk_id"`
	ProjectID      string    `json:"project_id"`
	ContentSummary string    `json:"content_summary"`
	ContentHash    string    `json:"content_hash"`
	TickArchived   Tick      `json:"tick_archived"`
	FinalStrength  float64   `json:"final_strength"`
	FinalContext   string    `json:"final_context"`
	ArchivedAt     time.Time `json:"archived_at"`
}

// SkillStatus is the status of a node in the orientation's skill map.
type SkillStatus string

const (
	SkillNotStarted SkillStatus = "not_started"
	SkillInProgress SkillStatus = "in_progress"
	SkillAchieved   SkillStatus = "achieved"
)

// SkillNode is one node of the orientation's skill-map tree.
type SkillNode struct {
	Skill        string      `json:"skill"`
	Parent       string      `json:"parent,omitempty"`
	Dependencies []string    `json:"dependencies,omitempty"`
	Status       SkillStatus `json:"status"`
	Notes        string      `json:"notes,omitempty"`
}

// Phase is the project's current lifecycle phase.
type Phase string

const (
	PhaseIntake     Phase = "intake"
	PhaseResearch   Phase = "research"
	PhasePlanning   Phase = "planning"
	PhaseExecution  Phase = "execution"
	PhaseRefinement Phase = "refinement"
	PhaseComplete   Phase = "complete"
)

// Decision is a compressed key decision recorded on an orientation.
type Decision struct {
	Summary   string    `json:"summary"`
	Tick      Tick      `json:"tick"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressSnapshot is a per-skill-area progress readout.
type ProgressSnapshot struct {
	SkillArea string  `json:"skill_area"`
	Progress  float64 `json:"progress"`
	Note      string  `json:"note,omitempty"`
}

// Orientation is the single compressed, versioned project-state document.
type Orientation struct {
	ProjectID         string             `json:"project_id"`
	VisionSummary     string             `json:"vision_summary"`
	SuccessCriteria   []string           `json:"success_criteria"`
	Constraints       []string           `json:"constraints"`
	SkillMap          []SkillNode        `json:"skill_map"`
	CurrentPhase      Phase              `json:"current_phase"`
	KeyDecisions      []Decision         `json:"key_decisions"`
	ActivePriorities  []string           `json:"active_priorities"`
	ProgressSnapshot  []ProgressSnapshot `json:"progress_snapshot"`
	LastRewritten     time.Time          `json:"last_rewritten"`
	Version           int                `json:"version"`
}

const (
	MaxKeyDecisions     = 7
	MaxActivePriorities = 5
)

// GoalStatus is the lifecycle status of a Goal.
type GoalStatus string

const (
	GoalActive     GoalStatus = "active"
	GoalSuperseded GoalStatus = "superseded"
	GoalCompleted  GoalStatus = "completed"
)

// Goal is a directive the project is currently or was previously
// working toward.
type Goal struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	GoalText     string     `json:"goal_text"`
	Status       GoalStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	SupersededAt *time.Time `json:"superseded_at,omitempty"`
}

// PendingGoal is a queued goal swap, activated at the next safe cycle
// boundary instead of mid-cycle.
type PendingGoal struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	GoalText  string    `json:"goal_text"`
	QueuedAt  time.Time `json:"queued_at"`
}

// TaskStatus is the lifecycle status of a Task.
type TaskStatus string

const (
	TaskReady      TaskStatus = "ready"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

// Task is a unit of work the agent cycle driver can execute.
type Task struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	SkillArea       string     `json:"skill_area"`
	Status          TaskStatus `json:"status"`
	DependsOn       []string   `json:"depends_on,omitempty"`
	BlockedBy       []string   `json:"blocked_by,omitempty"`
	Outcome         string     `json:"outcome,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	FailureContext  string     `json:"failure_context,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	FailedAt        *time.Time `json:"failed_at,omitempty"`
}

// QuestionStatus is the lifecycle status of a Question.
type QuestionStatus string

const (
	QuestionOpen     QuestionStatus = "open"
	QuestionAnswered QuestionStatus = "answered"
)

// Question is raised by the executor when a task is blocked pending
// human input.
type Question struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	Question    string         `json:"question"`
	Context     string         `json:"context"`
	Status      QuestionStatus `json:"status"`
	Answer      string         `json:"answer,omitempty"`
	BlocksTasks []string       `json:"blocks_tasks,omitempty"`
	AskedAt     time.Time      `json:"asked_at"`
	AnsweredAt  *time.Time     `json:"answered_at,omitempty"`
}

// Activity is an append-only, immutable log entry.
type Activity struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	Tick      Tick      `json:"tick"`
}

// CoherenceWarningStatus is the resolution status of a CoherenceWarning.
type CoherenceWarningStatus string

const (
	WarningPending   CoherenceWarningStatus = "pending"
	WarningExecuted  CoherenceWarningStatus = "executed"
	WarningDismissed CoherenceWarningStatus = "dismissed"
	WarningModified  CoherenceWarningStatus = "modified"
)

// CoherenceWarning is raised when the coherence gate predicts a task is
// off-track relative to the active goal.
type CoherenceWarning struct {
	ID         string                 `json:"id"`
	ProjectID  string                 `json:"project_id"`
	TaskID     string                 `json:"task_id"`
	Concern    string                 `json:"concern"`
	Suggestion string                 `json:"suggestion"`
	Status     CoherenceWarningStatus `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	ResolvedAt *time.Time             `json:"resolved_at,omitempty"`
}

// ClockState is the per-project logical-clock row of §4.2.
type ClockState struct {
	ProjectID             string `json:"project_id"`
	CurrentTick           Tick   `json:"current_tick"`
	LastDecayTick         Tick   `json:"last_decay_tick"`
	LastConsolidationTick Tick   `json:"last_consolidation_tick"`
}

// Project is the root container entity.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
