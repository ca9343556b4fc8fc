package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/visioneer/core/internal/agent"
	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/clock"
	"github.com/visioneer/core/internal/config"
	"github.com/visioneer/core/internal/eventbus"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/memory"
	"github.com/visioneer/core/internal/orientation"
	"github.com/visioneer/core/internal/retrieval"
	"github.com/visioneer/core/internal/store"
)

// runtime bundles one project's fully wired dependency graph. Every
// subcommand that touches a project builds one via openRuntime and
// closes it with runtime.Close when done.
type runtime struct {
	cfg       *config.Config
	store     *store.Store
	clock     *clock.Clock
	memory    *memory.Engine
	embedding executor.EmbeddingProvider
	retrieval *retrieval.Retriever
	orient    *orientation.Manager
	exec      executor.Executor
	server    *eventbus.EmbeddedServer
	bus       *eventbus.Bus
	driver    *agent.Driver
	projectID string
}

// openRuntime loads configuration, opens the project's store (creating
// the project on first use), and wires every collaborator the agent
// cycle driver depends on. withBus also boots the embedded event bus
// server, needed by "run" and "dashboard" but not by read-only
// inspection commands.
func openRuntime(withBus bool) (*runtime, error) {
	cfg := config.DefaultConfig()
	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagTimeout > 0 {
		cfg.Agent.ExecutorTimeoutSec = int(flagTimeout.Seconds())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, flagProject+".db")
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open project store: %w", err)
	}

	projectID, err := ensureProject(s, flagProject)
	if err != nil {
		s.Close()
		return nil, err
	}

	clk := clock.New(s, projectID)
	embedding := executor.NewHTTPEmbeddingProvider(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	mem := memory.NewEngine(s, embedding)

	retOpts := retrieval.Options{
		CandidatePoolSize: cfg.Retrieval.CandidatePoolSize,
		ResultLimit:       cfg.Retrieval.ResultLimit,
		RRFK:              cfg.Retrieval.RRFK,
		MinSimilarity:     cfg.Knowledge.MinSimilarityThreshold,
	}
	retOpts.ConfidenceWeights.Verified = cfg.Retrieval.ConfidenceWeights.Verified
	retOpts.ConfidenceWeights.Inferred = cfg.Retrieval.ConfidenceWeights.Inferred
	retOpts.ConfidenceWeights.Speculative = cfg.Retrieval.ConfidenceWeights.Speculative
	ret := retrieval.NewRetriever(s, mem, embedding, retOpts)

	orient := orientation.NewManager(s, mem, orientation.TriggerConfig{
		ActivityTriggerCount: cfg.Orientation.ActivityTriggerCount,
		MaxTokens:            cfg.Orientation.MaxTokens,
		MaxAge:               time.Duration(cfg.Orientation.MaxAgeHours) * time.Hour,
	})

	exec := executor.NewHTTPExecutor(cfg.Agent.ExecutorEndpoint, time.Duration(cfg.Agent.ExecutorTimeoutSec)*time.Second)

	r := &runtime{
		cfg:       cfg,
		store:     s,
		clock:     clk,
		memory:    mem,
		embedding: embedding,
		retrieval: ret,
		orient:    orient,
		exec:      exec,
		projectID: projectID,
	}

	var bus *eventbus.Bus
	if withBus {
		srv, err := eventbus.StartEmbedded(r.cfg.Server.EventBusPort)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to start embedded event bus: %w", err)
		}
		r.server = srv

		bus, err = eventbus.Connect(srv.ClientURL(), "visioneer-cli-"+flagProject, logger)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to connect to event bus: %w", err)
		}
		r.bus = bus
	}

	r.driver = agent.NewDriver(storeAdapter{s}, clk, mem, retrieverAdapter{ret}, orient, exec, bus, logger, agent.Config{
		ProjectID:                  projectID,
		MaxTasksPerSession:         cfg.Agent.MaxTasksPerSession,
		PivotKeywords:              cfg.Agent.PivotKeywords,
		PivotSimilarityThreshold:   cfg.Agent.PivotSimilarityThreshold,
		DecayIntervalTicks:         cfg.Memory.DecayIntervalTicks,
		ConsolidationIntervalTicks: cfg.Memory.ConsolidationIntervalTicks,
		Consolidation: memory.ConsolidationConfig{
			SummariseAgeTicks:       chunkmodel.Tick(cfg.Memory.SummariseAgeTicks),
			TombstoneRetentionTicks: chunkmodel.Tick(cfg.Memory.TombstoneRetentionTicks),
			CoretrievalThreshold:    cfg.Knowledge.CoretrievalThreshold,
			CoretrievalRetention:    time.Duration(cfg.Memory.CoretrievalRetentionDays) * 24 * time.Hour,
		},
	})

	return r, nil
}

// storeAdapter narrows *store.Store to agent.Store. Every method but
// ListTasks passes straight through; ListTasks alone needs a shim since
// agent.TaskFilter is its own mirror type (declared so internal/agent
// doesn't force every caller through internal/store directly) rather
// than a store.TaskFilter alias.
type storeAdapter struct {
	*store.Store
}

func (a storeAdapter) ListTasks(ctx context.Context, filter agent.TaskFilter) ([]*chunkmodel.Task, error) {
	return a.Store.ListTasks(ctx, store.TaskFilter{
		ProjectID: filter.ProjectID,
		Status:    filter.Status,
		SkillArea: filter.SkillArea,
	})
}

// retrieverAdapter narrows *retrieval.Retriever to agent.Retriever so
// the driver's constructor doesn't force every caller through
// retrieval.RetrievalContext directly.
type retrieverAdapter struct {
	r *retrieval.Retriever
}

func (a retrieverAdapter) Retrieve(ctx context.Context, projectID string, rc agent.RetrievalContext) ([]executor.ScoredChunk, error) {
	return a.r.Retrieve(ctx, projectID, retrieval.RetrievalContext{
		Tick:      rc.Tick,
		TaskID:    rc.TaskID,
		GoalID:    rc.GoalID,
		Phase:     rc.Phase,
		SkillArea: rc.SkillArea,
		Query:     rc.Query,
		SessionID: rc.SessionID,
	})
}

// ensureProject finds a project by name or creates it, returning its id.
func ensureProject(s *store.Store, name string) (string, error) {
	ctx := context.Background()
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list projects: %w", err)
	}
	for _, p := range projects {
		if p.Name == name {
			return p.ID, nil
		}
	}
	p, err := s.CreateProject(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to create project %q: %w", name, err)
	}
	return p.ID, nil
}

// Close releases every resource the runtime opened, bus first so no
// late publish races the server shutdown.
func (r *runtime) Close() {
	if r.bus != nil {
		r.bus.Close()
	}
	if r.server != nil {
		r.server.Shutdown()
	}
	if r.store != nil {
		r.store.Close()
	}
}
