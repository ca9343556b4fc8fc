// Package clock implements the project-scoped logical clock of §4.2: a
// monotonic tick counter that the agent cycle driver advances once per
// cycle, with helpers to decide whether a periodic job (decay,
// consolidation) is due.
package clock

import (
	"context"

	"github.com/visioneer/core/internal/chunkmodel"
)

// Store is the subset of store.Store the clock depends on. Declared
// narrowly here so tests can fake it without pulling in SQLite.
type Store interface {
	GetClockState(ctx context.Context, projectID string) (*chunkmodel.ClockState, error)
	IncrementTick(ctx context.Context, projectID string) (chunkmodel.Tick, error)
	MarkDecayRan(ctx context.Context, projectID string, tick chunkmodel.Tick) error
	MarkConsolidationRan(ctx context.Context, projectID string, tick chunkmodel.Tick) error
}

// Clock drives the logical tick for one project.
type Clock struct {
	store     Store
	projectID string
}

// New returns a Clock bound to a single project.
func New(store Store, projectID string) *Clock {
	return &Clock{store: store, projectID: projectID}
}

// Current returns the project's current tick without mutating state.
func (c *Clock) Current(ctx context.Context) (chunkmodel.Tick, error) {
	cs, err := c.store.GetClockState(ctx, c.projectID)
	if err != nil {
		return 0, err
	}
	return cs.CurrentTick, nil
}

// Advance increments the tick by one, per the "increment" operation of
// §4.2 called once at the end of every agent cycle.
func (c *Clock) Advance(ctx context.Context) (chunkmodel.Tick, error) {
	return c.store.IncrementTick(ctx, c.projectID)
}

// ShouldRunDecay reports whether the decay pass is due: the number of
// ticks since last_decay_tick has reached the configured interval.
func (c *Clock) ShouldRunDecay(ctx context.Context, intervalTicks int) (bool, chunkmodel.Tick, error) {
	cs, err := c.store.GetClockState(ctx, c.projectID)
	if err != nil {
		return false, 0, err
	}
	due := cs.CurrentTick >= cs.LastDecayTick+chunkmodel.Tick(intervalTicks)
	return due, cs.CurrentTick, nil
}

// ShouldRunConsolidation reports whether the consolidation pass is due.
func (c *Clock) ShouldRunConsolidation(ctx context.Context, intervalTicks int) (bool, chunkmodel.Tick, error) {
	cs, err := c.store.GetClockState(ctx, c.projectID)
	if err != nil {
		return false, 0, err
	}
	due := cs.CurrentTick >= cs.LastConsolidationTick+chunkmodel.Tick(intervalTicks)
	return due, cs.CurrentTick, nil
}

// MarkDecayRan records the tick through which decay has been applied.
func (c *Clock) MarkDecayRan(ctx context.Context, tick chunkmodel.Tick) error {
	return c.store.MarkDecayRan(ctx, c.projectID, tick)
}

// MarkConsolidationRan records the tick through which consolidation has
// run.
func (c *Clock) MarkConsolidationRan(ctx context.Context, tick chunkmodel.Tick) error {
	return c.store.MarkConsolidationRan(ctx, c.projectID, tick)
}
