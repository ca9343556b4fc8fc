package clock

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/visioneer/core/internal/store"
)

func setupClock(t *testing.T) (*Clock, *store.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p, err := s.CreateProject(context.Background(), "clock-test")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	return New(s, p.ID), s, p.ID
}

func TestAdvanceIsMonotonic(t *testing.T) {
	c, _, _ := setupClock(t)
	ctx := context.Background()

	start, err := c.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if start != 0 {
		t.Fatalf("expected new project to start at tick 0, got %d", start)
	}

	for i := 0; i < 5; i++ {
		if _, err := c.Advance(ctx); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	end, err := c.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if end != 5 {
		t.Fatalf("expected tick 5 after 5 advances, got %d", end)
	}
}

func TestShouldRunDecayRespectsInterval(t *testing.T) {
	c, _, _ := setupClock(t)
	ctx := context.Background()

	due, _, err := c.ShouldRunDecay(ctx, 3)
	if err != nil {
		t.Fatalf("ShouldRunDecay failed: %v", err)
	}
	if due {
		t.Fatal("expected decay not yet due at tick 0 with last_decay_tick 0 and interval 3")
	}

	if err := c.MarkDecayRan(ctx, 0); err != nil {
		t.Fatalf("MarkDecayRan failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		c.Advance(ctx)
	}
	due, _, err = c.ShouldRunDecay(ctx, 3)
	if err != nil {
		t.Fatalf("ShouldRunDecay failed: %v", err)
	}
	if due {
		t.Fatal("expected decay not yet due after only 2 of 3 ticks elapsed")
	}

	c.Advance(ctx)
	due, tick, err := c.ShouldRunDecay(ctx, 3)
	if err != nil {
		t.Fatalf("ShouldRunDecay failed: %v", err)
	}
	if !due {
		t.Fatal("expected decay due after 3 ticks elapsed")
	}
	if tick != 3 {
		t.Errorf("expected current tick 3, got %d", tick)
	}
}
