package eventbus

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/visioneer/core/internal/chunkmodel"
)

func setupBus(t *testing.T) (*Bus, *EmbeddedServer) {
	t.Helper()

	srv, err := StartEmbedded(0)
	if err != nil {
		t.Fatalf("StartEmbedded failed: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	bus, err := Connect(srv.ClientURL(), "test-client", zap.NewNop())
	if err != nil {
		srv.Shutdown()
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(bus.Close)

	return bus, srv
}

func TestTickPublishSubscribeRoundTrip(t *testing.T) {
	bus, _ := setupBus(t)

	received := make(chan TickEvent, 1)
	sub, err := bus.SubscribeTicks("proj-1", func(ev TickEvent) { received <- ev })
	if err != nil {
		t.Fatalf("SubscribeTicks failed: %v", err)
	}
	defer sub.Unsubscribe()

	if err := bus.PublishTick("proj-1", chunkmodel.Tick(42)); err != nil {
		t.Fatalf("PublishTick failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Tick != 42 {
			t.Errorf("expected tick 42, got %d", ev.Tick)
		}
		if ev.ProjectID != "proj-1" {
			t.Errorf("expected project proj-1, got %s", ev.ProjectID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick event")
	}
}

func TestWarningPublishSubscribeRoundTrip(t *testing.T) {
	bus, _ := setupBus(t)

	received := make(chan WarningEvent, 1)
	sub, err := bus.SubscribeWarnings("proj-1", func(ev WarningEvent) { received <- ev })
	if err != nil {
		t.Fatalf("SubscribeWarnings failed: %v", err)
	}
	defer sub.Unsubscribe()

	if err := bus.PublishWarning("proj-1", "task-1", "off track"); err != nil {
		t.Fatalf("PublishWarning failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.TaskID != "task-1" || ev.Concern != "off track" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for warning event")
	}
}

func TestSubscriptionsAreProjectScoped(t *testing.T) {
	bus, _ := setupBus(t)

	received := make(chan TickEvent, 1)
	sub, err := bus.SubscribeTicks("proj-a", func(ev TickEvent) { received <- ev })
	if err != nil {
		t.Fatalf("SubscribeTicks failed: %v", err)
	}
	defer sub.Unsubscribe()

	if err := bus.PublishTick("proj-b", chunkmodel.Tick(1)); err != nil {
		t.Fatalf("PublishTick failed: %v", err)
	}

	select {
	case ev := <-received:
		t.Fatalf("expected no event for a different project's subscription, got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestIsConnectedAfterConnect(t *testing.T) {
	bus, _ := setupBus(t)
	if !bus.IsConnected() {
		t.Fatal("expected a freshly connected bus to report connected")
	}
}
