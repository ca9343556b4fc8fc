// Package eventbus provides Visioneer's in-process event bus: an
// embedded NATS server plus a typed publish/subscribe wrapper the agent
// cycle driver uses to announce ticks, task transitions, coherence
// warnings, and goal changes to the live dashboard.
//
// The teacher (ODSapper-CLIAIRMONITOR) uses the same embedded-server +
// nats.go client pair for distributed multi-agent orchestration across
// OS processes. Visioneer's spec rules out distributed operation, so
// this package keeps the teacher's wire client and embedding pattern
// but narrows its job to single-process fan-out: one writer (the cycle
// driver), any number of local subscribers (the dashboard, and future
// tooling such as a `status --watch`).
package eventbus

import (
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer wraps a NATS server instance bound to localhost.
type EmbeddedServer struct {
	srv *natsserver.Server
}

// StartEmbedded boots an embedded NATS server on the given port (0 lets
// the OS assign an ephemeral port) and blocks until it is ready for
// connections, mirroring the teacher's main.go startup sequence.
func StartEmbedded(port int) (*EmbeddedServer, error) {
	opts := &natsserver.Options{
		Host:     "127.0.0.1",
		Port:     port,
		HTTPPort: -1,
		NoLog:    true,
		NoSigs:   true,
	}

	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded event bus server: %w", err)
	}

	go srv.Start()

	if !srv.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("embedded event bus server did not become ready in time")
	}

	return &EmbeddedServer{srv: srv}, nil
}

// ClientURL returns the connect URL for this embedded server.
func (e *EmbeddedServer) ClientURL() string {
	return e.srv.ClientURL()
}

// Shutdown stops the embedded server. Connected clients are closed by
// the caller first.
func (e *EmbeddedServer) Shutdown() {
	e.srv.Shutdown()
}
