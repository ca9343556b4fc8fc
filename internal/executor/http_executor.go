package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPExecutor implements Executor by POSTing a Request to a sandboxed
// agent-runner service and decoding its Result, in the same
// HTTP-collaborator idiom as HTTPEmbeddingProvider. Visioneer treats
// whatever answers at endpoint as opaque: the core never inspects how
// the executor produced its output, only the shape of Result (§6).
type HTTPExecutor struct {
	endpoint string
	client   *http.Client
}

// NewHTTPExecutor builds an HTTPExecutor posting to endpoint (a
// sandboxed runner's /execute route) with the given per-call timeout.
func NewHTTPExecutor(endpoint string, timeout time.Duration) *HTTPExecutor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPExecutor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Execute sends req to the executor endpoint and decodes its Result.
// The context deadline governs the call; expiry returns a plain error
// which the agent cycle driver converts into a failed Result with
// failure_reason="timeout" (§5 Cancellation & timeouts).
func (e *HTTPExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal executor request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build executor request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("executor call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("executor returned %s: %s", resp.Status, string(respBody))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("failed to decode executor result: %w", err)
	}
	return result, nil
}
