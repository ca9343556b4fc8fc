package executor

import "context"

// StubExecutor is a deterministic, in-process Executor for tests (§8's
// "cold start and single cycle" scenario runs a cycle against a stub
// executor rather than a live LLM). It returns a fixed Result regardless
// of input, or calls Respond for custom per-test behavior.
type StubExecutor struct {
	Respond func(req Request) (Result, error)
}

// Execute returns the configured response.
func (s *StubExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	if s.Respond != nil {
		return s.Respond(req)
	}
	return Result{Status: ResultComplete, OutcomeText: "stub executor default response"}, nil
}

// StubEmbeddingProvider is a deterministic, in-process EmbeddingProvider
// for tests: it derives a small non-zero vector from the input text's
// length and byte sum so that distinct inputs get distinct (if
// meaningless) embeddings, rather than degenerate all-zero vectors that
// would make cosine similarity undefined.
type StubEmbeddingProvider struct {
	Dims int
}

// Embed returns a deterministic pseudo-embedding for text.
func (s *StubEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := s.Dims
	if dims <= 0 {
		dims = 8
	}
	vec := make([]float32, dims)
	var sum float32
	for _, b := range []byte(text) {
		sum += float32(b)
	}
	for i := range vec {
		vec[i] = (sum + float32(i) + float32(len(text))) / float32(dims*256)
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (s *StubEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the configured (or default) vector width.
func (s *StubEmbeddingProvider) Dimensions() int {
	if s.Dims <= 0 {
		return 8
	}
	return s.Dims
}
