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

// HTTPEmbeddingProvider implements EmbeddingProvider against an
// OpenAI-compatible /embeddings endpoint, adapted directly from the
// teacher's LMStudioEmbedding (internal/memory/embedding_lmstudio.go):
// same request/response shapes, same lazily-learned dimensions, but
// threaded through context.Context per the core's convention that every
// blocking call takes one.
type HTTPEmbeddingProvider struct {
	baseURL    string
	model      string
	client     *http.Client
	dimensions int
}

// NewHTTPEmbeddingProvider builds a provider against baseURL (e.g. a
// local LM Studio or Ollama-compatible server).
func NewHTTPEmbeddingProvider(baseURL, model string, configuredDimensions int) *HTTPEmbeddingProvider {
	return &HTTPEmbeddingProvider{
		baseURL:    baseURL,
		model:      model,
		client:     &http.Client{Timeout: 30 * time.Second},
		dimensions: configuredDimensions,
	}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed computes a single embedding vector for text.
func (p *HTTPEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{Input: text, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API error: %s - %s", resp.Status, string(body))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("embedding API returned no data")
	}

	embedding := embResp.Data[0].Embedding
	p.dimensions = len(embedding)
	return embedding, nil
}

// EmbedBatch embeds each text in sequence, matching the teacher's
// sequential-loop batching (the upstream API has no native batch
// endpoint).
func (p *HTTPEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := p.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = emb
	}
	return results, nil
}

// Dimensions returns the last-observed embedding width.
func (p *HTTPEmbeddingProvider) Dimensions() int {
	return p.dimensions
}
