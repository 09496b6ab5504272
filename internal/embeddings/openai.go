package embeddings

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "text-embedding-3-small"

// openAIBatch is the most inputs sent in one embeddings request.
const openAIBatch = 100

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
	// sendDims asks the endpoint to shorten vectors to dims. Only the
	// text-embedding-3 family honours it.
	sendDims bool
}

// NewOpenAIEmbedder creates an embedder. An empty baseURL means the OpenAI
// API. dims <= 0 keeps the model's native size.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dims int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	e := &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: model, dims: dims}
	switch {
	case dims <= 0:
		e.dims = nativeOpenAIDims(model)
	case strings.HasPrefix(model, "text-embedding-3"):
		e.sendDims = true
	}
	return e
}

func nativeOpenAIDims(model string) int {
	if model == "text-embedding-3-large" {
		return 3072
	}
	return 1536
}

func (e *OpenAIEmbedder) Name() string    { return e.model }
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// Embed returns one vector per text. A vector of another length than
// Dimensions is an error, so a mismatched index is never written.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openAIBatch {
		batch := texts[start:min(start+openAIBatch, len(texts))]
		req := openai.EmbeddingRequest{Input: batch, Model: openai.EmbeddingModel(e.model)}
		if e.sendDims {
			req.Dimensions = e.dims
		}
		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			if len(d.Embedding) != e.dims {
				return nil, fmt.Errorf("openai embeddings: vector has %d dimensions, want %d", len(d.Embedding), e.dims)
			}
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}
