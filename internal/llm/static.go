package llm

import "context"

// StaticProvider answers every request with the same text. It stands in for
// a hosted model in offline mode.
type StaticProvider struct {
	Text string
}

func (StaticProvider) Name() string { return "static" }

func (p StaticProvider) Complete(_ context.Context, _ CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Content: p.Text, Model: "static", FinishReason: "stop"}, nil
}
