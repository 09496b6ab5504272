// Package llm talks to the chat model behind the assistant.
package llm

import "context"

// Provider completes a chat conversation.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is one model call. An empty Model means the provider's
// configured model; zero MaxTokens leaves the limit to the endpoint.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type CompletionResponse struct {
	Content string
	Model   string
	// Token usage as reported by the endpoint, zero when it reports none.
	InputTokens  int
	OutputTokens int
	FinishReason string
}
