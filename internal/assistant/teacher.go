package assistant

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/hardcases"
	"github.com/NesmitC/project-webmath/internal/knowledge"
	"github.com/NesmitC/project-webmath/internal/llm"
)

// Sampling for answers grounded in retrieved context, used when Teacher or
// Methodist leave Temperature and MaxTokens zero.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 200

	fallbackTemperature = 0.2
	fallbackMaxTokens   = 500
)

// ContextRetriever returns the retrieved context for a question.
type ContextRetriever interface {
	Context(ctx context.Context, question string) (string, error)
}

// Teacher answers subject questions about the Russian language.
type Teacher struct {
	LLM         llm.Provider
	Model       string
	Cases       *hardcases.Dictionary
	Retriever   ContextRetriever
	// Paragraphs feeds the keyword fallback. May be nil.
	Paragraphs  func() []string
	// Temperature and MaxTokens apply to the context-grounded call.
	Temperature float64
	MaxTokens   int
	Log         *zap.Logger
}

// Ask answers from the hard-case dictionary, then from retrieved context,
// then from a keyword match, and finally asks the model without context.
func (t *Teacher) Ask(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return EmptyQuestionAnswer
	}
	log := t.logger()

	if t.Cases != nil {
		if c, ok := t.Cases.Match(question); ok {
			log.Debug("hard case hit", zap.String("trigger", c.Trigger))
			return c.Answer()
		}
	}

	var rctx string
	if t.Retriever != nil {
		var err error
		rctx, err = t.Retriever.Context(ctx, question)
		if err != nil {
			log.Warn("teacher retrieval", zap.Error(err))
		}
	}
	if strings.TrimSpace(rctx) != "" {
		temp, maxTokens := sampling(t.Temperature, t.MaxTokens)
		return t.complete(ctx, temp, maxTokens,
			llm.Message{Role: llm.RoleUser, Content: teacherPrompt(rctx, question)})
	}

	if t.Paragraphs != nil {
		if p := knowledge.KeywordSearch(t.Paragraphs(), question); p != "" {
			log.Debug("keyword fallback hit")
			return p
		}
	}

	return t.complete(ctx, fallbackTemperature, fallbackMaxTokens,
		llm.Message{Role: llm.RoleSystem, Content: noContextSystem},
		llm.Message{Role: llm.RoleUser, Content: question})
}

func (t *Teacher) complete(ctx context.Context, temp float64, maxTokens int, msgs ...llm.Message) string {
	return complete(ctx, t.LLM, t.Model, temp, maxTokens, t.logger(), msgs...)
}

func (t *Teacher) logger() *zap.Logger {
	if t.Log == nil {
		return zap.NewNop()
	}
	return t.Log
}

func sampling(temp float64, maxTokens int) (float64, int) {
	if temp <= 0 {
		temp = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return temp, maxTokens
}

func complete(ctx context.Context, p llm.Provider, model string, temp float64, maxTokens int, log *zap.Logger, msgs ...llm.Message) string {
	if p == nil {
		return ModelFailureAnswer
	}
	resp, err := p.Complete(ctx, llm.CompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temp,
	})
	if err != nil {
		log.Error("model completion", zap.String("provider", p.Name()), zap.Error(err))
		return ModelFailureAnswer
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return ModelFailureAnswer
	}
	return text
}
