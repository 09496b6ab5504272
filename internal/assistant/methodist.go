package assistant

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/knowledge"
	"github.com/NesmitC/project-webmath/internal/llm"
)

// TriggerWords mark a question as procedural (schedules, documents,
// admission) rather than subject matter.
var TriggerWords = []string{
	"экзамен", "огэ", "егэ", "расписание", "допуск", "документ", "фгос", "кодификатор",
	"программа", "аттестация", "заявление", "сроки", "дата", "регламент", "проходной",
	"форма", "бланк", "инструкция", "правила поведения", "проверяющий",
}

// Methodist answers questions about exam procedure from the methodist corpus.
type Methodist struct {
	LLM         llm.Provider
	Model       string
	Index       knowledge.Searcher
	K           int
	// Temperature and MaxTokens fall back to the Default values when zero.
	Temperature float64
	MaxTokens   int
	Log         *zap.Logger
}

// Handles reports whether the question is for the methodist.
func Handles(question string) bool {
	q := strings.ToLower(question)
	for _, w := range TriggerWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// Ask returns false when the question is not procedural and should go to the
// teacher.
func (m *Methodist) Ask(ctx context.Context, question string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" || !Handles(q) {
		return "", false
	}
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	if m.Index == nil {
		return NoDocumentsAnswer, true
	}

	k := m.K
	if k <= 0 {
		k = 2
	}
	hits, err := m.Index.Search(ctx, q, k)
	if err != nil {
		log.Error("methodist retrieval", zap.Error(err))
		return "Ошибка методиста: " + err.Error(), true
	}
	if len(hits) == 0 {
		return NoDocumentsAnswer, true
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Content
	}
	temp, maxTokens := sampling(m.Temperature, m.MaxTokens)
	return complete(ctx, m.LLM, m.Model, temp, maxTokens, log,
		llm.Message{Role: llm.RoleUser, Content: methodistPrompt(strings.Join(parts, "\n\n"), q)}), true
}
