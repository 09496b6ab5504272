package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/db/dbtest"
	"github.com/NesmitC/project-webmath/internal/embeddings"
	"github.com/NesmitC/project-webmath/internal/hardcases"
	"github.com/NesmitC/project-webmath/internal/knowledge"
	"github.com/NesmitC/project-webmath/internal/llm"
)

type fakeLLM struct {
	reply string
	err   error
	reqs  []llm.CompletionRequest
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: "  " + f.reply + "\n"}, nil
}

type staticRetriever string

func (s staticRetriever) Context(context.Context, string) (string, error) { return string(s), nil }

func newIndex(t *testing.T, name string, chunks ...string) *knowledge.Index {
	t.Helper()
	ix, err := knowledge.NewIndex(name, "", embeddings.NewLocalEmbedder(0))
	require.NoError(t, err)
	if len(chunks) > 0 {
		require.NoError(t, ix.Build(context.Background(), chunks, nil))
	}
	return ix
}

func TestTeacherHardCaseSkipsModel(t *testing.T) {
	model := &fakeLLM{reply: "не должно вызываться"}
	th := &Teacher{
		LLM:       model,
		Cases:     hardcases.New(hardcases.Case{Trigger: "ложить", Text: "Правильно: класть.", Rule: "Без приставки не употребляется."}),
		Retriever: staticRetriever("контекст"),
	}
	got := th.Ask(context.Background(), "Как правильно: ложить или класть?")
	assert.Equal(t, "Правильно: класть. Правило: Без приставки не употребляется.", got)
	assert.Empty(t, model.reqs)
}

func TestTeacherUsesRetrievedContext(t *testing.T) {
	model := &fakeLLM{reply: "Спряжение — изменение глагола по лицам и числам."}
	ix := newIndex(t, "teacher", "Спряжение — это изменение глаголов по лицам и числам.")
	th := &Teacher{LLM: model, Model: "deepseek-chat", Retriever: knowledge.NewRetriever(ix, 1)}

	got := th.Ask(context.Background(), "  Что такое спряжение?  ")
	assert.Equal(t, "Спряжение — изменение глагола по лицам и числам.", got)
	require.Len(t, model.reqs, 1)
	req := model.reqs[0]
	assert.Equal(t, "deepseek-chat", req.Model)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, 200, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Контекст:\nСпряжение — это изменение")
	assert.Contains(t, req.Messages[0].Content, "Вопрос: Что такое спряжение?")
}

func TestTeacherTruncatesContext(t *testing.T) {
	model := &fakeLLM{reply: "ok"}
	th := &Teacher{LLM: model, Retriever: staticRetriever(strings.Repeat("я", 1500))}
	th.Ask(context.Background(), "вопрос")
	require.Len(t, model.reqs, 1)
	prompt := model.reqs[0].Messages[0].Content
	_, rest, ok := strings.Cut(prompt, "Контекст:\n")
	require.True(t, ok)
	ctxText, _, ok := strings.Cut(rest, "\n\nВопрос:")
	require.True(t, ok)
	assert.Equal(t, MaxContextRunes, utf8.RuneCountInString(ctxText))
	assert.Equal(t, strings.Repeat("я", MaxContextRunes), ctxText)
}

func TestTeacherFallbacks(t *testing.T) {
	model := &fakeLLM{reply: "Не знаю точного ответа."}
	th := &Teacher{
		LLM:        model,
		Retriever:  knowledge.NewRetriever(newIndex(t, "teacher"), 1),
		Paragraphs: func() []string { return []string{"Орфоэпия — нормы произношения.", "Пунктуация — знаки препинания."} },
	}

	assert.Equal(t, "Пунктуация — знаки препинания.", th.Ask(context.Background(), "пунктуация"))
	assert.Empty(t, model.reqs, "keyword hit is returned directly")

	assert.Equal(t, "Не знаю точного ответа.", th.Ask(context.Background(), "кто написал Онегина"))
	require.Len(t, model.reqs, 1)
	assert.Equal(t, llm.RoleSystem, model.reqs[0].Messages[0].Role)
	assert.Equal(t, "кто написал Онегина", model.reqs[0].Messages[1].Content)

	model.err = errors.New("503")
	assert.Equal(t, ModelFailureAnswer, th.Ask(context.Background(), "что-то ещё"))
	assert.Equal(t, EmptyQuestionAnswer, th.Ask(context.Background(), " \n"))
}

func TestMethodist(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "Экзамен проходит в июне."}
	m := &Methodist{LLM: model, Index: newIndex(t, "methodist", "Расписание ЕГЭ: основной период в июне.", "Допуск к экзамену — итоговое сочинение."), K: 2}

	_, ok := m.Ask(ctx, "что такое спряжение")
	assert.False(t, ok)

	got, ok := m.Ask(ctx, "Когда ЕГЭ по расписанию?")
	require.True(t, ok)
	assert.Equal(t, "Экзамен проходит в июне.", got)
	require.Len(t, model.reqs, 1)
	content := model.reqs[0].Messages[0].Content
	assert.Contains(t, content, "нейроассистент-методист")
	assert.Contains(t, content, "Вопрос: когда егэ по расписанию?")

	empty := &Methodist{LLM: model, Index: newIndex(t, "methodist")}
	got, ok = empty.Ask(ctx, "какие сроки подачи заявления")
	require.True(t, ok)
	assert.Equal(t, NoDocumentsAnswer, got)
}

func TestConfiguredSampling(t *testing.T) {
	ctx := context.Background()
	model := &fakeLLM{reply: "ok"}
	th := &Teacher{LLM: model, Retriever: staticRetriever("Спряжение."), Temperature: 0.7, MaxTokens: 64}
	th.Ask(ctx, "что такое спряжение")
	m := &Methodist{LLM: model, Index: newIndex(t, "methodist", "Расписание ЕГЭ."), Temperature: 0.4, MaxTokens: 90}
	_, ok := m.Ask(ctx, "расписание ЕГЭ")
	require.True(t, ok)

	require.Len(t, model.reqs, 2)
	assert.Equal(t, 0.7, model.reqs[0].Temperature)
	assert.Equal(t, 64, model.reqs[0].MaxTokens)
	assert.Equal(t, 0.4, model.reqs[1].Temperature)
	assert.Equal(t, 90, model.reqs[1].MaxTokens)

	_, _ = (&Methodist{LLM: model, Index: newIndex(t, "methodist", "Расписание ЕГЭ.")}).Ask(ctx, "расписание ЕГЭ")
	require.Len(t, model.reqs, 3)
	assert.Equal(t, DefaultTemperature, model.reqs[2].Temperature)
	assert.Equal(t, DefaultMaxTokens, model.reqs[2].MaxTokens)
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	chats := NewChatLog(dbtest.Open(t))
	model := &fakeLLM{reply: "**Ответ** модели"}
	r := NewRouter(
		&Methodist{LLM: model, Index: newIndex(t, "methodist", "Форма бланка ответов №1.")},
		&Teacher{LLM: model, Retriever: staticRetriever("контекст")},
		chats, nil,
	)

	a := r.Ask(ctx, "u1", "какой бланк заполнять")
	assert.Equal(t, SourceMethodist, a.Source)
	assert.Equal(t, "Методист: **Ответ** модели", a.Text)
	assert.Contains(t, a.HTML, "<strong>Ответ</strong>")

	a = r.Ask(ctx, "u1", "что такое причастие")
	assert.Equal(t, SourceTeacher, a.Source)
	assert.True(t, strings.HasPrefix(a.Text, "Учитель: "))

	a = r.Ask(ctx, "u1", "   ")
	assert.Equal(t, Answer{Text: EmptyQuestionAnswer, Source: SourceNone, HTML: "<p>" + EmptyQuestionAnswer + "</p>\n"}, a)

	logged, err := chats.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, logged, 2, "empty questions are not recorded")

	others, err := chats.List(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Empty(t, others)
}
