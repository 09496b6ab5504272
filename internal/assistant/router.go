// Package assistant answers student questions. Procedural questions go to the
// methodist, everything else to the teacher.
package assistant

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

const (
	SourceMethodist = "methodist"
	SourceTeacher   = "teacher"
	SourceNone      = "none"
)

type Answer struct {
	Text   string `json:"answer"`
	Source string `json:"source"`
	HTML   string `json:"answer_html"`
}

// ChatRecorder stores answered questions.
type ChatRecorder interface {
	Append(ctx context.Context, e ChatEntry) error
}

type Router struct {
	Methodist *Methodist
	Teacher   *Teacher
	Chats     ChatRecorder
	Log       *zap.Logger

	md goldmark.Markdown
}

func NewRouter(m *Methodist, t *Teacher, chats ChatRecorder, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{Methodist: m, Teacher: t, Chats: chats, Log: log, md: goldmark.New()}
}

// Ask routes the question and records the exchange for userID.
func (r *Router) Ask(ctx context.Context, userID, question string) Answer {
	question = strings.TrimSpace(question)
	if question == "" {
		return r.finish(Answer{Text: EmptyQuestionAnswer, Source: SourceNone})
	}

	var a Answer
	if text, ok := r.methodist(ctx, question); ok {
		a = Answer{Text: "Методист: " + text, Source: SourceMethodist}
	} else {
		a = Answer{Text: "Учитель: " + r.teacher(ctx, question), Source: SourceTeacher}
	}
	a = r.finish(a)

	if r.Chats != nil {
		err := r.Chats.Append(ctx, ChatEntry{UserID: userID, Source: a.Source, Question: question, Answer: a.Text})
		if err != nil {
			r.Log.Warn("record chat", zap.Error(err))
		}
	}
	return a
}

func (r *Router) methodist(ctx context.Context, q string) (string, bool) {
	if r.Methodist == nil {
		return "", false
	}
	return r.Methodist.Ask(ctx, q)
}

func (r *Router) teacher(ctx context.Context, q string) string {
	if r.Teacher == nil {
		return ModelFailureAnswer
	}
	return r.Teacher.Ask(ctx, q)
}

func (r *Router) finish(a Answer) Answer {
	md := r.md
	if md == nil {
		md = goldmark.New()
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(a.Text), &buf); err != nil {
		r.Log.Warn("render answer", zap.Error(err))
		return a
	}
	a.HTML = buf.String()
	return a
}
