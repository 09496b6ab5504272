// Package grading scores answers to diagnostic questions. Each question type
// has a Strategy; the Engine routes a question to its strategy.
package grading

import (
	"context"
	"errors"
)

// Question types.
const (
	TypeInput       = "input"
	TypeShortAnswer = "short-answer"
	TypeTask7       = "task7"
	TypeCheckbox    = "checkbox"
	TypeMatch       = "match"
	TypeTextarea    = "textarea"
	TypeNumeric     = "numeric"
)

var errNotText = errors.New("response must be string")

// Q is the part of a question grading needs.
type Q struct {
	Type      string
	Points    float64
	AnswerKey []string
}

type Result struct {
	AutoPoints  float64
	MaxPoints   float64
	NeedsManual bool // a teacher has to look at it
	Feedback    []string
}

type Strategy interface {
	Grade(ctx context.Context, q Q, response any) (Result, error)
}

// Grader grades one question response.
type Grader interface {
	Grade(ctx context.Context, q Q, response any) (Result, error)
}

type Option func(*Engine)

// WithMaxEditDistance sets the typo tolerance for text answers. A response
// within n edits of a key earns nothing but gets a spelling hint. 0 disables.
func WithMaxEditDistance(n int) Option { return func(e *Engine) { e.maxEdit = n } }

// WithPartialMulti gives proportional credit to checkbox answers that pick
// no wrong option.
func WithPartialMulti(b bool) Option { return func(e *Engine) { e.partial = b } }

func WithMinEssayWords(n int) Option { return func(e *Engine) { e.minWords = n } }

type Engine struct {
	maxEdit    int
	partial    bool
	minWords   int
	strategies map[string]Strategy
}

// NewDefaultGrader returns an Engine with a strategy for every built-in
// question type.
func NewDefaultGrader(opts ...Option) *Engine {
	e := &Engine{minWords: 150}
	for _, o := range opts {
		o(e)
	}
	text := textStrategy{maxEdit: e.maxEdit}
	e.strategies = map[string]Strategy{
		TypeInput:       text,
		TypeShortAnswer: text,
		TypeTask7:       text,
		TypeCheckbox:    checkboxStrategy{partial: e.partial},
		TypeMatch:       matchStrategy{},
		TypeTextarea:    essayStrategy{minWords: e.minWords},
		TypeNumeric:     numericStrategy{},
	}
	return e
}

// Register installs or replaces the strategy for a question type.
func (e *Engine) Register(qtype string, s Strategy) { e.strategies[qtype] = s }

func (e *Engine) Grade(ctx context.Context, q Q, response any) (Result, error) {
	if s, ok := e.strategies[q.Type]; ok {
		return s.Grade(ctx, q, response)
	}
	return Result{
		MaxPoints:   q.Points,
		NeedsManual: true,
		Feedback:    []string{"тип задания проверяется вручную"},
	}, nil
}
