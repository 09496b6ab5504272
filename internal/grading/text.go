package grading

import (
	"context"
	"strings"
)

type textStrategy struct{ maxEdit int }

func (s textStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points}
	raw, ok := response.(string)
	if !ok {
		return res, errNotText
	}
	got := normalize(raw)
	if got == "" {
		return res, nil
	}
	near := false
	for _, k := range q.AnswerKey {
		want := normalize(k)
		if want == got {
			res.AutoPoints = q.Points
			return res, nil
		}
		near = near || (s.maxEdit > 0 && closeTo(want, got, s.maxEdit))
	}
	if near {
		res.Feedback = []string{"ответ близок к верному, проверьте написание"}
	}
	return res, nil
}

// essayStrategy always hands the essay to a teacher. An essay of at least
// minWords words gets one provisional point.
type essayStrategy struct{ minWords int }

func (s essayStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points, NeedsManual: true, Feedback: []string{"сочинение проверяет учитель"}}
	text, _ := response.(string)
	if s.minWords > 0 && len(strings.Fields(text)) >= s.minWords {
		res.AutoPoints = min(1, q.Points)
	}
	return res, nil
}
