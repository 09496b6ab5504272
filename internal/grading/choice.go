package grading

import (
	"context"
	"errors"
)

type optionSet map[string]bool

func newOptionSet(items []string) optionSet {
	s := make(optionSet, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

// overlap counts the members of s that are also in other, and whether s has
// any member other lacks.
func (s optionSet) overlap(other optionSet) (hits int, stray bool) {
	for it := range s {
		if other[it] {
			hits++
		} else {
			stray = true
		}
	}
	return hits, stray
}

type checkboxStrategy struct{ partial bool }

func (s checkboxStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points}
	picked, ok := answerList(response)
	if !ok {
		return res, errors.New("response must be a list of option indices")
	}
	want := newOptionSet(q.AnswerKey)
	if len(want) == 0 {
		return res, nil
	}
	hits, stray := newOptionSet(picked).overlap(want)
	switch {
	case stray:
		// a wrong option voids the answer
	case hits == len(want):
		res.AutoPoints = q.Points
	case s.partial:
		res.AutoPoints = q.Points * float64(hits) / float64(len(want))
	}
	return res, nil
}

// matchStrategy compares an ordered answer position by position. Missing or
// extra positions count as mistakes. A two-point task with one mistake earns
// one point.
type matchStrategy struct{}

func (matchStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points}
	got, ok := answerList(response)
	if !ok {
		return res, errors.New("response must be an ordered list")
	}
	if len(q.AnswerKey) == 0 {
		return res, nil
	}
	mistakes := 0
	for i := range max(len(q.AnswerKey), len(got)) {
		if i >= len(q.AnswerKey) || i >= len(got) || normalize(q.AnswerKey[i]) != normalize(got[i]) {
			mistakes++
		}
	}
	if mistakes == 0 {
		res.AutoPoints = q.Points
	} else if mistakes == 1 && q.Points == 2 {
		res.AutoPoints = 1
		res.Feedback = []string{"одна ошибка в соответствии"}
	}
	return res, nil
}
