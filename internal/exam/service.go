package exam

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/eventlog"
	"github.com/NesmitC/project-webmath/internal/grading"
	"github.com/NesmitC/project-webmath/internal/scoring"
)

// EventAppender records domain events.
type EventAppender interface {
	Append(ctx context.Context, e eventlog.Event) error
}

type Service struct {
	store  Store
	grader grading.Grader
	events EventAppender
	log    *zap.Logger
}

func NewService(store Store, grader grading.Grader, events EventAppender, log *zap.Logger) *Service {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, grader: grader, events: events, log: log}
}

func (s *Service) Store() Store { return s.store }

// Submit grades answers against the test of typeName and stores the result.
func (s *Service) Submit(ctx context.Context, userID, typeName string, answers map[int]string) (Result, error) {
	tt, err := s.store.GetTypeByName(ctx, typeName)
	if err != nil {
		return Result{}, err
	}
	t, err := s.store.GetTestByType(ctx, typeName, true)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		UserID:   userID,
		TestID:   t.ID,
		TestType: tt.Name,
		Max:      t.MaxScore(),
		Answers:  map[int]string{},
		Scores:   map[int]float64{},
		Feedback: map[int][]string{},
	}
	for _, q := range t.Questions {
		resp := answers[q.Number]
		if resp != "" {
			r.Answers[q.Number] = resp
		}
		res, err := s.grader.Grade(ctx, grading.Q{
			Type:      q.Type,
			Points:    q.Points,
			AnswerKey: grading.ParseKey(q.Type, q.CorrectAnswer),
		}, resp)
		if err != nil {
			s.log.Warn("grade question", zap.Int64("question_id", q.ID), zap.Error(err))
			continue
		}
		r.Scores[q.Number] = res.AutoPoints
		r.Primary += res.AutoPoints
		if res.NeedsManual {
			r.NeedsReview = true
		}
		if len(res.Feedback) > 0 {
			r.Feedback[q.Number] = res.Feedback
		}
	}
	s.rescale(&r, tt.Scale)

	r, err = s.store.SaveResult(ctx, r)
	if err != nil {
		return Result{}, fmt.Errorf("save result: %w", err)
	}
	s.emit(ctx, eventlog.TypeResultSubmitted, r.ID, map[string]any{
		"user_id":   r.UserID,
		"test_type": r.TestType,
		"primary":   r.Primary,
		"secondary": r.Secondary,
	})
	return r, nil
}

// GradeEssay applies a rubric score to the essay question of a result and
// recomputes the totals.
func (s *Service) GradeEssay(ctx context.Context, resultID string, awarded map[string]float64) (Result, error) {
	if bad := grading.EssayRubric.Unknown(awarded); len(bad) > 0 {
		return Result{}, fmt.Errorf("%w: unknown criteria %v", ErrInvalidInput, bad)
	}
	r, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return Result{}, err
	}
	t, err := s.store.GetTest(ctx, r.TestID, false)
	if err != nil {
		return Result{}, err
	}
	essayNum := -1
	for _, q := range t.Questions {
		if q.Type == grading.TypeTextarea {
			essayNum = q.Number
			break
		}
	}
	if essayNum < 0 {
		return Result{}, fmt.Errorf("%w: test has no essay question", ErrInvalidInput)
	}

	score, _ := grading.ScoreRubric(grading.EssayRubric, awarded)
	if r.Scores == nil {
		r.Scores = map[int]float64{}
	}
	r.Scores[essayNum] = score
	r.EssayScore = &score
	r.NeedsReview = false
	r.Primary = 0
	for _, v := range r.Scores {
		r.Primary += v
	}
	tt, err := s.store.GetTypeByName(ctx, r.TestType)
	if err != nil {
		return Result{}, err
	}
	s.rescale(&r, tt.Scale)
	if err := s.store.UpdateResult(ctx, r); err != nil {
		return Result{}, err
	}
	return r, nil
}

func (s *Service) rescale(r *Result, scale string) {
	r.Secondary = scoring.Secondary(scale, r.Primary, r.Max)
	r.Level = scoring.Level(r.Primary, r.Max)
}

func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	e, err := eventlog.New(typ, key, data)
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		s.log.Warn("append event", zap.String("type", typ), zap.Error(err))
	}
}
