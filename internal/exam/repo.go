package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrTestExists   = errors.New("test for this type already exists")
	ErrTypeExists   = errors.New("test type already exists")
	ErrBadNumber    = errors.New("question number already used in this test")
	ErrInvalidInput = errors.New("invalid input")
)

type ResultListOpts struct {
	UserID   string // filter by student
	TestType string // filter by test type name
	Newest   bool   // newest first; default is chronological
	Limit    int
	Offset   int
}

type Store interface {
	PutType(ctx context.Context, t TestType) (TestType, error)
	ListTypes(ctx context.Context) ([]TestType, error)
	GetTypeByName(ctx context.Context, name string) (TestType, error)
	TypeByDiagnostic(ctx context.Context, kind string) (TestType, error)

	CreateTest(ctx context.Context, typeName string, t Test) (Test, error)
	UpdateTest(ctx context.Context, typeName string, title, text string) (Test, error)
	// GetTestByType returns the test with its questions. Correct answers are
	// blanked unless withKeys is set.
	GetTestByType(ctx context.Context, typeName string, withKeys bool) (Test, error)
	GetTest(ctx context.Context, id int64, withKeys bool) (Test, error)

	AddQuestion(ctx context.Context, testID int64, q Question) (Question, error)
	UpdateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	GetQuestion(ctx context.Context, id int64) (Question, error)

	SaveResult(ctx context.Context, r Result) (Result, error)
	GetResult(ctx context.Context, id string) (Result, error)
	UpdateResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, opts ResultListOpts) ([]Result, error)
	DeleteAllResults(ctx context.Context) (int64, error)
}
