package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const optionSep = "|"

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

var _ Store = (*SQLStore)(nil)

// ---- test types ----

// PutType inserts a type or updates the one with the same name.
func (s *SQLStore) PutType(ctx context.Context, t TestType) (TestType, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return TestType{}, fmt.Errorf("%w: type name is required", ErrInvalidInput)
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO test_types (name, subject, title, description, diagnostic_type, scale)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (name) DO UPDATE SET subject=EXCLUDED.subject, title=EXCLUDED.title,
		   description=EXCLUDED.description, diagnostic_type=EXCLUDED.diagnostic_type, scale=EXCLUDED.scale
		 RETURNING id`,
		t.Name, t.Subject, t.Title, t.Description, t.DiagnosticType, t.Scale).Scan(&t.ID)
	if err != nil {
		return TestType{}, err
	}
	return t, nil
}

const typeCols = `id, name, subject, title, description, diagnostic_type, scale`

func scanType(row interface{ Scan(...any) error }) (TestType, error) {
	var t TestType
	err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.Title, &t.Description, &t.DiagnosticType, &t.Scale)
	if errors.Is(err, sql.ErrNoRows) {
		return TestType{}, ErrNotFound
	}
	return t, err
}

func (s *SQLStore) ListTypes(ctx context.Context) ([]TestType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+typeCols+` FROM test_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestType{}
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTypeByName(ctx context.Context, name string) (TestType, error) {
	return scanType(s.db.QueryRowContext(ctx, `SELECT `+typeCols+` FROM test_types WHERE name=$1`, name))
}

// TypeByDiagnostic returns the first type registered for a diagnostic kind.
func (s *SQLStore) TypeByDiagnostic(ctx context.Context, kind string) (TestType, error) {
	return scanType(s.db.QueryRowContext(ctx,
		`SELECT `+typeCols+` FROM test_types WHERE diagnostic_type=$1 ORDER BY id LIMIT 1`, kind))
}

// ---- tests ----

func (s *SQLStore) CreateTest(ctx context.Context, typeName string, t Test) (Test, error) {
	tt, err := s.GetTypeByName(ctx, typeName)
	if err != nil {
		return Test{}, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tests WHERE type_id=$1`, tt.ID).Scan(&n); err != nil {
		return Test{}, err
	}
	if n > 0 {
		return Test{}, ErrTestExists
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Test{}, err
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO tests (type_id, title, test_text, created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		tt.ID, t.Title, t.Text, time.Now().Unix()).Scan(&id); err != nil {
		return Test{}, err
	}
	seen := map[int]bool{}
	for _, q := range t.Questions {
		if seen[q.Number] {
			return Test{}, ErrBadNumber
		}
		seen[q.Number] = true
		if _, err := insertQuestion(ctx, tx, id, q); err != nil {
			return Test{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Test{}, err
	}
	return s.GetTest(ctx, id, true)
}

func (s *SQLStore) UpdateTest(ctx context.Context, typeName string, title, text string) (Test, error) {
	t, err := s.GetTestByType(ctx, typeName, true)
	if err != nil {
		return Test{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE tests SET title=$1, test_text=$2 WHERE id=$3`, title, text, t.ID); err != nil {
		return Test{}, err
	}
	t.Title, t.Text = title, text
	return t, nil
}

func (s *SQLStore) GetTestByType(ctx context.Context, typeName string, withKeys bool) (Test, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT t.id FROM tests t JOIN test_types ty ON ty.id = t.type_id WHERE ty.name=$1`, typeName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, ErrNotFound
	}
	if err != nil {
		return Test{}, err
	}
	return s.GetTest(ctx, id, withKeys)
}

func (s *SQLStore) GetTest(ctx context.Context, id int64, withKeys bool) (Test, error) {
	var (
		t       Test
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.type_id, ty.name, t.title, t.test_text, t.created_at
		 FROM tests t JOIN test_types ty ON ty.id = t.type_id WHERE t.id=$1`, id).
		Scan(&t.ID, &t.TypeID, &t.TypeName, &t.Title, &t.Text, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, ErrNotFound
	}
	if err != nil {
		return Test{}, err
	}
	t.CreatedAt = time.Unix(created, 0).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE test_id=$1 ORDER BY question_number, id`, id)
	if err != nil {
		return Test{}, err
	}
	defer rows.Close()
	t.Questions = []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return Test{}, err
		}
		if !withKeys {
			q.CorrectAnswer = ""
		}
		t.Questions = append(t.Questions, q)
	}
	return t, rows.Err()
}

// ---- questions ----

const questionCols = `id, test_id, question_number, question_type, task_text, question_text, options, correct_answer, info, points`

func scanQuestion(row interface{ Scan(...any) error }) (Question, error) {
	var (
		q    Question
		opts string
	)
	err := row.Scan(&q.ID, &q.TestID, &q.Number, &q.Type, &q.TaskText, &q.Text, &opts, &q.CorrectAnswer, &q.Info, &q.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	if err != nil {
		return Question{}, err
	}
	q.Options = splitOptions(opts)
	return q, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertQuestion(ctx context.Context, db queryer, testID int64, q Question) (int64, error) {
	if q.Points <= 0 {
		q.Points = 1
	}
	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO questions (test_id, question_number, question_type, task_text, question_text, options, correct_answer, info, points)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		testID, q.Number, q.Type, q.TaskText, q.Text, strings.Join(q.Options, optionSep), q.CorrectAnswer, q.Info, q.Points).Scan(&id)
	return id, err
}

func (s *SQLStore) numberTaken(ctx context.Context, testID int64, number int, exceptID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM questions WHERE test_id=$1 AND question_number=$2 AND id<>$3`,
		testID, number, exceptID).Scan(&n)
	return n > 0, err
}

func (s *SQLStore) AddQuestion(ctx context.Context, testID int64, q Question) (Question, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tests WHERE id=$1`, testID).Scan(&n); err != nil {
		return Question{}, err
	}
	if n == 0 {
		return Question{}, ErrNotFound
	}
	taken, err := s.numberTaken(ctx, testID, q.Number, 0)
	if err != nil {
		return Question{}, err
	}
	if taken {
		return Question{}, ErrBadNumber
	}
	id, err := insertQuestion(ctx, s.db, testID, q)
	if err != nil {
		return Question{}, err
	}
	return s.GetQuestion(ctx, id)
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) (Question, error) {
	cur, err := s.GetQuestion(ctx, q.ID)
	if err != nil {
		return Question{}, err
	}
	taken, err := s.numberTaken(ctx, cur.TestID, q.Number, q.ID)
	if err != nil {
		return Question{}, err
	}
	if taken {
		return Question{}, ErrBadNumber
	}
	if q.Points <= 0 {
		q.Points = 1
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET question_number=$1, question_type=$2, task_text=$3, question_text=$4,
		   options=$5, correct_answer=$6, info=$7, points=$8 WHERE id=$9`,
		q.Number, q.Type, q.TaskText, q.Text, strings.Join(q.Options, optionSep), q.CorrectAnswer, q.Info, q.Points, q.ID)
	if err != nil {
		return Question{}, err
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=$1`, id))
}

// ---- results ----

type resultBlob struct {
	Scores   map[int]float64  `json:"scores"`
	Feedback map[int][]string `json:"feedback,omitempty"`
}

func (s *SQLStore) SaveResult(ctx context.Context, r Result) (Result, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	answers, scores, err := marshalResult(r)
	if err != nil {
		return Result{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, user_id, test_id, test_type, primary_score, max_score, secondary_score, level,
		   answers_json, scores_json, essay_score, needs_review, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		r.ID, r.UserID, r.TestID, r.TestType, r.Primary, r.Max, r.Secondary, r.Level,
		answers, scores, nullFloat(r.EssayScore), boolInt(r.NeedsReview), r.CreatedAt.Unix())
	if err != nil {
		return Result{}, err
	}
	return r, nil
}

// UpdateResult rewrites scores of an existing result.
func (s *SQLStore) UpdateResult(ctx context.Context, r Result) error {
	_, scores, err := marshalResult(r)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE results SET primary_score=$1, secondary_score=$2, level=$3, scores_json=$4,
		   essay_score=$5, needs_review=$6 WHERE id=$7`,
		r.Primary, r.Secondary, r.Level, scores, nullFloat(r.EssayScore), boolInt(r.NeedsReview), r.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const resultCols = `id, user_id, test_id, test_type, primary_score, max_score, secondary_score, level,
	answers_json, scores_json, essay_score, needs_review, created_at`

func scanResult(row interface{ Scan(...any) error }) (Result, error) {
	var (
		r               Result
		answers, scores string
		essay           sql.NullFloat64
		created         int64
	)
	err := row.Scan(&r.ID, &r.UserID, &r.TestID, &r.TestType, &r.Primary, &r.Max, &r.Secondary, &r.Level,
		&answers, &scores, &essay, &r.NeedsReview, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return Result{}, fmt.Errorf("decode answers of %s: %w", r.ID, err)
	}
	var blob resultBlob
	if err := json.Unmarshal([]byte(scores), &blob); err != nil {
		return Result{}, fmt.Errorf("decode scores of %s: %w", r.ID, err)
	}
	r.Scores, r.Feedback = blob.Scores, blob.Feedback
	if essay.Valid {
		v := essay.Float64
		r.EssayScore = &v
	}
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}

func (s *SQLStore) GetResult(ctx context.Context, id string) (Result, error) {
	return scanResult(s.db.QueryRowContext(ctx, `SELECT `+resultCols+` FROM results WHERE id=$1`, id))
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]Result, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.UserID != "" {
		add("user_id=$%d", opts.UserID)
	}
	if opts.TestType != "" {
		add("test_type=$%d", opts.TestType)
	}

	q := `SELECT ` + resultCols + ` FROM results`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if opts.Newest {
		q += " ORDER BY created_at DESC, id"
	} else {
		q += " ORDER BY created_at ASC, id"
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			q += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteAllResults(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// helpers

func marshalResult(r Result) (answers, scores string, err error) {
	if r.Answers == nil {
		r.Answers = map[int]string{}
	}
	if r.Scores == nil {
		r.Scores = map[int]float64{}
	}
	a, err := json.Marshal(r.Answers)
	if err != nil {
		return "", "", err
	}
	b, err := json.Marshal(resultBlob{Scores: r.Scores, Feedback: r.Feedback})
	if err != nil {
		return "", "", err
	}
	return string(a), string(b), nil
}

func splitOptions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, optionSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
