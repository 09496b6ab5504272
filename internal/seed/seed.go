// Package seed loads test types, tests and questions from YAML.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/NesmitC/project-webmath/internal/exam"
)

//go:embed default.yaml
var defaultSeed []byte

type File struct {
	Types []Type `yaml:"types"`
}

type Type struct {
	Name           string `yaml:"name"`
	Title          string `yaml:"title"`
	Subject        string `yaml:"subject"`
	Description    string `yaml:"description"`
	DiagnosticType string `yaml:"diagnostic_type"`
	Scale          string `yaml:"scale"`
	Test           *Test  `yaml:"test"`
}

type Test struct {
	Title     string     `yaml:"title"`
	Text      string     `yaml:"text"`
	Questions []Question `yaml:"questions"`
}

type Question struct {
	Number   int      `yaml:"number"`
	Type     string   `yaml:"type"`
	TaskText string   `yaml:"task_text"`
	Text     string   `yaml:"text"`
	Options  []string `yaml:"options"`
	Answer   string   `yaml:"answer"`
	Info     string   `yaml:"info"`
	Points   float64  `yaml:"points"`
}

func (q Question) toExam() exam.Question {
	return exam.Question{
		Number:        q.Number,
		Type:          q.Type,
		TaskText:      q.TaskText,
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.Answer,
		Info:          q.Info,
		Points:        q.Points,
	}
}

func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// Default returns the built-in seed.
func Default() File {
	var f File
	if err := yaml.Unmarshal(defaultSeed, &f); err != nil {
		panic(fmt.Sprintf("seed: bad default.yaml: %v", err))
	}
	return f
}

func ReadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Stats counts what Apply created.
type Stats struct {
	Types     int `json:"types"`
	Tests     int `json:"tests"`
	Questions int `json:"questions"`
}

// Apply upserts types and adds tests and questions missing from the store.
// Existing tests and questions are left unchanged, so running it twice is a
// no-op.
func Apply(ctx context.Context, store exam.Store, f File, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var st Stats
	for _, t := range f.Types {
		if _, err := store.PutType(ctx, exam.TestType{
			Name:           t.Name,
			Title:          t.Title,
			Subject:        t.Subject,
			Description:    t.Description,
			DiagnosticType: t.DiagnosticType,
			Scale:          t.Scale,
		}); err != nil {
			return st, fmt.Errorf("type %s: %w", t.Name, err)
		}
		st.Types++
		if t.Test == nil {
			continue
		}

		existing, err := store.GetTestByType(ctx, t.Name, false)
		if errors.Is(err, exam.ErrNotFound) {
			qs := make([]exam.Question, len(t.Test.Questions))
			for i, q := range t.Test.Questions {
				qs[i] = q.toExam()
			}
			if _, err := store.CreateTest(ctx, t.Name, exam.Test{Title: t.Test.Title, Text: t.Test.Text, Questions: qs}); err != nil {
				return st, fmt.Errorf("test %s: %w", t.Name, err)
			}
			st.Tests++
			st.Questions += len(qs)
			log.Info("seeded test", zap.String("type", t.Name), zap.Int("questions", len(qs)))
			continue
		}
		if err != nil {
			return st, err
		}

		have := map[int]bool{}
		for _, q := range existing.Questions {
			have[q.Number] = true
		}
		for _, q := range t.Test.Questions {
			if have[q.Number] {
				continue
			}
			if _, err := store.AddQuestion(ctx, existing.ID, q.toExam()); err != nil {
				return st, fmt.Errorf("question %s/%d: %w", t.Name, q.Number, err)
			}
			st.Questions++
		}
	}
	return st, nil
}
