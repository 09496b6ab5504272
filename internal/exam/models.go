package exam

import "time"

// Diagnostic kinds.
const (
	DiagnosticIncoming = "incoming"
	DiagnosticCurrent  = "current"
	DiagnosticFinal    = "final"
)

type TestType struct {
	ID             int64  `json:"id"`
	Name           string `json:"name" validate:"required,max=50"`
	Subject        string `json:"subject,omitempty"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	DiagnosticType string `json:"diagnostic_type,omitempty" validate:"omitempty,oneof=incoming current final"`
	Scale          string `json:"scale,omitempty"` // scoring key, e.g. "ege.rus"
}

type Test struct {
	ID        int64      `json:"id"`
	TypeID    int64      `json:"type_id"`
	TypeName  string     `json:"type_name"`
	Title     string     `json:"title"`
	Text      string     `json:"test_text"`
	CreatedAt time.Time  `json:"created_at"`
	Questions []Question `json:"questions"`
}

// MaxScore sums question points.
func (t Test) MaxScore() float64 {
	total := 0.0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

type Question struct {
	ID            int64    `json:"id"`
	TestID        int64    `json:"test_id"`
	Number        int      `json:"question_number"`
	Type          string   `json:"question_type"`
	TaskText      string   `json:"task_text,omitempty"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"` // stripped in student views
	Info          string   `json:"info,omitempty"`
	Points        float64  `json:"points"`
}

// Result is one graded submission. Answers and Scores are keyed by question
// number.
type Result struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	TestID      int64            `json:"test_id"`
	TestType    string           `json:"test_type"`
	Primary     float64          `json:"primary_score"`
	Max         float64          `json:"max_score"`
	Secondary   float64          `json:"secondary_score"`
	Level       string           `json:"level"`
	Answers     map[int]string   `json:"answers"`
	Scores      map[int]float64  `json:"scores"`
	EssayScore  *float64         `json:"essay_score,omitempty"`
	NeedsReview bool             `json:"needs_review"`
	Feedback    map[int][]string `json:"feedback,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
