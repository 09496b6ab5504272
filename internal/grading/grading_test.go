package grading

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grade(t *testing.T, g Grader, qtype, key string, points float64, resp any) Result {
	t.Helper()
	res, err := g.Grade(context.Background(), Q{Type: qtype, Points: points, AnswerKey: ParseKey(qtype, key)}, resp)
	require.NoError(t, err)
	return res
}

func TestTextAnswers(t *testing.T) {
	g := NewDefaultGrader()

	cases := []struct {
		name string
		key  string
		resp string
		want float64
	}{
		{"exact", "их", "их", 1},
		{"case and spaces", "их", "  ИХ ", 1},
		{"yo equals ye", "ещё", "еще", 1},
		{"alternative", "поэтому|потому", "потому", 1},
		{"wrong", "их", "его", 0},
		{"empty", "их", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, typ := range []string{TypeInput, TypeShortAnswer, TypeTask7} {
				assert.Equal(t, tc.want, grade(t, g, typ, tc.key, 1, tc.resp).AutoPoints, typ)
			}
		})
	}
}

func TestTextTypoFeedback(t *testing.T) {
	g := NewDefaultGrader(WithMaxEditDistance(1))
	res := grade(t, g, TypeInput, "жюри", 1, "жури")
	assert.Zero(t, res.AutoPoints)
	assert.NotEmpty(t, res.Feedback)
}

func TestCheckbox(t *testing.T) {
	g := NewDefaultGrader()
	assert.Equal(t, 1.0, grade(t, g, TypeCheckbox, "0,2", 1, "2,0").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeCheckbox, "0,2", 1, []any{"0", "2"}).AutoPoints)
	assert.Zero(t, grade(t, g, TypeCheckbox, "0,2", 1, "0").AutoPoints)
	assert.Zero(t, grade(t, g, TypeCheckbox, "0,2", 1, "0,1,2").AutoPoints)

	partial := NewDefaultGrader(WithPartialMulti(true))
	assert.Equal(t, 0.5, grade(t, partial, TypeCheckbox, "0,2", 1, "0").AutoPoints)
	assert.Zero(t, grade(t, partial, TypeCheckbox, "0,2", 1, "0,1").AutoPoints)
}

func TestMatch(t *testing.T) {
	g := NewDefaultGrader()
	assert.Equal(t, 2.0, grade(t, g, TypeMatch, "1,3,5", 2, "1,3,5").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeMatch, "1,3,5", 2, "1,4,5").AutoPoints)
	assert.Zero(t, grade(t, g, TypeMatch, "1,3,5", 2, "2,4,5").AutoPoints)
	assert.Zero(t, grade(t, g, TypeMatch, "1,3,5", 1, "1,4,5").AutoPoints)
	assert.Zero(t, grade(t, g, TypeMatch, "1,3,5", 2, "5,3,1").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeMatch, "1,3,5", 2, "1,3").AutoPoints)
}

func TestTextarea(t *testing.T) {
	g := NewDefaultGrader()
	short := grade(t, g, TypeTextarea, "", 25, "слишком коротко")
	assert.Zero(t, short.AutoPoints)
	assert.True(t, short.NeedsManual)

	long := grade(t, g, TypeTextarea, "", 25, strings.Repeat("слово ", 150))
	assert.Equal(t, 1.0, long.AutoPoints)
	assert.True(t, long.NeedsManual)
}

func TestNumeric(t *testing.T) {
	g := NewDefaultGrader()
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "2.5", 1, "2,5").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "3.14159|tol=0.01", 1, "3.14").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "100|reltol=0.05", 1, "104").AutoPoints)
	assert.Zero(t, grade(t, g, TypeNumeric, "100|reltol=0.05", 1, "110").AutoPoints)
	assert.Zero(t, grade(t, g, TypeNumeric, "100", 1, "сто").AutoPoints)

	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "3.14±0.01", 1, "3,145").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "100±5%", 1, "96").AutoPoints)
	assert.Zero(t, grade(t, g, TypeNumeric, "100±5%", 1, "94").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "1000", 1, "1 000").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "-3", 1, "−3").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "12", 1, "12 см").AutoPoints)
	assert.Zero(t, grade(t, g, TypeNumeric, "0", 1, "NaN").AutoPoints)
	assert.Equal(t, 1.0, grade(t, g, TypeNumeric, "пять", 1, "Пять").AutoPoints, "non-numeric key compares as text")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "еще раз", normalize("  Ещё,  РАЗ! "))
	assert.Equal(t, "ктото", normalize("кто-то"))
	assert.Empty(t, normalize(" ... "))
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("слово", "слово"))
	assert.Equal(t, 1, editDistance("привилегия", "привелегия"))
	assert.Equal(t, 3, editDistance("", "абв"))
	assert.Equal(t, 3, editDistance("kitten", "sitting"))
	assert.True(t, closeTo("расчет", "рассчет", 1))
	assert.False(t, closeTo("а", "абвг", 2))
}

func TestUnknownTypeNeedsManual(t *testing.T) {
	res := grade(t, NewDefaultGrader(), "drawing", "", 3, "x")
	assert.True(t, res.NeedsManual)
	assert.Equal(t, 3.0, res.MaxPoints)
}

func TestScoreRubricClamps(t *testing.T) {
	total, notes := ScoreRubric(EssayRubric, map[string]float64{"K1": 1, "K2": 10, "K7": -2})
	assert.Equal(t, 7.0, total)
	assert.Len(t, notes, len(EssayRubric.Criteria))
	assert.Equal(t, "K2: 6/6", notes[1])
	assert.Equal(t, "K7: 0/3", notes[6])
}

func TestRubricUnknown(t *testing.T) {
	assert.Empty(t, EssayRubric.Unknown(map[string]float64{"K1": 1, "K12": 1}))
	assert.Equal(t, []string{"K13", "k1"}, EssayRubric.Unknown(map[string]float64{"k1": 1, "K13": 2, "K2": 1}))
}

type fixedStrategy float64

func (f fixedStrategy) Grade(_ context.Context, q Q, _ any) (Result, error) {
	return Result{AutoPoints: float64(f), MaxPoints: q.Points}, nil
}

func TestRegisterStrategy(t *testing.T) {
	g := NewDefaultGrader()
	g.Register("drawing", fixedStrategy(2))
	assert.Equal(t, 2.0, grade(t, g, "drawing", "", 3, "x").AutoPoints)
	assert.False(t, grade(t, g, "drawing", "", 3, "x").NeedsManual)
}
