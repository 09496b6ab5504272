package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/exam"
)

func fptr(v float64) *float64 { return &v }

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze("u1", nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestAnalyzeWeakAndStrong(t *testing.T) {
	t0 := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	results := []exam.Result{
		{
			TestType: "incoming", Primary: 10, CreatedAt: t0,
			Scores:     map[int]float64{1: 2, 2: 2, 3: 2, 4: 0, 9: 1, 10: 1, 16: 2},
			EssayScore: fptr(10),
		},
		{
			TestType: "final", Primary: 18, CreatedAt: t0.Add(48 * time.Hour),
			Scores:     map[int]float64{1: 2, 2: 2, 3: 1, 4: 1, 9: 2, 10: 1, 16: 2},
			EssayScore: fptr(15),
		},
	}

	rep, err := Analyze("u1", results)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TotalTests)
	assert.Equal(t, "incoming → final", rep.TestProgress)
	assert.Equal(t, t0, rep.FirstTest)
	assert.InDelta(t, 0.5, rep.AvgScores[4], 1e-9)
	assert.Equal(t, 12.5, rep.AvgEssay)
	assert.True(t, rep.HasImproved)

	assert.Equal(t, []string{"орфоэпия"}, rep.WeakThemes)
	assert.Contains(t, rep.StrongThemes, "стиль и лексика текста")
	assert.Contains(t, rep.StrongThemes, "пунктуация")
	assert.Contains(t, rep.StrongThemes, ThemeEssay)
	assert.Len(t, rep.StrongThemes, len(Themes)-1)
	assert.Equal(t, "стиль и лексика текста", rep.StrongThemes[0], "strong themes keep theme order")

	assert.Equal(t, []string{"Пройди модуль «Орфоэпия» и реши 5 тренировочных тестов."}, rep.Recommendations)
}

func TestAnalyzeNoEssayIsWeak(t *testing.T) {
	rep, err := Analyze("u1", []exam.Result{{TestType: "incoming", Primary: 5, Scores: map[int]float64{1: 2}}})
	require.NoError(t, err)
	assert.Contains(t, rep.WeakThemes, ThemeEssay)
	assert.False(t, rep.HasImproved)
	assert.Zero(t, rep.AvgEssay)
}

func TestRecommendationsDefault(t *testing.T) {
	assert.Equal(t, []string{noWeakThemes}, Recommendations(nil))
	recs := Recommendations([]string{"пунктуация", "орфография"})
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "корни с чередованием", "order follows the recommendation list")
}
