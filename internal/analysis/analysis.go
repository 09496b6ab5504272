// Package analysis builds a per-student progress report from stored results.
package analysis

import (
	"errors"
	"math"
	"time"

	"github.com/NesmitC/project-webmath/internal/exam"
)

var ErrNoResults = errors.New("нет данных о тестировании")

const (
	// WeakThreshold is the average points per task below which a theme is weak.
	WeakThreshold = 1.2
	// EssayWeakThreshold applies to the average essay score.
	EssayWeakThreshold = 12

	ThemeEssay = "сочинение"
	lastTask   = 26
)

type Theme struct {
	Name  string
	Tasks []int // empty for the essay
}

// Themes maps task numbers of the Russian language exam to themes, in report
// order.
var Themes = []Theme{
	{"стиль и лексика текста", []int{1, 2, 3}},
	{"орфоэпия", []int{4}},
	{"речевая норма: паронимы", []int{5}},
	{"речевая норма: плеоназм (избыточность) и лексическая сочетаемость", []int{6}},
	{"грамматические нормы", []int{7, 8}},
	{"орфография", []int{9, 10, 11, 12, 13, 14, 15}},
	{"пунктуация", []int{16, 17, 18, 19, 20, 21}},
	{"выразительные средства", []int{22}},
	{"смысл текста", []int{23}},
	{"типы текста", []int{24}},
	{"лексические особенности текста", []int{25}},
	{"связь предложений", []int{26}},
	{ThemeEssay, nil},
}

type Report struct {
	UserID          string          `json:"user_id"`
	TotalTests      int             `json:"total_tests"`
	FirstTest       time.Time       `json:"first_test"`
	LastTest        time.Time       `json:"last_test"`
	TestProgress    string          `json:"test_progress"`
	AvgScores       map[int]float64 `json:"avg_scores"`
	WeakThemes      []string        `json:"weak_themes"`
	StrongThemes    []string        `json:"strong_themes"`
	AvgEssay        float64         `json:"avg_essay"`
	Recommendations []string        `json:"recommendations"`
	HasImproved     bool            `json:"has_improved"`
}

// Analyze expects results of a single student in chronological order.
func Analyze(userID string, results []exam.Result) (Report, error) {
	if len(results) == 0 {
		return Report{}, ErrNoResults
	}

	perTask := map[int][]float64{}
	var essays []float64
	for _, r := range results {
		for i := 1; i <= lastTask; i++ {
			if v, ok := r.Scores[i]; ok {
				perTask[i] = append(perTask[i], v)
			}
		}
		if r.EssayScore != nil {
			essays = append(essays, *r.EssayScore)
		}
	}

	avg := make(map[int]float64, len(perTask))
	for i, s := range perTask {
		avg[i] = mean(s)
	}
	avgEssay := mean(essays)

	weak := []string{}
	for _, th := range Themes {
		if th.Name == ThemeEssay {
			if avgEssay < EssayWeakThreshold {
				weak = append(weak, th.Name)
			}
			continue
		}
		var ts []float64
		for _, q := range th.Tasks {
			if v, ok := avg[q]; ok {
				ts = append(ts, v)
			}
		}
		if len(ts) > 0 && mean(ts) < WeakThreshold {
			weak = append(weak, th.Name)
		}
	}

	strong := []string{}
	for _, th := range Themes {
		if !contains(weak, th.Name) {
			strong = append(strong, th.Name)
		}
	}

	first, last := results[0], results[len(results)-1]
	return Report{
		UserID:          userID,
		TotalTests:      len(results),
		FirstTest:       first.CreatedAt,
		LastTest:        last.CreatedAt,
		TestProgress:    first.TestType + " → " + last.TestType,
		AvgScores:       avg,
		WeakThemes:      weak,
		StrongThemes:    strong,
		AvgEssay:        math.Round(avgEssay*10) / 10,
		Recommendations: Recommendations(weak),
		HasImproved:     last.Primary > first.Primary,
	}, nil
}

var recommendations = []struct{ theme, text string }{
	{"орфоэпия", "Пройди модуль «Орфоэпия» и реши 5 тренировочных тестов."},
	{"речевая норма: паронимы", "Повтори паронимы — выполни 3 упражнения из модуля «Лексика»."},
	{"орфография", "Повтори корни с чередованием и правила правописания приставок — реши 5 упражнений."},
	{"пунктуация", "Потренируй расстановку запятых в сложных предложениях — выполни интерактивный тест."},
	{ThemeEssay, "Напиши сочинение и отправь на проверку — я дам подробную обратную связь по критериям."},
	{"стиль и лексика текста", "Повтори стилистические ошибки и лексическую сочетаемость — посмотри видео и пройди викторину."},
}

const noWeakThemes = "Отличная работа! У тебя нет слабых тем. Хочешь пройти пробный экзамен?"

// Recommendations returns study advice for the weak themes.
func Recommendations(weak []string) []string {
	var out []string
	for _, r := range recommendations {
		if contains(weak, r.theme) {
			out = append(out, r.text)
		}
	}
	if len(out) == 0 {
		out = append(out, noWeakThemes)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
