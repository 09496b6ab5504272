package grading

import (
	"fmt"
	"sort"
)

// Rubric is a set of scored criteria with an overall cap.
type Rubric struct {
	Criteria []Criterion `json:"criteria"`
	Max      float64     `json:"max_points"`
}

type Criterion struct {
	Key       string  `json:"key"`
	Desc      string  `json:"desc"`
	MaxPoints float64 `json:"max_points"`
}

// Unknown returns the awarded keys the rubric has no criterion for, sorted.
func (r Rubric) Unknown(awarded map[string]float64) []string {
	known := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		known[c.Key] = true
	}
	var out []string
	for k := range awarded {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ScoreRubric clamps each awarded value into [0, criterion max] and sums
// them, capped at r.Max when set. Notes hold one "K2: 4/6" line per
// criterion in rubric order. Criteria missing from awarded score zero.
func ScoreRubric(r Rubric, awarded map[string]float64) (float64, []string) {
	var total float64
	notes := make([]string, len(r.Criteria))
	for i, c := range r.Criteria {
		v := max(0, min(awarded[c.Key], c.MaxPoints))
		total += v
		notes[i] = fmt.Sprintf("%s: %g/%g", c.Key, v, c.MaxPoints)
	}
	if r.Max > 0 {
		total = min(total, r.Max)
	}
	return total, notes
}

// EssayRubric is the K1..K12 scheme of the essay in the written part of the
// Russian language exam.
var EssayRubric = Rubric{
	Max: 25,
	Criteria: []Criterion{
		{Key: "K1", Desc: "Проблема исходного текста", MaxPoints: 1},
		{Key: "K2", Desc: "Комментарий к проблеме", MaxPoints: 6},
		{Key: "K3", Desc: "Позиция автора", MaxPoints: 1},
		{Key: "K4", Desc: "Отношение к позиции автора", MaxPoints: 1},
		{Key: "K5", Desc: "Смысловая цельность и последовательность", MaxPoints: 2},
		{Key: "K6", Desc: "Точность и выразительность речи", MaxPoints: 2},
		{Key: "K7", Desc: "Орфографические нормы", MaxPoints: 3},
		{Key: "K8", Desc: "Пунктуационные нормы", MaxPoints: 3},
		{Key: "K9", Desc: "Грамматические нормы", MaxPoints: 2},
		{Key: "K10", Desc: "Речевые нормы", MaxPoints: 2},
		{Key: "K11", Desc: "Этические нормы", MaxPoints: 1},
		{Key: "K12", Desc: "Фактологическая точность", MaxPoints: 1},
	},
}
