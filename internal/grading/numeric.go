package grading

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// numericKey is a parsed numeric answer key. Keys are written as
//
//	"2,5"                 exact value, decimal comma allowed
//	"3.14±0.01"           absolute tolerance
//	"100±5%"              relative tolerance
//	"3.14159|tol=0.01"    absolute tolerance, separated form
//	"100|reltol=0.05"     relative tolerance, separated form
type numericKey struct {
	value float64
	abs   float64
	rel   float64
}

func parseNumericKey(parts []string) (numericKey, bool) {
	var k numericKey
	if len(parts) == 0 {
		return k, false
	}
	head := parts[0]
	if v, tol, ok := strings.Cut(head, "±"); ok {
		head = v
		tol = strings.TrimSpace(tol)
		if pct, isPct := strings.CutSuffix(tol, "%"); isPct {
			if f, ok := parseNumber(pct); ok {
				k.rel = f / 100
			}
		} else if f, ok := parseNumber(tol); ok {
			k.abs = f
		}
	}
	v, ok := parseNumber(head)
	if !ok {
		return k, false
	}
	k.value = v
	for _, p := range parts[1:] {
		name, val, found := strings.Cut(strings.ToLower(strings.TrimSpace(p)), "=")
		if !found {
			continue
		}
		f, ok := parseNumber(val)
		if !ok {
			continue
		}
		switch name {
		case "tol":
			k.abs = f
		case "reltol":
			k.rel = f
		}
	}
	return k, true
}

func (k numericKey) accepts(x float64) bool {
	d := math.Abs(x - k.value)
	return d == 0 || d <= k.abs || d <= k.rel*math.Abs(k.value)
}

var numberCleaner = strings.NewReplacer(",", ".", "−", "-", "\u00a0", " ")

// parseNumber reads a student's number. It accepts a decimal comma, a Unicode
// minus, spaces between digit groups ("1 000") and a trailing unit ("12 см").
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(numberCleaner.Replace(s))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, " ", ""), 64)
	if err != nil {
		f, err = strconv.ParseFloat(strings.Fields(s)[0], 64)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type numericStrategy struct{}

func (numericStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points}
	s, ok := response.(string)
	if !ok {
		return res, errNotText
	}
	key, ok := parseNumericKey(q.AnswerKey)
	if !ok {
		// a key that is not a number compares as text
		if len(q.AnswerKey) > 0 && normalize(s) == normalize(q.AnswerKey[0]) {
			res.AutoPoints = q.Points
		}
		return res, nil
	}
	if x, ok := parseNumber(s); ok && key.accepts(x) {
		res.AutoPoints = q.Points
	}
	return res, nil
}
