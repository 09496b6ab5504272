package grading

import (
	"strings"
	"unicode"
)

// normalize lowercases a free-text answer, folds ё into е, drops punctuation
// and collapses whitespace runs into single spaces.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == 'ё' || r == 'Ё':
			return 'е'
		case unicode.IsPunct(r):
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// editDistance is the Levenshtein distance over runes, kept in a single row.
func editDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}
	for i, ra := range ar {
		diag := row[0]
		row[0] = i + 1
		for j, rb := range br {
			above := row[j+1]
			cost := 1
			if ra == rb {
				cost = 0
			}
			row[j+1] = min(above+1, row[j]+1, diag+cost)
			diag = above
		}
	}
	return row[len(br)]
}

// closeTo reports whether a and b are at most n edits apart.
func closeTo(a, b string, n int) bool {
	gap := utf8Len(a) - utf8Len(b)
	if gap < 0 {
		gap = -gap
	}
	return gap <= n && editDistance(a, b) <= n
}

func utf8Len(s string) int { return len([]rune(s)) }
