package knowledge

import "strings"

// KeywordSearch returns the first paragraph containing any word of the
// question, ignoring case. It is the fallback when vector search finds
// nothing.
func KeywordSearch(paragraphs []string, question string) string {
	words := strings.Fields(strings.ToLower(question))
	if len(words) == 0 {
		return ""
	}
	for _, p := range paragraphs {
		lp := strings.ToLower(p)
		for _, w := range words {
			if strings.Contains(lp, w) {
				return strings.TrimSpace(p)
			}
		}
	}
	return ""
}
