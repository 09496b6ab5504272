package knowledge

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Split cuts text into chunks of at most size characters that overlap by
// overlap characters, preferring paragraph, line and word boundaries.
func Split(text string, size, overlap int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	sp := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
	chunks, err := sp.SplitText(text)
	if err != nil {
		return nil, err
	}
	out := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// SplitParagraphs splits on blank lines and drops empty paragraphs.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
