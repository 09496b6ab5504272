package knowledge

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Corpus is a text source with its splitting parameters. The last loaded text
// is kept so the keyword fallback can scan its paragraphs.
type Corpus struct {
	Name         string
	Source       string
	ChunkSize    int
	ChunkOverlap int
	// Preamble is prepended to the loaded text.
	Preamble string
	// Fallback replaces an empty or unreachable source.
	Fallback string
	Log      *zap.Logger

	mu         sync.RWMutex
	paragraphs []string
}

// Text loads the source. A load failure is returned unless the corpus has a
// Fallback or a Preamble to serve instead; then it is only logged.
func (c *Corpus) Text(ctx context.Context) (string, error) {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	text, err := LoadSource(ctx, c.Source, log)
	if err != nil {
		if c.Fallback == "" && c.Preamble == "" {
			return "", err
		}
		log.Warn("corpus source unavailable", zap.String("corpus", c.Name), zap.String("source", c.Source), zap.Error(err))
	}
	if strings.TrimSpace(text) == "" && c.Fallback != "" {
		log.Warn("corpus is empty, using fallback text", zap.String("corpus", c.Name))
		text = c.Fallback
	}
	if c.Preamble != "" {
		text = c.Preamble + "\n\n" + text
	}

	c.mu.Lock()
	c.paragraphs = SplitParagraphs(text)
	c.mu.Unlock()
	return text, nil
}

// Chunks loads and splits the corpus.
func (c *Corpus) Chunks(ctx context.Context) ([]string, error) {
	text, err := c.Text(ctx)
	if err != nil {
		return nil, err
	}
	return c.split(text)
}

func (c *Corpus) split(text string) ([]string, error) {
	return Split(text, c.ChunkSize, c.ChunkOverlap)
}

// Paragraphs returns the paragraphs of the last loaded text.
func (c *Corpus) Paragraphs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paragraphs
}
