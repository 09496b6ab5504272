package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

var ErrUnknownCorpus = errors.New("unknown corpus")

type entry struct {
	corpus *Corpus
	index  *Index
}

// Set groups the corpora served by one process, keyed by name.
type Set struct {
	entries map[string]entry
}

func NewSet() *Set { return &Set{entries: map[string]entry{}} }

func (s *Set) Add(c *Corpus, ix *Index) {
	s.entries[c.Name] = entry{corpus: c, index: ix}
}

func (s *Set) Names() []string {
	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Set) Index(name string) (*Index, bool) {
	e, ok := s.entries[name]
	return e.index, ok
}

func (s *Set) Corpus(name string) (*Corpus, bool) {
	e, ok := s.entries[name]
	return e.corpus, ok
}

// EnsureBuilt loads or builds every index concurrently. Corpora are
// independent: a failing one does not stop the others, and all failures come
// back joined. The corpus text is always loaded so keyword search has
// paragraphs even when the index came from disk.
func (s *Set) EnsureBuilt(ctx context.Context) error {
	names := s.Names()
	errs := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		e := s.entries[name]
		g.Go(func() error {
			text, err := e.corpus.Text(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("corpus %s: %w", name, err)
				return nil
			}
			split := func(context.Context) ([]string, error) { return e.corpus.split(text) }
			if _, err := e.index.EnsureBuilt(ctx, split); err != nil {
				errs[i] = fmt.Errorf("index %s: %w", name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Reindex reloads the named corpus, rebuilds its index and persists it. It
// returns the number of chunks indexed.
func (s *Set) Reindex(ctx context.Context, name string, progress func(done, total int)) (int, error) {
	e, ok := s.entries[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCorpus, name)
	}
	chunks, err := e.corpus.Chunks(ctx)
	if err != nil {
		return 0, err
	}
	if err := e.index.Build(ctx, chunks, progress); err != nil {
		return 0, err
	}
	return len(chunks), e.index.Persist(ctx)
}
