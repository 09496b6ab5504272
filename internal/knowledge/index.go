package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/NesmitC/project-webmath/internal/embeddings"
)

const batchSize = 32

// Hit is one search result.
type Hit struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// indexMeta is stored next to the exported collection so an index built with
// a different embedder is rebuilt instead of queried.
type indexMeta struct {
	Embedder string `json:"embedder"`
	Dims     int    `json:"dims"`
	Chunks   int    `json:"chunks"`
}

// Index is a named chromem collection that can be rebuilt while it serves
// queries. A rebuild fills a fresh database and swaps it in when done.
type Index struct {
	name string
	dir  string
	emb  embeddings.Embedder
	ef   chromem.EmbeddingFunc

	mu  sync.RWMutex
	db  *chromem.DB
	col *chromem.Collection
}

// NewIndex creates an empty index. dir may be empty for an index that is never
// persisted.
func NewIndex(name, dir string, emb embeddings.Embedder) (*Index, error) {
	ix := &Index{name: name, dir: dir, emb: emb, ef: embeddings.ToChromemFunc(emb)}
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(name, nil, ix.ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	ix.db, ix.col = db, col
	return ix, nil
}

func (ix *Index) Name() string { return ix.name }

func (ix *Index) path() string { return filepath.Join(ix.dir, ix.name+".gob.gz") }

func (ix *Index) metaPath() string { return filepath.Join(ix.dir, ix.name+".meta.json") }

// Build embeds chunks into a new collection and replaces the current one.
// progress, if set, is called after every batch with the number of chunks
// embedded so far.
func (ix *Index) Build(ctx context.Context, chunks []string, progress func(done, total int)) error {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(ix.name, nil, ix.ef)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	workers := runtime.NumCPU()
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		docs := make([]chromem.Document, 0, end-start)
		for i := start; i < end; i++ {
			docs = append(docs, chromem.Document{
				ID:       ix.name + "-" + strconv.Itoa(i),
				Content:  chunks[i],
				Metadata: map[string]string{"seq": strconv.Itoa(i)},
			})
		}
		if err := col.AddDocuments(ctx, docs, workers); err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if progress != nil {
			progress(end, len(chunks))
		}
	}

	ix.mu.Lock()
	ix.db, ix.col = db, col
	ix.mu.Unlock()
	return nil
}

// Persist writes the collection to <dir>/<name>.gob.gz.
func (ix *Index) Persist(ctx context.Context) error {
	if ix.dir == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if err := ix.db.ExportToFile(ix.path(), true, ""); err != nil {
		return fmt.Errorf("export index: %w", err)
	}
	meta, err := json.Marshal(indexMeta{Embedder: ix.emb.Name(), Dims: ix.emb.Dimensions(), Chunks: ix.col.Count()})
	if err != nil {
		return fmt.Errorf("encode index meta: %w", err)
	}
	tmp := ix.metaPath() + ".tmp"
	if err := os.WriteFile(tmp, meta, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, ix.metaPath()); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ErrStale means the stored index was built with another embedder.
var ErrStale = errors.New("index built with a different embedder")

// Load reads a persisted collection. It returns fs.ErrNotExist when nothing
// was persisted and ErrStale when the embedder changed.
func (ix *Index) Load(ctx context.Context) error {
	if ix.dir == "" {
		return os.ErrNotExist
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := os.ReadFile(ix.metaPath())
	if err != nil {
		return err
	}
	var meta indexMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("read index meta: %w", err)
	}
	if meta.Embedder != ix.emb.Name() || meta.Dims != ix.emb.Dimensions() {
		return ErrStale
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(ix.path(), ""); err != nil {
		return fmt.Errorf("import index: %w", err)
	}
	col := db.GetCollection(ix.name, ix.ef)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", ix.name)
	}
	ix.mu.Lock()
	ix.db, ix.col = db, col
	ix.mu.Unlock()
	return nil
}

// EnsureBuilt loads the persisted index or, if there is none, builds it from
// the chunks returned by load and persists it. It reports whether a build ran.
func (ix *Index) EnsureBuilt(ctx context.Context, load func(context.Context) ([]string, error)) (bool, error) {
	if err := ix.Load(ctx); err == nil && ix.Count() > 0 {
		return false, nil
	}
	chunks, err := load(ctx)
	if err != nil {
		return false, err
	}
	if err := ix.Build(ctx, chunks, nil); err != nil {
		return false, err
	}
	return true, ix.Persist(ctx)
}

// Search returns up to k chunks closest to query. An empty index yields no
// hits and no error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	ix.mu.RLock()
	col := ix.col
	ix.mu.RUnlock()

	if k <= 0 {
		k = 1
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem requires nResults <= collection size
	k = min(k, count)

	res, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ix.name, err)
	}
	hits := make([]Hit, len(res))
	for i, r := range res {
		hits[i] = Hit{ID: r.ID, Content: r.Content, Similarity: r.Similarity}
	}
	return hits, nil
}

func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.col.Count()
}
