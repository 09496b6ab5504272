package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/embeddings"
)

func TestGoogleDocExportURL(t *testing.T) {
	u, err := GoogleDocExportURL(" https://docs.google.com/document/d/1Cc-W_x9/edit?usp=sharing ")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/document/d/1Cc-W_x9/export?format=txt", u)

	_, err = GoogleDocExportURL("https://example.com/file.txt")
	assert.ErrorIs(t, err, ErrInvalidDocURL)
	_, err = LoadGoogleDoc(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrInvalidDocURL)
}

func TestLoadSourceURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Глагол — часть речи."))
	}))
	defer srv.Close()

	text, err := LoadSource(context.Background(), srv.URL+"/doc.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "Глагол — часть речи.", text)

	_, err = LoadSource(context.Background(), srv.URL+"/missing", nil)
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Расписание ЕГЭ"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("# ФГОС"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bin"), []byte("skip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))

	text, err := LoadDir(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "--- Документ: a.txt ---\n\nРасписание ЕГЭ")
	assert.Contains(t, text, "--- Документ: b.md ---")
	assert.NotContains(t, text, "skip")
	assert.NotContains(t, text, "broken.pdf")

	viaSource, err := LoadSource(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, text, viaSource)
}

func TestSplit(t *testing.T) {
	para := strings.Repeat("Спряжение — изменение глагола по лицам и числам. ", 4)
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	chunks, err := Split(text, 250, 50)
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.Equal(t, strings.TrimSpace(c), c)
	}

	chunks, err = Split("   ", 250, 50)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitParagraphsAndKeywordSearch(t *testing.T) {
	paras := SplitParagraphs("Первый абзац про орфоэпию.\r\n\r\n\n\nВторой абзац: Пунктуация в сложных предложениях.\n\n  ")
	require.Len(t, paras, 2)

	assert.Equal(t, "Второй абзац: Пунктуация в сложных предложениях.", KeywordSearch(paras, "ПУНКТУАЦИЯ"))
	assert.Equal(t, "Первый абзац про орфоэпию.", KeywordSearch(paras, "что такое орфоэпию"))
	assert.Empty(t, KeywordSearch(paras, "кодификатор"))
	assert.Empty(t, KeywordSearch(paras, "   "))
}

var sampleChunks = []string{
	"Спряжение — это изменение глаголов по лицам и числам.",
	"Пунктуация: запятая ставится между частями сложного предложения.",
	"Орфоэпия изучает правила произношения и ударения.",
}

func TestIndexBuildSearch(t *testing.T) {
	ctx := context.Background()
	ix, err := NewIndex("teacher", "", embeddings.NewLocalEmbedder(0))
	require.NoError(t, err)

	hits, err := ix.Search(ctx, "что угодно", 3)
	require.NoError(t, err)
	assert.Nil(t, hits, "empty index")

	var calls []int
	require.NoError(t, ix.Build(ctx, sampleChunks, func(done, total int) {
		assert.Equal(t, len(sampleChunks), total)
		calls = append(calls, done)
	}))
	assert.Equal(t, []int{3}, calls)
	assert.Equal(t, 3, ix.Count())

	hits, err = ix.Search(ctx, "спряжение глаголов", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, sampleChunks[0], hits[0].Content)

	hits, err = ix.Search(ctx, "ударения", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3, "k is clamped to the collection size")

	r := NewRetriever(ix, 2)
	text, err := r.Context(ctx, "запятая в сложном предложении")
	require.NoError(t, err)
	parts := strings.Split(text, "\n\n")
	assert.Len(t, parts, 2)
	assert.Equal(t, sampleChunks[1], parts[0])
}

func TestIndexPersistLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := embeddings.NewLocalEmbedder(64)

	ix, err := NewIndex("methodist", dir, emb)
	require.NoError(t, err)
	assert.Error(t, ix.Load(ctx), "nothing persisted yet")

	require.NoError(t, ix.Build(ctx, sampleChunks, nil))
	require.NoError(t, ix.Persist(ctx))
	assert.FileExists(t, filepath.Join(dir, "methodist.gob.gz"))

	again, err := NewIndex("methodist", dir, emb)
	require.NoError(t, err)
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, 3, again.Count())

	other, err := NewIndex("methodist", dir, embeddings.NewLocalEmbedder(32))
	require.NoError(t, err)
	assert.ErrorIs(t, other.Load(ctx), ErrStale)
}

func TestEnsureBuilt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := embeddings.NewLocalEmbedder(64)
	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return sampleChunks, nil
	}

	ix, err := NewIndex("teacher", dir, emb)
	require.NoError(t, err)
	built, err := ix.EnsureBuilt(ctx, load)
	require.NoError(t, err)
	assert.True(t, built)

	ix2, err := NewIndex("teacher", dir, emb)
	require.NoError(t, err)
	built, err = ix2.EnsureBuilt(ctx, load)
	require.NoError(t, err)
	assert.False(t, built)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 3, ix2.Count())
}

func TestCorpusPreambleAndFallback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ege.txt")
	require.NoError(t, os.WriteFile(path, []byte("Абзац один.\n\nАбзац два."), 0o644))

	c := &Corpus{Name: "teacher", Source: path, ChunkSize: 250, ChunkOverlap: 50, Preamble: "Определение."}
	chunks, err := c.Chunks(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(chunks[0], "Определение."))
	assert.Equal(t, []string{"Определение.", "Абзац один.", "Абзац два."}, c.Paragraphs())

	empty := t.TempDir()
	m := &Corpus{Name: "methodist", Source: empty, ChunkSize: 300, ChunkOverlap: 50, Fallback: "Документы временно недоступны."}
	text, err := m.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Документы временно недоступны.", text)

	missing := &Corpus{Name: "x", Source: filepath.Join(dir, "nope")}
	_, err = missing.Text(ctx)
	assert.Error(t, err)

	onlyPreamble := &Corpus{Name: "teacher", Source: filepath.Join(dir, "nope"), Preamble: "Определение."}
	text, err = onlyPreamble.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Определение.\n\n", text)
	assert.Equal(t, []string{"Определение."}, onlyPreamble.Paragraphs())
}

func TestSetCorporaAreIndependent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	docs := filepath.Join(dir, "methodist")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	for i := range 20 {
		body := strings.Repeat("Расписание экзаменов и допуск к ЕГЭ. ", 10)
		require.NoError(t, os.WriteFile(filepath.Join(docs, "doc"+strconv.Itoa(i)+".txt"), []byte(body), 0o644))
	}
	emb := embeddings.NewLocalEmbedder(32)
	newIx := func(name string) *Index {
		ix, err := NewIndex(name, filepath.Join(dir, "index"), emb)
		require.NoError(t, err)
		return ix
	}

	s := NewSet()
	broken := &Corpus{Name: "broken", Source: filepath.Join(dir, "missing.txt"), ChunkSize: 250, ChunkOverlap: 50}
	teacher := &Corpus{Name: "teacher", Source: filepath.Join(dir, "missing.txt"), ChunkSize: 250, ChunkOverlap: 50, Preamble: "Спряжение – изменение глагола по лицам и числам."}
	methodist := &Corpus{Name: "methodist", Source: docs, ChunkSize: 300, ChunkOverlap: 50}
	brokenIx, teacherIx, methodistIx := newIx("broken"), newIx("teacher"), newIx("methodist")
	s.Add(broken, brokenIx)
	s.Add(teacher, teacherIx)
	s.Add(methodist, methodistIx)

	err := s.EnsureBuilt(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus broken")
	assert.NotContains(t, err.Error(), "teacher")
	assert.Zero(t, brokenIx.Count())
	assert.Equal(t, 1, teacherIx.Count(), "preamble alone is indexed")
	assert.Greater(t, methodistIx.Count(), 1)
}

func TestEnsureBuiltLoadsSourceOnce(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("Глагол — часть речи.\n\nПричастие — форма глагола."))
	}))
	defer srv.Close()

	ix, err := NewIndex("teacher", t.TempDir(), embeddings.NewLocalEmbedder(32))
	require.NoError(t, err)
	s := NewSet()
	c := &Corpus{Name: "teacher", Source: srv.URL + "/doc.txt", ChunkSize: 250, ChunkOverlap: 50}
	s.Add(c, ix)

	require.NoError(t, s.EnsureBuilt(ctx))
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 1, ix.Count())
	assert.Len(t, c.Paragraphs(), 2)
}

func TestPersistWritesMetaAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ix, err := NewIndex("teacher", dir, embeddings.NewLocalEmbedder(32))
	require.NoError(t, err)
	require.NoError(t, ix.Build(ctx, sampleChunks, nil))
	require.NoError(t, ix.Persist(ctx))

	_, err = os.Stat(filepath.Join(dir, "teacher.meta.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "teacher.meta.json.tmp"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "ege.txt")
	require.NoError(t, os.WriteFile(src, []byte("Спряжение глаголов.\n\nПричастный оборот."), 0o644))

	emb := embeddings.NewLocalEmbedder(64)
	teacher := &Corpus{Name: "teacher", Source: src, ChunkSize: 250, ChunkOverlap: 50}
	ix, err := NewIndex("teacher", filepath.Join(dir, "index"), emb)
	require.NoError(t, err)

	s := NewSet()
	s.Add(teacher, ix)
	assert.Equal(t, []string{"teacher"}, s.Names())

	require.NoError(t, s.EnsureBuilt(ctx))
	assert.GreaterOrEqual(t, ix.Count(), 1)
	assert.Len(t, teacher.Paragraphs(), 2)

	require.NoError(t, os.WriteFile(src, []byte(strings.Repeat("Новый абзац про пунктуацию и знаки препинания.\n\n", 20)), 0o644))
	n, err := s.Reindex(ctx, "teacher", nil)
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Equal(t, n, ix.Count())

	_, err = s.Reindex(ctx, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownCorpus)
}
