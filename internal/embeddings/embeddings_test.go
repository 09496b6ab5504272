package embeddings

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/config"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalEmbedder(t *testing.T) {
	e := NewLocalEmbedder(128)
	vecs, err := e.Embed(context.Background(), []string{
		"Спряжение глаголов по лицам и числам",
		"спряжение глагола",
		"Расписание экзаменов ЕГЭ",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	for _, v := range vecs {
		assert.Len(t, v, 128)
		var n float64
		for _, x := range v {
			n += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, n, 1e-5)
	}
	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))

	again, err := e.Embed(context.Background(), []string{"спряжение глагола"})
	require.NoError(t, err)
	assert.Equal(t, vecs[1], again[0], "embedding is deterministic")
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		out := ollamaEmbedResponse{}
		for range req.Input {
			out.Embeddings = append(out.Embeddings, []float32{1, 0, 0})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 3, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, "ollama/nomic-embed-text", e.Name())
}

func TestOpenAIEmbedderBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[{"object":"embedding","index":0,"embedding":[0.5,0.5]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("k", srv.URL+"/v1", "m", 2)
	vecs, err := e.Embed(context.Background(), []string{"привет"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.5}}, vecs)
	assert.Equal(t, 2, e.Dimensions())
}

func TestOpenAIEmbedderDimensions(t *testing.T) {
	bodies := make(chan map[string]any, 2)
	vec := `[0.1,0.2,0.3]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":` + vec + `}]}`))
	}))
	defer srv.Close()
	ctx := context.Background()

	short := NewOpenAIEmbedder("k", srv.URL+"/v1", "text-embedding-3-small", 3)
	_, err := short.Embed(ctx, []string{"текст"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, (<-bodies)["dimensions"])

	native := NewOpenAIEmbedder("k", srv.URL+"/v1", "", 0)
	assert.Equal(t, 1536, native.Dimensions())
	_, err = native.Embed(ctx, []string{"текст"})
	assert.ErrorContains(t, err, "want 1536")
	assert.NotContains(t, <-bodies, "dimensions")
}

func TestChromemFunc(t *testing.T) {
	f := ToChromemFunc(NewLocalEmbedder(16))
	v, err := f(context.Background(), "текст")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestFactory(t *testing.T) {
	e, err := New(config.EmbeddingsConfig{Provider: "local", Dimensions: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dimensions())

	_, err = New(config.EmbeddingsConfig{Provider: "openai"})
	assert.Error(t, err)

	defaults := config.Default().Embeddings
	e, err = New(defaults)
	require.NoError(t, err)
	assert.Equal(t, 256, e.Dimensions(), "local")
	defaults.Provider, defaults.APIKey = "openai", "k"
	e, err = New(defaults)
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimensions())
	defaults.Provider = "ollama"
	e, err = New(defaults)
	require.NoError(t, err)
	assert.Equal(t, 768, e.Dimensions())

	e, err = New(config.EmbeddingsConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, 768, e.Dimensions())

	_, err = New(config.EmbeddingsConfig{Provider: "magic"})
	assert.Error(t, err)
}
