package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder hashes character trigrams and words into a fixed-size vector.
// It needs no model or network and gives usable lexical similarity for
// offline mode and tests.
type LocalEmbedder struct {
	dims int
}

func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &LocalEmbedder{dims: dims}
}

func (e *LocalEmbedder) Name() string { return "local-hash" }

func (e *LocalEmbedder) Dimensions() int { return e.dims }

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e.vector(t))
	}
	return out, nil
}

func (e *LocalEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	for _, w := range tokenize(text) {
		e.add(v, "w:"+w, 2)
		padded := []rune(" " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(v, string(padded[i:i+3]), 1)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		// chromem rejects zero vectors
		v[0] = 1
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func (e *LocalEmbedder) add(v []float32, feature string, weight float32) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()
	idx := int(sum % uint32(e.dims))
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
