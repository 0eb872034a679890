package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/huygnguyen04/at-everyone/internal/util"
)

// Hashing is a local, deterministic embedder. Word tokens and character
// trigrams are hashed into a fixed number of signed buckets and the result
// is L2-normalised. Similar wording yields similar vectors.
type Hashing struct {
	dim int
}

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = 384
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Dimensions() int { return h.dim }
func (h *Hashing) Name() string    { return "hash" }

func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embedOne(t)
	}
	return out, nil
}

func (h *Hashing) embedOne(text string) []float32 {
	v := make([]float64, h.dim)
	for _, w := range util.Words(strings.ToLower(text)) {
		h.add(v, "w:"+w, 1)
		padded := "<" + w + ">"
		rs := []rune(padded)
		for i := 0; i+3 <= len(rs); i++ {
			h.add(v, "g:"+string(rs[i:i+3]), 0.5)
		}
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

func (h *Hashing) add(v []float64, feature string, weight float64) {
	hs := fnv.New64a()
	_, _ = hs.Write([]byte(feature))
	sum := hs.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}
