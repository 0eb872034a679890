// Package embed turns text into fixed-dimension vectors.
package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/huygnguyen04/at-everyone/internal/config"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one vector per input text, each of length Dimensions().
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// New builds the embedder selected by cfg.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		return NewHashing(cfg.Dimensions), nil
	case "openai":
		e, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Fit pads with zeros or truncates v to exactly dim entries.
func Fit(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// Cosine returns the cosine similarity of a and b, 0 if either is zero.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ToFloat64 widens a float32 vector.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
