package topic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/model"
)

// KeywordExtractor ranks the most representative single words of text.
// Weights are relevance scores; higher is more representative.
type KeywordExtractor interface {
	Extract(ctx context.Context, text string, topN int) ([]model.Keyword, error)
}

// EmbeddingKeywords ranks candidate words by cosine similarity between
// each word's embedding and the embedding of the whole text.
type EmbeddingKeywords struct {
	Embedder embed.Embedder
}

func (k EmbeddingKeywords) Extract(ctx context.Context, text string, topN int) ([]model.Keyword, error) {
	seen := make(map[string]struct{})
	var candidates []string
	for _, w := range strings.Fields(text) {
		if len(w) < 2 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		candidates = append(candidates, w)
	}
	if len(candidates) == 0 || topN <= 0 {
		return []model.Keyword{}, nil
	}
	vecs, err := k.Embedder.Embed(ctx, append([]string{text}, candidates...))
	if err != nil {
		return nil, fmt.Errorf("embed keyword candidates: %w", err)
	}
	if len(vecs) != len(candidates)+1 {
		return nil, fmt.Errorf("embed keyword candidates: got %d vectors for %d texts", len(vecs), len(candidates)+1)
	}
	doc := vecs[0]
	out := make([]model.Keyword, len(candidates))
	for i, w := range candidates {
		out[i] = model.Keyword{Word: w, Weight: embed.Cosine(doc, vecs[i+1])}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// NormalizePercent rescales weights so they sum to 100. When the total is
// not positive every keyword gets an equal share. Shares are not rounded;
// callers round for display.
func NormalizePercent(kws []model.Keyword) []model.Keyword {
	out := make([]model.Keyword, len(kws))
	if len(kws) == 0 {
		return out
	}
	total := 0.0
	for _, k := range kws {
		total += k.Weight
	}
	for i, k := range kws {
		w := 100 / float64(len(kws))
		if total > 0 {
			w = k.Weight / total * 100
		}
		out[i] = model.Keyword{Word: k.Word, Weight: w}
	}
	return out
}
