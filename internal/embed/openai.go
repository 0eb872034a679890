package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/metrics"
	"github.com/huygnguyen04/at-everyone/internal/ratelimit"
)

// maxBatch is the largest input list sent in one embeddings request.
const maxBatch = 100

// OpenAI embeds text through the OpenAI embeddings API. Results are cached
// per text and requests are rate limited.
type OpenAI struct {
	client  openai.Client
	model   string
	dim     int
	cache   *lru.Cache[string, []float32]
	limiter *rate.Limiter
}

// NewOpenAI creates an OpenAI embedder. Extra request options (base URL,
// HTTP client) are appended after the configured ones.
func NewOpenAI(cfg config.EmbeddingConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: missing api key")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 384
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}
	cache, err := lru.New[string, []float32](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		option.WithMaxRetries(3),
	}
	return &OpenAI{
		client:  openai.NewClient(append(base, opts...)...),
		model:   cfg.Model,
		dim:     cfg.Dimensions,
		cache:   cache,
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
	}, nil
}

func (e *OpenAI) Dimensions() int { return e.dim }
func (e *OpenAI) Name() string    { return "openai:" + e.model }

// Embed returns one vector per text, serving repeats from the cache.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missText []string
	seen := make(map[string]int)
	for i, t := range texts {
		if v, ok := e.cache.Get(t); ok {
			results[i] = v
			continue
		}
		if _, dup := seen[t]; !dup {
			seen[t] = len(missText)
			missText = append(missText, t)
		}
		missIdx = append(missIdx, i)
	}
	if len(missText) == 0 {
		return results, nil
	}

	fetched := make([][]float32, 0, len(missText))
	for start := 0; start < len(missText); start += maxBatch {
		end := start + maxBatch
		if end > len(missText) {
			end = len(missText)
		}
		vecs, err := e.call(ctx, missText[start:end])
		if err != nil {
			return nil, err
		}
		fetched = append(fetched, vecs...)
	}
	for j, t := range missText {
		e.cache.Add(t, fetched[j])
	}
	for _, i := range missIdx {
		results[i] = fetched[seen[texts[i]]]
	}
	return results, nil
}

func (e *OpenAI) call(ctx context.Context, batch []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	metrics.IncCapabilityCall("embedding")
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(int64(e.dim)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	out := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai embeddings: invalid index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for k, x := range d.Embedding {
			v[k] = float32(x)
		}
		out[d.Index] = Fit(v, e.dim)
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector for input %d", i)
		}
	}
	return out, nil
}
