package topic

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/metrics"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/sentiment"
)

// MinMessages is the fewest cleaned messages worth clustering.
const MinMessages = 3

// Clusterer derives a favorite topic from one participant's messages.
// Embedding, keyword extraction and labeling are injected.
type Clusterer struct {
	embedder    embed.Embedder
	sentiment   sentiment.Scorer
	keywords    KeywordExtractor
	labeler     Labeler
	maxClusters int
	topKeywords int
	seed        int64
}

func NewClusterer(e embed.Embedder, s sentiment.Scorer, kw KeywordExtractor, lb Labeler, cfg config.AnalysisConfig) *Clusterer {
	if kw == nil {
		kw = EmbeddingKeywords{Embedder: e}
	}
	if lb == nil {
		lb = FirstKeywordLabeler{}
	}
	if cfg.MaxClusters <= 0 {
		cfg.MaxClusters = 10
	}
	if cfg.TopKeywords <= 0 {
		cfg.TopKeywords = 10
	}
	return &Clusterer{
		embedder:    e,
		sentiment:   s,
		keywords:    kw,
		labeler:     lb,
		maxClusters: cfg.MaxClusters,
		topKeywords: cfg.TopKeywords,
		seed:        cfg.Seed,
	}
}

// Cluster is one group of messages after clustering.
type Cluster struct {
	Size      int
	Sentiment float64 // mean compound
	Doc       string  // concatenated cleaned tokens
	TFIDF     float64
	Combined  float64
}

// Analysis is the intermediate clustering result behind a topic.
type Analysis struct {
	K          int
	Silhouette float64
	Clusters   []Cluster
	Favorite   int
}

// Analyze embeds and clusters messages. ok is false when fewer than
// MinMessages messages survive cleaning.
func (c *Clusterer) Analyze(ctx context.Context, msgs []model.Message) (Analysis, bool, error) {
	var raw []string
	var tokens [][]string
	for _, m := range msgs {
		toks := Clean(m.Content)
		if len(toks) == 0 {
			continue
		}
		raw = append(raw, m.Content)
		tokens = append(tokens, toks)
	}
	n := len(raw)
	if n < MinMessages {
		return Analysis{}, false, nil
	}

	start := time.Now()
	vecs, err := c.embedder.Embed(ctx, raw)
	if err != nil {
		return Analysis{}, false, fmt.Errorf("embed messages: %w", err)
	}
	metrics.ObserveStage("embed", start)
	if len(vecs) != n {
		return Analysis{}, false, fmt.Errorf("embed messages: got %d vectors for %d texts", len(vecs), n)
	}

	start = time.Now()
	dim := c.embedder.Dimensions()
	data := mat.NewDense(n, dim, nil)
	for i, v := range vecs {
		data.SetRow(i, embed.ToFloat64(embed.Fit(v, dim)))
	}

	var labels []int
	best := -1.0
	bestK := 1
	hi := c.maxClusters
	if n < hi {
		hi = n
	}
	for k := 2; k < hi; k++ {
		if err := ctx.Err(); err != nil {
			return Analysis{}, false, err
		}
		l := KMeans(data, k, rand.New(rand.NewSource(c.seed)))
		if s := Silhouette(data, l); s > best {
			best, labels, bestK = s, l, k
		}
	}
	if labels == nil {
		labels = make([]int, n)
		best = 0
	}
	metrics.ObserveStage("cluster", start)

	k := ClusterCount(labels)
	clusters := make([]Cluster, k)
	docs := make([][]string, k)
	for i, l := range labels {
		clusters[l].Size++
		clusters[l].Sentiment += c.sentiment.Compound(raw[i])
		docs[l] = append(docs[l], tokens[i]...)
	}
	texts := make([]string, k)
	for l := range clusters {
		clusters[l].Sentiment /= float64(clusters[l].Size)
		clusters[l].Doc = strings.Join(docs[l], " ")
		texts[l] = clusters[l].Doc
	}
	scores, err := TFIDFScores(texts)
	if err != nil {
		return Analysis{}, false, err
	}
	fav := 0
	for l := range clusters {
		clusters[l].TFIDF = scores[l]
		clusters[l].Combined = scores[l] * (1 + clusters[l].Sentiment)
		if clusters[l].Combined > clusters[fav].Combined {
			fav = l
		}
	}
	return Analysis{K: bestK, Silhouette: best, Clusters: clusters, Favorite: fav}, true, nil
}

// FavoriteTopic returns the keywords and label of the highest-ranked
// cluster, or the empty topic when there is too little text.
func (c *Clusterer) FavoriteTopic(ctx context.Context, msgs []model.Message) (model.Topic, error) {
	a, ok, err := c.Analyze(ctx, msgs)
	if err != nil {
		return model.Topic{}, err
	}
	if !ok {
		metrics.EmptyTopics.Inc()
		return model.EmptyTopic(), nil
	}
	kws, err := c.keywords.Extract(ctx, a.Clusters[a.Favorite].Doc, c.topKeywords)
	if err != nil {
		return model.Topic{}, fmt.Errorf("extract keywords: %w", err)
	}
	topic := model.Topic{Keywords: NormalizePercent(kws)}
	if len(kws) == 0 {
		return topic, nil
	}
	words := make([]string, len(kws))
	for i, k := range kws {
		words[i] = k.Word
	}
	label, err := c.labeler.Label(ctx, words)
	if err != nil {
		return model.Topic{}, fmt.Errorf("label topic: %w", err)
	}
	topic.Label = FirstToken(label)
	return topic, nil
}
