package topic

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/sentiment"
)

func TestClean(t *testing.T) {
	got := Clean("Check https://x.com/a THIS out!! It's 2024, pizza-time www.site.org")
	want := []string{"check", "pizzatime"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if len(Clean("the and of :)")) != 0 {
		t.Fatalf("stopwords and symbols should vanish")
	}
}

func blobs() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		0, 0,
		10, 10,
		0.2, 0.1,
		10.1, 9.9,
		0.1, 0.3,
		9.8, 10.2,
	})
}

func TestKMeansSeparatesAndIsReproducible(t *testing.T) {
	data := blobs()
	a := KMeans(data, 2, rand.New(rand.NewSource(42)))
	b := KMeans(data, 2, rand.New(rand.NewSource(42)))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed, different labels: %v %v", a, b)
	}
	want := []int{0, 1, 0, 1, 0, 1}
	if !reflect.DeepEqual(a, want) {
		t.Fatalf("labels %v want %v", a, want)
	}
	if ClusterCount(a) != 2 {
		t.Fatalf("ClusterCount=%d", ClusterCount(a))
	}
}

func TestSilhouette(t *testing.T) {
	data := blobs()
	good := Silhouette(data, []int{0, 1, 0, 1, 0, 1})
	bad := Silhouette(data, []int{0, 0, 1, 1, 0, 1})
	if good < 0.9 || bad >= good {
		t.Fatalf("good=%v bad=%v", good, bad)
	}
	if Silhouette(data, make([]int, 6)) != 0 {
		t.Fatalf("single cluster should score 0")
	}
	// a singleton cluster contributes 0 for its point
	s := Silhouette(mat.NewDense(3, 1, []float64{0, 0.1, 5}), []int{0, 0, 1})
	if s <= 0 || s >= 1 {
		t.Fatalf("singleton silhouette=%v", s)
	}
}

func TestTFIDFScores(t *testing.T) {
	scores, err := TFIDFScores([]string{"pizza pizza pasta", "golang code code", "pizza pizza pasta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 3 {
		t.Fatalf("len=%d", len(scores))
	}
	for i, s := range scores {
		if s <= 0 {
			t.Fatalf("score %d not positive: %v", i, s)
		}
	}
	if math.Abs(scores[0]-scores[2]) > 1e-12 {
		t.Fatalf("identical docs should score the same: %v", scores)
	}
	// single-letter tokens are not terms
	short, err := TFIDFScores([]string{"pizza pasta u x", "pizza pasta"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(short[0]-short[1]) > 1e-12 {
		t.Fatalf("single letters changed the score: %v", short)
	}
	none, err := TFIDFScores([]string{"u r", "k"})
	if err != nil || none[0] != 0 || none[1] != 0 {
		t.Fatalf("no terms: %v %v", none, err)
	}
	empty, err := TFIDFScores(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: %v %v", empty, err)
	}
}

func TestNormalizePercent(t *testing.T) {
	got := NormalizePercent([]model.Keyword{{Word: "a", Weight: 3}, {Word: "b", Weight: 1}})
	if got[0].Weight != 75 || got[1].Weight != 25 {
		t.Fatalf("got %+v", got)
	}
	eq := NormalizePercent([]model.Keyword{{Word: "a", Weight: -1}, {Word: "b", Weight: 1}, {Word: "c", Weight: -0.5}})
	for _, k := range eq {
		if k.Weight != 100.0/3 {
			t.Fatalf("want equal shares, got %+v", eq)
		}
	}
	thirds := NormalizePercent([]model.Keyword{{Word: "a", Weight: 1}, {Word: "b", Weight: 1}, {Word: "c", Weight: 1}})
	sum := 0.0
	for _, k := range thirds {
		sum += k.Weight
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("shares sum to %v", sum)
	}
	if len(NormalizePercent(nil)) != 0 {
		t.Fatalf("nil input")
	}
}

func TestFirstToken(t *testing.T) {
	if FirstToken("  Food and drink ") != "Food" || FirstToken("") != "" {
		t.Fatalf("FirstToken broken")
	}
}

func testClusterer(e embed.Embedder) *Clusterer {
	sc := sentiment.Func(func(s string) float64 {
		if strings.Contains(s, "pizza") {
			return 0.8
		}
		return -0.8
	})
	return NewClusterer(e, sc, nil, nil, config.AnalysisConfig{MaxClusters: 10, TopKeywords: 10, Seed: 42})
}

func msgs(texts ...string) []model.Message {
	out := make([]model.Message, len(texts))
	for i, t := range texts {
		out[i] = model.Message{Author: model.Author{Name: "u"}, Content: t}
	}
	return out
}

func TestFavoriteTopicTooLittleText(t *testing.T) {
	c := testClusterer(embed.NewHashing(64))
	topic, err := c.FavoriteTopic(context.Background(), msgs("pizza", "the and", "https://x.com", "!!!"))
	if err != nil {
		t.Fatal(err)
	}
	if topic.Label != "" || topic.Keywords == nil || len(topic.Keywords) != 0 {
		t.Fatalf("expected empty topic, got %+v", topic)
	}
}

func TestFavoriteTopicPicksPositiveCluster(t *testing.T) {
	c := testClusterer(embed.NewHashing(256))
	in := msgs(
		"pizza pizza pizza tonight",
		"deadline deadline deadline report",
		"pizza pizza pizza later",
		"deadline deadline deadline meeting",
		"pizza pizza pizza yum",
		"deadline deadline deadline budget",
	)
	ctx := context.Background()
	topic, err := c.FavoriteTopic(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	allowed := map[string]bool{"pizza": true, "tonight": true, "later": true, "yum": true}
	if len(topic.Keywords) == 0 {
		t.Fatalf("no keywords")
	}
	sum := 0.0
	for _, k := range topic.Keywords {
		if !allowed[k.Word] {
			t.Fatalf("keyword %q from wrong cluster: %+v", k.Word, topic)
		}
		sum += k.Weight
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("weights sum to %v", sum)
	}
	if topic.Label != topic.Keywords[0].Word {
		t.Fatalf("label %q should be the top keyword", topic.Label)
	}
	again, err := c.FavoriteTopic(ctx, in)
	if err != nil || !reflect.DeepEqual(topic, again) {
		t.Fatalf("not reproducible: %+v vs %+v", topic, again)
	}

	a, ok, err := c.Analyze(ctx, in)
	if err != nil || !ok {
		t.Fatalf("analyze: %v %v", ok, err)
	}
	if a.K != 2 || len(a.Clusters) != 2 || a.Clusters[a.Favorite].Sentiment <= 0 {
		t.Fatalf("analysis: %+v", a)
	}
}

type failingEmbedder struct{ embed.Embedder }

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}
func (failingEmbedder) Dimensions() int { return 8 }

type upperLabeler struct{}

func (upperLabeler) Label(_ context.Context, kws []string) (string, error) {
	return strings.ToUpper(kws[0]) + " and more", nil
}

func TestFavoriteTopicPropagatesCapabilityErrors(t *testing.T) {
	c := testClusterer(failingEmbedder{})
	_, err := c.FavoriteTopic(context.Background(), msgs("pizza one", "pizza two", "pizza three"))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("want wrapped capability error, got %v", err)
	}
}

func TestFavoriteTopicUsesLabelerFirstToken(t *testing.T) {
	c := NewClusterer(embed.NewHashing(64), sentiment.Func(func(string) float64 { return 0 }), nil, upperLabeler{}, config.AnalysisConfig{Seed: 1})
	topic, err := c.FavoriteTopic(context.Background(), msgs("pizza night", "pizza again", "pizza forever"))
	if err != nil {
		t.Fatal(err)
	}
	if topic.Label == "" || strings.Contains(topic.Label, " ") || topic.Label != strings.ToUpper(topic.Label) {
		t.Fatalf("label=%q", topic.Label)
	}
}
