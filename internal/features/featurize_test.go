package features

import (
	"context"
	"errors"
	"testing"

	"github.com/huygnguyen04/at-everyone/internal/analytics"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/model"
)

type countingEmbedder struct {
	dim   int
	calls int
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, c.dim+3) // longer than declared; must be truncated
		out[i][0] = 1
	}
	return out, nil
}
func (c *countingEmbedder) Dimensions() int { return c.dim }
func (c *countingEmbedder) Name() string    { return "counting" }

func sampleStats() model.Stats {
	dry, humor := 9.9, 3.0
	var st model.Stats
	st.Counts.Total = 40
	st.Activity.AvgPerDay = 2.5
	st.Activity.LongestActiveStint = "0 days, 1 hours, and 30 minutes"
	st.Activity.LongestGap = "1 days, 1 hours, and 1 minutes"
	st.Dryness = &dry
	st.Humor = &humor
	st.Emoji.MessagesWithEmoji = 7
	st.TopEmoji.Count = 4
	st.Words.AvgPerMsg = 3.25
	st.Words.Total = 130
	st.Words.Unique = 60
	st.Time.Day = model.Bucket{Key: "2024-01-01", Count: 12}
	return st
}

func TestBuildLayout(t *testing.T) {
	e := &countingEmbedder{dim: 8}
	v, err := Build(context.Background(), e, model.Topic{Label: "food"}, sampleStats())
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != Len(8) || len(v) != 20 {
		t.Fatalf("len=%d", len(v))
	}
	if v[0] != 1 {
		t.Fatalf("label embedding missing")
	}
	want := []float64{40, 2.5, 5400, 90060, 9.9, 3, 7, 4, 3.25, 130, 60, 12}
	for i, w := range want {
		if v[8+i] != w {
			t.Fatalf("%s: got %v want %v", ScalarNames[i], v[8+i], w)
		}
	}
}

func TestBuildEmptyTopicAndMissingValues(t *testing.T) {
	e := &countingEmbedder{dim: 4}
	v, err := Build(context.Background(), e, model.EmptyTopic(), model.Stats{})
	if err != nil {
		t.Fatal(err)
	}
	if e.calls != 0 {
		t.Fatalf("empty label should not be embedded")
	}
	if len(v) != Len(4) {
		t.Fatalf("len=%d", len(v))
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("index %d should be 0, got %v", i, x)
		}
	}
}

func TestBuildMalformedDuration(t *testing.T) {
	st := sampleStats()
	st.Activity.LongestGap = "forever"
	_, err := Build(context.Background(), embed.NewHashing(4), model.Topic{}, st)
	if !errors.Is(err, analytics.ErrFormat) {
		t.Fatalf("want ErrFormat, got %v", err)
	}
}
