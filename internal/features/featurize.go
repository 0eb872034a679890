package features

import (
	"context"
	"fmt"

	"github.com/huygnguyen04/at-everyone/internal/analytics"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/model"
)

// ScalarCount is the number of stat features appended after the label
// embedding.
const ScalarCount = 12

// ScalarNames lists the stat features in vector order.
var ScalarNames = [ScalarCount]string{
	"total_messages",
	"average_messages_per_day",
	"longest_active_conversation_seconds",
	"longest_period_without_messages_seconds",
	"dryness",
	"humor",
	"messages_with_emoji",
	"most_used_emoji_count",
	"average_words_per_message",
	"total_meaningful_words",
	"unique_words_used",
	"most_active_day_count",
}

// Len is the vector length produced for an embedder of dimension dim.
func Len(dim int) int { return dim + ScalarCount }

// Build concatenates the embedding of the topic label with the stat
// features. An empty label embeds to zeros without calling e.
func Build(ctx context.Context, e embed.Embedder, topic model.Topic, st model.Stats) ([]float64, error) {
	dim := e.Dimensions()
	label := make([]float32, dim)
	if topic.Label != "" {
		vecs, err := e.Embed(ctx, []string{topic.Label})
		if err != nil {
			return nil, fmt.Errorf("embed topic label: %w", err)
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embed topic label: got %d vectors", len(vecs))
		}
		label = embed.Fit(vecs[0], dim)
	}
	scalars, err := Scalars(st)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, Len(dim))
	out = append(out, embed.ToFloat64(label)...)
	out = append(out, scalars[:]...)
	return out, nil
}

// Scalars extracts the stat features in ScalarNames order. Missing values
// are 0; a malformed duration is an error.
func Scalars(st model.Stats) ([ScalarCount]float64, error) {
	var x [ScalarCount]float64
	active, err := seconds(st.Activity.LongestActiveStint)
	if err != nil {
		return x, fmt.Errorf("longest active conversation: %w", err)
	}
	gap, err := seconds(st.Activity.LongestGap)
	if err != nil {
		return x, fmt.Errorf("longest period without messages: %w", err)
	}
	x[0] = float64(st.Counts.Total)
	x[1] = st.Activity.AvgPerDay
	x[2] = active
	x[3] = gap
	x[4] = deref(st.Dryness)
	x[5] = deref(st.Humor)
	x[6] = float64(st.Emoji.MessagesWithEmoji)
	x[7] = float64(st.TopEmoji.Count)
	x[8] = st.Words.AvgPerMsg
	x[9] = float64(st.Words.Total)
	x[10] = float64(st.Words.Unique)
	x[11] = float64(st.Time.Day.Count)
	return x, nil
}

func seconds(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := analytics.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
