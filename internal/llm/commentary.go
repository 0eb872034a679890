package llm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/huygnguyen04/at-everyone/internal/model"
)

const commentaryInstructions = "You are a helpful assistant narrating a year-in-review recap of someone's chat habits."

// Metric is one headline stat shown in a recap.
type Metric struct {
	Name  string `json:"metric"`
	Value string `json:"value"`
}

func (m Metric) String() string { return m.Name + ": " + m.Value }

// Comment is the generated line for a metric.
type Comment struct {
	Metric
	Text string `json:"commentary"`
}

// Commentator writes one-sentence commentary for profile stats.
type Commentator struct{ c *Client }

func NewCommentator(c *Client) *Commentator { return &Commentator{c: c} }

// Comment narrates a single metric in one sentence.
func (cm *Commentator) Comment(ctx context.Context, m Metric) (string, error) {
	prompt := fmt.Sprintf("Here is a chatting metric: %s. "+
		"Pretend you're narrating a Spotify Wrapped-style recap. "+
		"Provide a lively, fun commentary that highlights this stat in a personal way. "+
		"Be concise, but give it some personality. Make it one sentence long.", m)
	return cm.c.complete(ctx, request{
		endpoint:     "commentary",
		instructions: commentaryInstructions,
		input:        prompt,
		maxTokens:    100,
	})
}

// Wrapped comments on every headline metric of p, in HeadlineMetrics order.
func (cm *Commentator) Wrapped(ctx context.Context, p model.Profile) ([]Comment, error) {
	ms := HeadlineMetrics(p)
	out := make([]Comment, 0, len(ms))
	for _, m := range ms {
		text, err := cm.Comment(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("comment on %s: %w", m.Name, err)
		}
		out = append(out, Comment{Metric: m, Text: text})
	}
	return out, nil
}

// HeadlineMetrics picks the stats worth narrating. Metrics without data
// are skipped.
func HeadlineMetrics(p model.Profile) []Metric {
	st := p.Stats
	ms := []Metric{
		{"Total Messages", strconv.Itoa(st.Counts.Total)},
		{"Average Messages Per Day", strconv.FormatFloat(st.Activity.AvgPerDay, 'f', 2, 64)},
	}
	if st.Activity.LongestActiveStint != "" {
		ms = append(ms, Metric{"Longest Active Conversation", st.Activity.LongestActiveStint})
	}
	if st.Activity.LongestGap != "" {
		ms = append(ms, Metric{"Longest Period Without Messages", st.Activity.LongestGap})
	}
	if st.Time.Day.Count > 0 {
		ms = append(ms, Metric{"Most Active Day", fmt.Sprintf("%s (%d messages)", st.Time.Day.Key, st.Time.Day.Count)})
	}
	if st.TopEmoji.Count > 0 {
		ms = append(ms, Metric{"Most Used Emoji", fmt.Sprintf("%s (%d times)", st.TopEmoji.Emoji, st.TopEmoji.Count)})
	}
	if p.Topic.Label != "" {
		ms = append(ms, Metric{"Favorite Topic", p.Topic.Label})
	}
	for _, s := range []struct {
		name  string
		score *float64
		max   float64
		label string
	}{
		{"Dryness", st.Dryness, model.ScoreMax, st.DrynessLabel},
		{"Humor", st.Humor, model.HumorMax, st.HumorLabel},
		{"Romance", st.Romance, model.ScoreMax, st.RomanceLabel},
	} {
		if s.score == nil {
			continue
		}
		ms = append(ms, Metric{s.name, fmt.Sprintf("%.2f/%g, %s", *s.score, s.max, s.label)})
	}
	return ms
}
