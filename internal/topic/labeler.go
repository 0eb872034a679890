package topic

import (
	"context"
	"strings"
)

// Labeler names a topic from its keywords.
type Labeler interface {
	Label(ctx context.Context, keywords []string) (string, error)
}

// FirstKeywordLabeler uses the top keyword as the label. It is the offline
// fallback when no LLM is configured.
type FirstKeywordLabeler struct{}

func (FirstKeywordLabeler) Label(_ context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}
	return keywords[0], nil
}

// FirstToken keeps only the first whitespace-separated token of a label.
func FirstToken(label string) string {
	f := strings.Fields(label)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
