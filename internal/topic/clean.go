// Package topic finds a participant's favorite topic by clustering message
// embeddings and ranking clusters by TF-IDF weight and sentiment.
package topic

import (
	"regexp"
	"strings"

	"github.com/huygnguyen04/at-everyone/internal/util"
)

var (
	urlRe      = regexp.MustCompile(`http\S+|www\.\S+`)
	nonAlphaRe = regexp.MustCompile(`[^a-z\s]`)
)

// Clean lowercases text, strips URLs and every non a-z character, and drops
// English stopwords.
func Clean(text string) []string {
	s := util.Fold(text)
	s = urlRe.ReplaceAllString(s, "")
	s = nonAlphaRe.ReplaceAllString(s, "")
	var out []string
	for _, w := range strings.Fields(s) {
		if _, stop := util.EnglishStopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}
