package topic

import (
	"fmt"
	"math"
	"regexp"

	"github.com/james-bowman/nlp"
)

// termRe keeps runs of two or more word characters; single letters such as
// "u" or "x" are not terms.
var termRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// TFIDFScores weighs each document against the others and returns, per
// document, the sum of its L2-normalised TF-IDF row. IDF is smoothed:
// ln((1+n)/(1+df)) + 1.
func TFIDFScores(docs []string) ([]float64, error) {
	scores := make([]float64, len(docs))
	if len(docs) == 0 {
		return scores, nil
	}
	vectoriser := nlp.NewCountVectoriser()
	vectoriser.Tokeniser = &nlp.RegExpTokeniser{RegExp: termRe}
	counts, err := vectoriser.FitTransform(docs...)
	if err != nil {
		return nil, fmt.Errorf("count terms: %w", err)
	}
	// rows are terms, columns are documents
	terms, n := counts.Dims()
	if terms == 0 {
		return scores, nil
	}
	idf := make([]float64, terms)
	for t := 0; t < terms; t++ {
		df := 0
		for d := 0; d < n; d++ {
			if counts.At(t, d) > 0 {
				df++
			}
		}
		idf[t] = math.Log(float64(1+n)/float64(1+df)) + 1
	}
	row := make([]float64, terms)
	for d := 0; d < n; d++ {
		norm := 0.0
		for t := 0; t < terms; t++ {
			row[t] = counts.At(t, d) * idf[t]
			norm += row[t] * row[t]
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		sum := 0.0
		for t := 0; t < terms; t++ {
			sum += row[t] / norm
		}
		scores[d] = sum
	}
	return scores, nil
}
