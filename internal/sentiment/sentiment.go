// Package sentiment scores text polarity on the VADER compound scale [-1,1].
package sentiment

import (
	"github.com/jonreiter/govader"
)

// Scorer returns a compound polarity in [-1,1] for a piece of text.
type Scorer interface {
	Compound(text string) float64
}

// Func adapts a plain function to Scorer.
type Func func(string) float64

func (f Func) Compound(text string) float64 { return f(text) }

// Vader scores text with the full VADER lexicon and rules. The analyzer
// only reads its tables after construction, so one Vader may be shared
// across goroutines.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader loads the lexicon and emoji tables. Construction parses both
// files, so build one per process.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Compound implements Scorer.
func (v *Vader) Compound(text string) float64 {
	return v.sia.PolarityScores(text).Compound
}
