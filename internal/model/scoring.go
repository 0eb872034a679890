package model

import (
	"math"
	"strings"

	"github.com/huygnguyen04/at-everyone/internal/util"
)

var (
	laughKeywords   = []string{"lol", "haha", "lmao", "rofl", "xd"}
	romanceKeywords = []string{
		"love", "loved", "loving", "adorable", "adore", "sweetheart", "dear",
		"darling", "romance", "romantic", "passion", "infatuation", "amour",
	}
	heartEmojis = []string{"❤️", "😍", "😘", "💕", "💖", "💗", "💘", "💝"}
)

// DrynessScore estimates how dry a message reads [0,1]. Higher is drier.
// Short, flat, unpunctuated messages score high.
func DrynessScore(text string, compound float64) float64 {
	wc := float64(util.WordCount(text))
	length := 1 / (1 + math.Exp((wc-10)/2))
	punct := 1.0
	if strings.ContainsAny(text, "!?") {
		punct = 0.8
	}
	return clamp01(length * punct * (1 - math.Abs(compound)))
}

// HumorScore estimates how funny a message is [0,1].
func HumorScore(text string) float64 {
	wc := float64(util.WordCount(text))
	laughs := util.CountAll(strings.ToLower(text), laughKeywords)
	bangs := strings.Count(text, "!")
	emoji := util.EmojiCount(text)
	raw := float64(2*laughs+bangs+emoji) / (wc/2 + 1) * 1.5
	return clamp01(raw)
}

// RomanceScore estimates how affectionate a message is [0,1].
func RomanceScore(text string, compound float64) float64 {
	wc := util.WordCount(text)
	if wc == 0 {
		return 0
	}
	kw := float64(util.CountAll(strings.ToLower(text), romanceKeywords))
	hearts := float64(util.CountAll(text, heartEmojis))
	pos := 0.0
	if compound > 0.5 {
		pos = compound
	}
	return clamp01(3 * (kw + 0.5*hearts + pos) / float64(wc))
}

// Upper ends of the final scales.
const (
	ScoreMax = 10.0
	HumorMax = 12.0
)

// ScaleScore maps an average raw score in [0,1] onto the 1..10 scale.
func ScaleScore(avg float64) float64 { return Round2(avg*9 + 1) }

// ScaleHumor is ScaleScore shifted up by two, so humor spans 3..12.
func ScaleHumor(avg float64) float64 { return Round2(ScaleScore(avg) + 2) }

type tier struct {
	min   float64
	label string
}

var (
	drynessTiers = []tier{
		{9, "Bone Dry (Sahara level)"},
		{7, "Desert Dry"},
		{5, "Parched"},
		{3, "Somewhat Moist"},
		{math.Inf(-1), "Hydrated (Not dry at all)"},
	}
	humorTiers = []tier{
		{9, "Hilarious (Netflix special worthy)"},
		{7, "Very Funny (Stand-up gold)"},
		{5, "Decent Chuckles"},
		{3, "Mildly Amusing"},
		{math.Inf(-1), "Not Funny (Better stick to memes)"},
	}
	romanceTiers = []tier{
		{9, "Passionate (swoon-worthy)"},
		{7, "Romantic (but not a poet)"},
		{5, "Somewhat Affectionate"},
		{3, "Reserved (like a guarded heart)"},
		{math.Inf(-1), "Cold as ice (no romance)"},
	}
)

// NoDataLabel is used when a participant has no scorable text.
const NoDataLabel = "No Data"

func label(score *float64, tiers []tier) string {
	if score == nil {
		return NoDataLabel
	}
	for _, t := range tiers {
		if *score >= t.min {
			return t.label
		}
	}
	return tiers[len(tiers)-1].label
}

func DrynessLabel(score *float64) string { return label(score, drynessTiers) }
func HumorLabel(score *float64) string   { return label(score, humorTiers) }
func RomanceLabel(score *float64) string { return label(score, romanceTiers) }

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }

// Round3 rounds half away from zero to three decimals.
func Round3(x float64) float64 { return math.Round(x*1000) / 1000 }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
