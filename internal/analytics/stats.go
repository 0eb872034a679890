package analytics

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/relvacode/iso8601"

	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/sentiment"
	"github.com/huygnguyen04/at-everyone/internal/util"
)

// SessionGap is the largest pause that still continues a conversation.
const SessionGap = 10 * time.Minute

const twemojiBase = "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/svg/"

type attachmentKind int

const (
	kindOther attachmentKind = iota
	kindImage
	kindGIF
	kindVideo
	kindAudio
	kindDocument
)

var attachmentKinds = map[string]attachmentKind{
	".png": kindImage, ".jpg": kindImage, ".jpeg": kindImage,
	".gif": kindGIF,
	".mp4": kindVideo, ".webm": kindVideo, ".mov": kindVideo, ".avi": kindVideo,
	".mp3": kindAudio, ".wav": kindAudio, ".ogg": kindAudio, ".flac": kindAudio,
	".pdf": kindDocument, ".doc": kindDocument, ".docx": kindDocument,
	".xls": kindDocument, ".xlsx": kindDocument, ".ppt": kindDocument, ".pptx": kindDocument,
}

func classifyAttachment(name string) attachmentKind {
	if k, ok := attachmentKinds[strings.ToLower(path.Ext(name))]; ok {
		return k
	}
	return kindOther
}

// fallbackLayouts cover forms seen in exports that a general ISO-8601
// parser may reject: space separators, offsets without a colon, minute
// precision and the compact basic format.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"20060102T150405.999999999Z0700",
	"20060102T150405",
	"20060102",
	"2006-01-02",
}

// ParseTimestamp reads RFC 3339 first, then lenient ISO-8601. Timestamps
// without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := iso8601.ParseString(s); err == nil {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Aggregate computes the behavioral profile of one participant's messages
// in a single pass. sc supplies the compound sentiment used by the
// dryness and romance heuristics.
func Aggregate(msgs []model.Message, sc sentiment.Scorer) model.Stats {
	var st model.Stats
	st.Counts.Total = len(msgs)

	var times []time.Time
	years, months, days, hours := newTally(), newTally(), newTally(), newTally()
	textEmoji, inlineEmoji := newTally(), newTally()
	inlineURL := make(map[string]string)
	reactionNames := make(map[string]struct{})
	unique := make(map[string]struct{})

	var dry, humor, romance float64
	scored := 0

	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content != "" {
			st.Counts.WithText++
			if util.HasLink(content) {
				st.Counts.WithLinks++
			}
			for _, w := range util.Words(strings.ToLower(content)) {
				if _, stop := util.StatsStopwords[w]; stop {
					continue
				}
				st.Words.Total++
				unique[w] = struct{}{}
			}

			c := sc.Compound(content)
			dry += model.DrynessScore(content, c)
			humor += model.HumorScore(content)
			romance += model.RomanceScore(content, c)
			scored++
		}

		for _, a := range m.Attachments {
			if a.FileName == "" {
				continue
			}
			switch classifyAttachment(a.FileName) {
			case kindImage:
				st.Counts.Images++
			case kindGIF:
				st.Counts.GIFs++
			case kindVideo:
				st.Counts.Videos++
			case kindAudio:
				st.Counts.Audio++
			case kindDocument:
				st.Counts.Documents++
			default:
				st.Counts.Other++
			}
		}
		if len(m.Stickers) > 0 {
			st.Counts.Stickers++
		}
		if m.Edited() {
			st.Counts.Edited++
		}

		emojiInMsg := 0
		for _, e := range util.Emojis(content) {
			textEmoji.add(e)
			emojiInMsg++
		}
		for _, ie := range m.InlineEmojis {
			if ie.Name == "" {
				continue
			}
			inlineEmoji.add(ie.Name)
			if _, ok := inlineURL[ie.Name]; !ok {
				inlineURL[ie.Name] = ie.ImageURL
			}
			emojiInMsg++
		}
		st.Emoji.Total += emojiInMsg
		if emojiInMsg > 0 {
			st.Emoji.MessagesWithEmoji++
		}

		reacted := false
		for _, r := range m.Reactions {
			if r.Count <= 0 {
				continue
			}
			st.Emoji.ReactionTotal += r.Count
			if r.Emoji.Name != "" {
				reactionNames[r.Emoji.Name] = struct{}{}
			}
			reacted = true
		}
		if reacted {
			st.Emoji.MessagesWithReaction++
		}

		ts, err := ParseTimestamp(m.Timestamp)
		if err != nil {
			continue
		}
		times = append(times, ts)
		years.add(ts.Format(YearLayout))
		months.add(ts.Format(MonthLayout))
		days.add(ts.Format(DayLayout))
		hours.add(ts.Format(HourLayout))
	}

	st.Emoji.ReactionUnique = len(reactionNames)
	st.Words.Unique = len(unique)
	if st.Counts.WithText > 0 {
		st.Words.AvgPerMsg = model.Round3(float64(st.Words.Total) / float64(st.Counts.WithText))
	}

	st.Time = model.TimeDetails{
		Year:  years.topOr(model.EmptyBucket),
		Month: months.topOr(model.EmptyBucket),
		Day:   days.topOr(model.EmptyBucket),
		Hour:  hours.topOr(model.EmptyBucket),
	}
	st.Activity = activity(st.Counts.Total, times)
	st.TopEmoji = topEmoji(textEmoji, inlineEmoji, inlineURL)

	if scored > 0 {
		n := float64(scored)
		d := model.ScaleScore(dry / n)
		h := model.ScaleHumor(humor / n)
		r := model.ScaleScore(romance / n)
		st.Dryness, st.Humor, st.Romance = &d, &h, &r
	}
	st.DrynessLabel = model.DrynessLabel(st.Dryness)
	st.HumorLabel = model.HumorLabel(st.Humor)
	st.RomanceLabel = model.RomanceLabel(st.Romance)
	return st
}

func activity(total int, times []time.Time) model.ActivityMetrics {
	out := model.ActivityMetrics{
		LongestGap:         FormatDuration(0),
		LongestActiveStint: FormatDuration(0),
	}
	if len(times) == 0 {
		return out
	}
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	span := sorted[len(sorted)-1].Sub(sorted[0])
	totalDays := int(span/(24*time.Hour)) + 1
	out.AvgPerDay = model.Round3(float64(total) / float64(totalDays))

	out.LongestGap = FormatDuration(LongestGap(sorted))
	out.LongestActiveStint = FormatDuration(LongestSession(sorted, SessionGap))
	return out
}

// LongestGap returns the largest pause between consecutive sorted timestamps.
func LongestGap(sorted []time.Time) time.Duration {
	var best time.Duration
	for i := 1; i < len(sorted); i++ {
		if d := sorted[i].Sub(sorted[i-1]); d > best {
			best = d
		}
	}
	return best
}

// LongestSession merges sorted timestamps into sessions while consecutive
// gaps are at most maxGap and returns the longest session's duration.
func LongestSession(sorted []time.Time, maxGap time.Duration) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	var best time.Duration
	start, last := sorted[0], sorted[0]
	for _, ts := range sorted[1:] {
		if ts.Sub(last) <= maxGap {
			last = ts
			continue
		}
		if d := last.Sub(start); d > best {
			best = d
		}
		start, last = ts, ts
	}
	if d := last.Sub(start); d > best {
		best = d
	}
	return best
}

func topEmoji(text, inline *tally, inlineURL map[string]string) model.TopEmoji {
	tb, tok := text.top()
	ib, iok := inline.top()
	switch {
	case tok && (!iok || tb.Count >= ib.Count):
		return model.TopEmoji{Emoji: tb.Key, Count: tb.Count, ImageURL: TwemojiURL(tb.Key)}
	case iok:
		return model.TopEmoji{Emoji: ib.Key, Count: ib.Count, ImageURL: inlineURL[ib.Key]}
	}
	return model.TopEmoji{}
}

// TwemojiURL returns the Twemoji SVG for an emoji sequence.
func TwemojiURL(emoji string) string {
	parts := make([]string, 0, 4)
	for _, r := range emoji {
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return twemojiBase + strings.Join(parts, "-") + ".svg"
}
