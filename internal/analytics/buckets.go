package analytics

import (
	"sort"
	"time"

	"github.com/huygnguyen04/at-everyone/internal/model"
)

// Bucket layouts; each timestamp is bucketed in its own offset.
const (
	YearLayout  = "2006"
	MonthLayout = "2006-01"
	DayLayout   = "2006-01-02"
	HourLayout  = "2006-01-02 03 PM"
)

// tally counts keys and remembers first-seen order for tie-breaking.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally { return &tally{counts: make(map[string]int)} }

func (t *tally) add(key string) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// top returns the highest count; ties go to the key seen first.
func (t *tally) top() (model.Bucket, bool) {
	best := model.Bucket{}
	found := false
	for _, k := range t.order {
		if c := t.counts[k]; !found || c > best.Count {
			best = model.Bucket{Key: k, Count: c}
			found = true
		}
	}
	return best, found
}

func (t *tally) topOr(fallback model.Bucket) model.Bucket {
	if b, ok := t.top(); ok {
		return b
	}
	return fallback
}

// DailyActivity aggregates timestamps into per-day buckets (UTC).
// Messages with unparseable timestamps are skipped.
func DailyActivity(msgs []model.Message) map[time.Time]int {
	buckets := make(map[time.Time]int)
	for _, m := range msgs {
		ts, err := ParseTimestamp(m.Timestamp)
		if err != nil {
			continue
		}
		u := ts.UTC()
		key := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		buckets[key]++
	}
	return buckets
}

// SortedBucketKeys returns sorted day keys.
func SortedBucketKeys(m map[time.Time]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
