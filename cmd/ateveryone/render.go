package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/huygnguyen04/at-everyone/internal/analytics"
	"github.com/huygnguyen04/at-everyone/internal/llm"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/store/sqlitevec"
	"github.com/huygnguyen04/at-everyone/internal/transcript"
)

func renderUsers(w io.Writer, msgs []model.Message, names []string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"#", "Username", "Messages", "With Text"})
	for i, n := range names {
		own := transcript.ForUser(msgs, n)
		withText := 0
		for _, m := range own {
			if strings.TrimSpace(m.Content) != "" {
				withText++
			}
		}
		t.Append([]string{strconv.Itoa(i + 1), n, strconv.Itoa(len(own)), strconv.Itoa(withText)})
	}
	t.Render()
	fmt.Fprintf(w, "%d qualifying participants\n", len(names))
}

func renderProfile(w io.Writer, r sqlitevec.Record) {
	fmt.Fprintf(w, "%s (run %s, updated %s)\n\n", r.Username, r.RunID, r.UpdatedAt.Format("2006-01-02 15:04"))

	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Metric", "Value"})
	t.SetAutoWrapText(false)
	for _, m := range llm.HeadlineMetrics(r.Profile) {
		t.Append([]string{m.Name, m.Value})
	}
	t.Render()

	if len(r.Topic.Keywords) == 0 {
		fmt.Fprintln(w, "\nNot enough text for a favorite topic.")
		return
	}
	fmt.Fprintf(w, "\nFavorite topic: %s\n", r.Topic.Label)
	k := tablewriter.NewWriter(w)
	k.SetHeader([]string{"Keyword", "Weight %"})
	for _, kw := range r.Topic.Keywords {
		k.Append([]string{kw.Word, strconv.FormatFloat(kw.Weight, 'f', 2, 64)})
	}
	k.Render()
}

func renderProjection(w io.Writer, recs []sqlitevec.Record) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Username", "Topic", "X", "Y", "Z"})
	for _, r := range recs {
		row := []string{r.Username, r.Topic.Label, "", "", ""}
		if r.Projection != nil {
			for i, v := range r.Projection {
				row[2+i] = strconv.FormatFloat(v, 'f', 3, 64)
			}
		}
		t.Append(row)
	}
	t.Render()
}

// writeLatestRun prints a one-line summary of the most recent run, or
// nothing when no run is stored yet.
func writeLatestRun(ctx context.Context, w io.Writer, db *sqlitevec.DB) error {
	r, err := db.LatestRun(ctx)
	if errors.Is(err, sqlitevec.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Latest run %s: %d participants, finished %s (took %s)\n",
		r.ID, r.Participants, r.FinishedAt.Format("2006-01-02 15:04"), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return nil
}

func renderActivity(w io.Writer, days map[time.Time]int) {
	keys := analytics.SortedBucketKeys(days)
	peak := 0
	for _, k := range keys {
		if days[k] > peak {
			peak = days[k]
		}
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Day", "Messages", ""})
	for _, k := range keys {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", (days[k]*20+peak-1)/peak)
		}
		t.Append([]string{k.Format(analytics.DayLayout), strconv.Itoa(days[k]), bar})
	}
	t.Render()
}
