package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/features"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/sentiment"
	"github.com/huygnguyen04/at-everyone/internal/store/sqlitevec"
)

const dim = 32

func at(min int) string {
	return time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute).Format(time.RFC3339)
}

func transcriptFixture() []model.Message {
	var msgs []model.Message
	add := func(author, content string, min int) {
		msgs = append(msgs, model.Message{Author: model.Author{Name: author}, Content: content, Timestamp: at(min)})
	}
	dry := []string{"k", "hm", "noted", "mhm", "sent"}
	fun := []string{
		"lol that pizza was amazing!!",
		"haha best movie night ever 😂",
		"lmao the cat knocked over the pizza",
		"I love this show so much!",
		"xd cannot stop laughing at the trailer",
		"pizza again tomorrow? haha",
	}
	for i, c := range fun {
		add("ben", c, i*3)
		if i < len(dry) {
			add("dana", dry[i], i*3+1)
		}
	}
	for i := 0; i < 4; i++ {
		add("cal", "almost qualified", 30+i)
	}
	add("dana", "", 50)
	return msgs
}

func newRunner(e embed.Embedder) *Runner {
	return NewRunner(config.AnalysisConfig{MinMessages: 5, MaxClusters: 10, TopKeywords: 5, Seed: 42, Concurrency: 2},
		e, sentiment.NewVader(), nil)
}

func TestRunEndToEnd(t *testing.T) {
	b, err := newRunner(embed.NewHashing(dim)).Run(context.Background(), transcriptFixture())
	if err != nil {
		t.Fatal(err)
	}
	if b.RunID == "" || b.FinishedAt.Before(b.StartedAt) {
		t.Fatalf("batch metadata: %+v", b)
	}
	if len(b.Profiles) != 2 || b.Profiles[0].Username != "ben" || b.Profiles[1].Username != "dana" {
		t.Fatalf("profiles: %d", len(b.Profiles))
	}
	for _, p := range b.Profiles {
		if len(p.Vector) != features.Len(dim) {
			t.Fatalf("%s vector len %d", p.Username, len(p.Vector))
		}
		if p.Projection == nil {
			t.Fatalf("%s has no projection", p.Username)
		}
	}

	dana := b.Profiles[1].Stats
	if dana.Counts.Total != 6 || dana.Counts.WithText != 5 {
		t.Fatalf("dana counts: %+v", dana.Counts)
	}
	if dana.Dryness == nil || *dana.Dryness < 9 || dana.DrynessLabel != model.DrynessLabel(dana.Dryness) {
		t.Fatalf("dana dryness: %v %q", dana.Dryness, dana.DrynessLabel)
	}
	if dana.DrynessLabel != "Bone Dry (Sahara level)" {
		t.Fatalf("dana dryness label %q", dana.DrynessLabel)
	}
	if dana.Humor == nil || *dana.Humor != 3 || dana.HumorLabel != "Mildly Amusing" {
		t.Fatalf("dana humor: %v %q", dana.Humor, dana.HumorLabel)
	}
	if dana.Romance == nil || *dana.Romance >= 3 || dana.RomanceLabel != "Cold as ice (no romance)" {
		t.Fatalf("dana romance: %v %q", dana.Romance, dana.RomanceLabel)
	}

	ben := b.Profiles[0]
	if ben.Topic.Empty() || ben.Topic.Label == "" {
		t.Fatalf("ben should have a topic: %+v", ben.Topic)
	}
	if *ben.Stats.Humor <= *dana.Humor {
		t.Fatalf("ben should be funnier than dana")
	}
}

func TestRunIsReproducible(t *testing.T) {
	r := newRunner(embed.NewHashing(dim))
	a, err := r.Run(context.Background(), transcriptFixture())
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Run(context.Background(), transcriptFixture())
	if err != nil {
		t.Fatal(err)
	}
	if a.RunID == b.RunID {
		t.Fatalf("run IDs should differ")
	}
	if !reflect.DeepEqual(a.Profiles, b.Profiles) {
		t.Fatalf("profiles differ between runs")
	}
}

func TestRunNoQualifyingParticipants(t *testing.T) {
	msgs := []model.Message{{Author: model.Author{Name: "solo"}, Content: "hi"}}
	b, err := newRunner(embed.NewHashing(dim)).Run(context.Background(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Profiles) != 0 {
		t.Fatalf("profiles: %+v", b.Profiles)
	}
}

func TestAnalyzeUser(t *testing.T) {
	r := newRunner(embed.NewHashing(dim))
	p, err := r.AnalyzeUser(context.Background(), transcriptFixture(), "cal")
	if err != nil {
		t.Fatal(err)
	}
	if p.Username != "cal" || p.Stats.Counts.Total != 4 || p.Projection != nil || len(p.Vector) != features.Len(dim) {
		t.Fatalf("cal: %+v", p)
	}
	if _, err := r.AnalyzeUser(context.Background(), transcriptFixture(), "nobody"); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("want ErrNoMessages, got %v", err)
	}
}

type brokenEmbedder struct{ embed.Embedder }

func (brokenEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("service unavailable")
}
func (brokenEmbedder) Dimensions() int { return dim }

func TestRunPropagatesCapabilityFailure(t *testing.T) {
	_, err := newRunner(brokenEmbedder{}).Run(context.Background(), transcriptFixture())
	if err == nil || !strings.Contains(err.Error(), "service unavailable") || !strings.Contains(err.Error(), "analyze") {
		t.Fatalf("err=%v", err)
	}
}

func TestPersistReprojectsStore(t *testing.T) {
	db, err := sqlitevec.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	b, err := newRunner(embed.NewHashing(dim)).Run(ctx, transcriptFixture())
	if err != nil {
		t.Fatal(err)
	}
	if err := Persist(ctx, db, b); err != nil {
		t.Fatal(err)
	}
	stored, err := db.ListProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d", len(stored))
	}
	for _, r := range stored {
		if r.RunID != b.RunID || r.Projection == nil || len(r.Vector) != features.Len(dim) {
			t.Fatalf("record: %+v", r)
		}
	}
	run, err := db.LatestRun(ctx)
	if err != nil || run.ID != b.RunID || run.Participants != 2 {
		t.Fatalf("run: %+v %v", run, err)
	}
	n, err := Reproject(ctx, db)
	if err != nil || n != 2 {
		t.Fatalf("reproject: %d %v", n, err)
	}
}
