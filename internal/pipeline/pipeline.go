// Package pipeline runs the per-participant analysis over a transcript and
// projects the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/huygnguyen04/at-everyone/internal/analytics"
	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/embed"
	"github.com/huygnguyen04/at-everyone/internal/features"
	"github.com/huygnguyen04/at-everyone/internal/logging"
	"github.com/huygnguyen04/at-everyone/internal/metrics"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/projection"
	"github.com/huygnguyen04/at-everyone/internal/sentiment"
	"github.com/huygnguyen04/at-everyone/internal/topic"
	"github.com/huygnguyen04/at-everyone/internal/transcript"
)

// ErrNoMessages is returned when a requested participant authored nothing.
var ErrNoMessages = errors.New("no messages for participant")

// Batch is the result of one run over a transcript.
type Batch struct {
	RunID      string          `json:"runId"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Profiles   []model.Profile `json:"profiles"`
}

type Runner struct {
	embedder    embed.Embedder
	sentiment   sentiment.Scorer
	clusterer   *topic.Clusterer
	minMessages int
	concurrency int
	now         func() time.Time
}

// NewRunner wires the analysis stages. A nil labeler labels topics with
// their top keyword.
func NewRunner(cfg config.AnalysisConfig, e embed.Embedder, sc sentiment.Scorer, lb topic.Labeler) *Runner {
	if cfg.MinMessages <= 0 {
		cfg.MinMessages = transcript.DefaultMinMessages
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Runner{
		embedder:    e,
		sentiment:   sc,
		clusterer:   topic.NewClusterer(e, sc, nil, lb, cfg),
		minMessages: cfg.MinMessages,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}
}

// Run analyzes every qualifying participant and projects their vectors.
// Profiles follow first-appearance order of the participants.
func (r *Runner) Run(ctx context.Context, msgs []model.Message) (Batch, error) {
	metrics.PipelineRuns.Inc()
	b, err := r.run(ctx, msgs)
	if err != nil {
		metrics.PipelineErrors.Inc()
		logging.Error("pipeline_run_error", map[string]any{"error": err.Error()})
		return Batch{}, err
	}
	logging.Info("pipeline_run_ok", map[string]any{
		"run_id":       b.RunID,
		"participants": len(b.Profiles),
		"elapsed_ms":   b.FinishedAt.Sub(b.StartedAt).Milliseconds(),
	})
	return b, nil
}

func (r *Runner) run(ctx context.Context, msgs []model.Message) (Batch, error) {
	b := Batch{RunID: uuid.NewString(), StartedAt: r.now().UTC()}
	users := transcript.QualifyingUsernames(msgs, r.minMessages)
	profiles := make([]model.Profile, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, u := range users {
		i, u := i, u
		g.Go(func() error {
			p, err := r.analyze(gctx, transcript.ForUser(msgs, u), u)
			if err != nil {
				return fmt.Errorf("analyze %q: %w", u, err)
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}
	metrics.ParticipantsAnalyzed.Add(float64(len(profiles)))

	if len(profiles) > 0 {
		start := time.Now()
		rows := make([][]float64, len(profiles))
		for i := range profiles {
			rows[i] = profiles[i].Vector
		}
		points, err := projection.Project(rows)
		if err != nil {
			return Batch{}, fmt.Errorf("project batch: %w", err)
		}
		for i := range profiles {
			p := points[i]
			profiles[i].Projection = &p
		}
		metrics.ObserveStage("project", start)
	}
	b.Profiles = profiles
	b.FinishedAt = r.now().UTC()
	return b, nil
}

// AnalyzeUser builds the profile of a single participant without
// projecting it.
func (r *Runner) AnalyzeUser(ctx context.Context, msgs []model.Message, username string) (model.Profile, error) {
	own := transcript.ForUser(msgs, username)
	if len(own) == 0 {
		return model.Profile{}, fmt.Errorf("%w: %s", ErrNoMessages, username)
	}
	return r.analyze(ctx, own, username)
}

func (r *Runner) analyze(ctx context.Context, own []model.Message, username string) (model.Profile, error) {
	start := time.Now()
	st := analytics.Aggregate(own, r.sentiment)
	metrics.ObserveStage("stats", start)

	start = time.Now()
	tp, err := r.clusterer.FavoriteTopic(ctx, own)
	if err != nil {
		return model.Profile{}, err
	}
	metrics.ObserveStage("topic", start)

	start = time.Now()
	vec, err := features.Build(ctx, r.embedder, tp, st)
	if err != nil {
		return model.Profile{}, fmt.Errorf("build features: %w", err)
	}
	metrics.ObserveStage("features", start)

	return model.Profile{Username: username, Stats: st, Topic: tp, Vector: vec}, nil
}
