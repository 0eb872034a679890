package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/huygnguyen04/at-everyone/internal/logging"
	"github.com/huygnguyen04/at-everyone/internal/model"
	"github.com/huygnguyen04/at-everyone/internal/projection"
	"github.com/huygnguyen04/at-everyone/internal/store/sqlitevec"
)

// Store is the persistence used after a run.
type Store interface {
	PutProfile(ctx context.Context, runID string, p model.Profile, now time.Time) error
	PutRun(ctx context.Context, r sqlitevec.Run) error
	LoadVectors(ctx context.Context) ([]string, [][]float64, error)
	SaveProjection(ctx context.Context, username string, p [3]float64) error
}

// Persist upserts every profile of b, records the run and re-projects all
// stored profiles so coordinates stay comparable across runs.
func Persist(ctx context.Context, st Store, b Batch) error {
	for _, p := range b.Profiles {
		if err := st.PutProfile(ctx, b.RunID, p, b.FinishedAt); err != nil {
			return fmt.Errorf("store profile %q: %w", p.Username, err)
		}
	}
	if err := st.PutRun(ctx, sqlitevec.Run{
		ID:           b.RunID,
		StartedAt:    b.StartedAt,
		FinishedAt:   b.FinishedAt,
		Participants: len(b.Profiles),
	}); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	if len(b.Profiles) == 0 {
		return nil
	}
	n, err := Reproject(ctx, st)
	if err != nil {
		return err
	}
	logging.Info("persist_ok", map[string]any{"run_id": b.RunID, "profiles": len(b.Profiles), "reprojected": n})
	return nil
}

// Reproject recomputes the 3-D projection over every stored profile and
// returns how many were updated.
func Reproject(ctx context.Context, st Store) (int, error) {
	names, rows, err := st.LoadVectors(ctx)
	if err != nil {
		return 0, fmt.Errorf("load vectors: %w", err)
	}
	points, err := projection.Project(rows)
	if err != nil {
		return 0, fmt.Errorf("project stored profiles: %w", err)
	}
	for i, name := range names {
		if err := st.SaveProjection(ctx, name, points[i]); err != nil {
			return 0, fmt.Errorf("save projection %q: %w", name, err)
		}
	}
	return len(names), nil
}
