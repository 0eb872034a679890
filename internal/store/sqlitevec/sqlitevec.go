package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/huygnguyen04/at-everyone/internal/model"
)

// ErrNotFound is returned when no profile exists for a username.
var ErrNotFound = errors.New("sqlitevec: not found")

// DB wraps a SQLite database holding participant profiles and their vectors.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per-connection
	if path == ":memory:" {
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS profiles (
	  username TEXT PRIMARY KEY,
	  run_id TEXT NOT NULL,
	  label TEXT NOT NULL,
	  keywords TEXT NOT NULL,
	  stats TEXT NOT NULL,
	  vector BLOB NOT NULL,
	  projection BLOB,
	  updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
	  id TEXT PRIMARY KEY,
	  started_at INTEGER NOT NULL,
	  finished_at INTEGER NOT NULL,
	  participants INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	return err
}

// Record is a stored profile with its bookkeeping columns.
type Record struct {
	model.Profile
	RunID     string    `json:"runId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PutProfile inserts or replaces the profile for p.Username.
func (d *DB) PutProfile(ctx context.Context, runID string, p model.Profile, now time.Time) error {
	if p.Username == "" {
		return errors.New("sqlitevec: empty username")
	}
	kws := p.Topic.Keywords
	if kws == nil {
		kws = []model.Keyword{}
	}
	kb, err := json.Marshal(kws)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	sb, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	var proj []byte
	if p.Projection != nil {
		proj = encodeF64(p.Projection[:])
	}
	_, err = d.sql.ExecContext(ctx, `
	INSERT INTO profiles(username, run_id, label, keywords, stats, vector, projection, updated_at)
	VALUES(?,?,?,?,?,?,?,?)
	ON CONFLICT(username) DO UPDATE SET
	  run_id=excluded.run_id, label=excluded.label, keywords=excluded.keywords,
	  stats=excluded.stats, vector=excluded.vector, projection=excluded.projection,
	  updated_at=excluded.updated_at`,
		p.Username, runID, p.Topic.Label, string(kb), string(sb), encodeF64(p.Vector), proj, now.Unix())
	return err
}

const profileCols = `username, run_id, label, keywords, stats, vector, projection, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scanProfile(s scanner) (Record, error) {
	var (
		r          Record
		kws, stats string
		vec, proj  []byte
		updated    int64
	)
	if err := s.Scan(&r.Username, &r.RunID, &r.Topic.Label, &kws, &stats, &vec, &proj, &updated); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(kws), &r.Topic.Keywords); err != nil {
		return Record{}, fmt.Errorf("decode keywords for %q: %w", r.Username, err)
	}
	if r.Topic.Keywords == nil {
		r.Topic.Keywords = []model.Keyword{}
	}
	if err := json.Unmarshal([]byte(stats), &r.Stats); err != nil {
		return Record{}, fmt.Errorf("decode stats for %q: %w", r.Username, err)
	}
	r.Vector = decodeF64(vec)
	if proj != nil {
		p := decodeF64(proj)
		if len(p) != 3 {
			return Record{}, fmt.Errorf("decode projection for %q: %d values", r.Username, len(p))
		}
		r.Projection = &[3]float64{p[0], p[1], p[2]}
	}
	r.UpdatedAt = time.Unix(updated, 0).UTC()
	return r, nil
}

// GetProfile returns the stored profile for username or ErrNotFound.
func (d *DB) GetProfile(ctx context.Context, username string) (Record, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE username=?`, username)
	r, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return r, err
}

// ListProfiles returns every stored profile ordered by username.
func (d *DB) ListProfiles(ctx context.Context) ([]Record, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+profileCols+` FROM profiles ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadVectors returns usernames and feature vectors ordered by username.
func (d *DB) LoadVectors(ctx context.Context) ([]string, [][]float64, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT username, vector FROM profiles ORDER BY username`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var names []string
	var X [][]float64
	for rows.Next() {
		var name string
		var vb []byte
		if err := rows.Scan(&name, &vb); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		X = append(X, decodeF64(vb))
	}
	return names, X, rows.Err()
}

// SaveProjection sets the 3-D projection of an existing profile.
func (d *DB) SaveProjection(ctx context.Context, username string, p [3]float64) error {
	res, err := d.sql.ExecContext(ctx, `UPDATE profiles SET projection=? WHERE username=?`, encodeF64(p[:]), username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return nil
}

// Run records one batch execution.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Participants int
}

func (d *DB) PutRun(ctx context.Context, r Run) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO runs(id, started_at, finished_at, participants) VALUES(?,?,?,?)`,
		r.ID, r.StartedAt.Unix(), r.FinishedAt.Unix(), r.Participants)
	return err
}

// LatestRun returns the most recently started run.
func (d *DB) LatestRun(ctx context.Context) (Run, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT id, started_at, finished_at, participants FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	var r Run
	var s, f int64
	if err := row.Scan(&r.ID, &s, &f, &r.Participants); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	r.StartedAt = time.Unix(s, 0).UTC()
	r.FinishedAt = time.Unix(f, 0).UTC()
	return r, nil
}

// Vectors are stored as little-endian float32; values round-trip at float32
// precision.
func encodeF64(v []float64) []byte {
	b := make([]byte, 4*len(v))
	for i := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(float32(v[i])))
	}
	return b
}

func decodeF64(b []byte) []float64 {
	n := len(b) / 4
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return v
}
