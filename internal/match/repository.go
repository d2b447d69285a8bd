package match

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const createResultsTable = `CREATE TABLE IF NOT EXISTS clock_matches (
	code         TEXT PRIMARY KEY,
	preset_id    TEXT NOT NULL,
	preset_title TEXT NOT NULL,
	preset_type  INTEGER NOT NULL,
	players      TEXT NOT NULL,
	loser        TEXT NOT NULL,
	reason       TEXT NOT NULL,
	moves        INTEGER NOT NULL,
	started_at   TIMESTAMPTZ,
	ended_at     TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL,
	preset       JSONB
)`

// Repository keeps finished match results in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewRepositoryWithDB(db), nil
}

func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the results table when it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, createResultsTable)
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished match.
func (r *Repository) SaveResult(ctx context.Context, res Result) error {
	if r == nil || r.db == nil {
		return nil
	}
	var started any
	if !res.StartedAt.IsZero() {
		started = res.StartedAt
	}
	duration := int64(0)
	if !res.StartedAt.IsZero() {
		duration = max(0, res.EndedAt.Sub(res.StartedAt).Milliseconds())
	}
	var preset any
	if len(res.Preset) > 0 {
		preset = string(res.Preset)
	}

	q := `INSERT INTO clock_matches (
        code, preset_id, preset_title, preset_type, players, loser,
        reason, moves, started_at, ended_at, duration_ms, preset
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (code) DO UPDATE SET
        preset_id=EXCLUDED.preset_id,
        preset_title=EXCLUDED.preset_title,
        preset_type=EXCLUDED.preset_type,
        players=EXCLUDED.players,
        loser=EXCLUDED.loser,
        reason=EXCLUDED.reason,
        moves=EXCLUDED.moves,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms,
        preset=EXCLUDED.preset`

	_, err := r.db.ExecContext(ctx, q,
		res.Code, res.PresetID, res.PresetTitle, int(res.PresetType),
		strings.Join(res.Players, ","), res.LoserName(),
		res.Reason, res.Moves, started, res.EndedAt, duration, preset,
	)
	return err
}
