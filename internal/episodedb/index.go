package episodedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
)

// ErrEmptyPath is returned by Open for an empty database path.
var ErrEmptyPath = errors.New("empty episode db path")

// Summary is one finished episode.
type Summary struct {
	EpisodeID  string
	EnvID      string
	SpecID     string
	Seed       *int64
	Length     int
	Return     float64
	Terminated bool
	Truncated  bool
	Duration   time.Duration
	EndedAt    time.Time
}

// Index stores episode summaries in SQLite.
type Index struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open creates or opens the database at path. ":memory:" is accepted.
func Open(path string, logger zerolog.Logger) (*Index, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create episode db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open episode db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{
		db:     db,
		logger: logger.With().Str("component", "episode_db").Logger(),
	}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			episode_id TEXT NOT NULL UNIQUE,
			env_id TEXT NOT NULL,
			spec_id TEXT NOT NULL,
			seed INTEGER,
			length INTEGER NOT NULL,
			ep_return REAL NOT NULL,
			terminated INTEGER NOT NULL,
			truncated INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS episodes_spec ON episodes(spec_id, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init episode schema: %w", err)
		}
	}
	return nil
}

// Insert stores s. Inserting the same episode id twice keeps the first row.
func (x *Index) Insert(ctx context.Context, s Summary) error {
	var seed sql.NullInt64
	if s.Seed != nil {
		seed = sql.NullInt64{Int64: *s.Seed, Valid: true}
	}
	endedAt := s.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	_, err := x.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO episodes
			(episode_id, env_id, spec_id, seed, length, ep_return, terminated, truncated, duration_ms, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.EpisodeID, s.EnvID, s.SpecID, seed, s.Length, s.Return,
		boolInt(s.Terminated), boolInt(s.Truncated),
		s.Duration.Milliseconds(), endedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert episode %s: %w", s.EpisodeID, err)
	}
	return nil
}

// Recent returns up to limit episodes, oldest first. specID filters when
// non-empty; limit <= 0 returns everything.
func (x *Index) Recent(ctx context.Context, specID string, limit int) ([]Summary, error) {
	q := `SELECT episode_id, env_id, spec_id, seed, length, ep_return, terminated, truncated, duration_ms, ended_at
		FROM episodes`
	var args []any
	if specID != "" {
		q += ` WHERE spec_id = ?`
		args = append(args, specID)
	}
	q += ` ORDER BY id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s          Summary
			seed       sql.NullInt64
			term, trun int
			durMs      int64
			endedAt    string
		)
		if err := rows.Scan(&s.EpisodeID, &s.EnvID, &s.SpecID, &seed, &s.Length, &s.Return,
			&term, &trun, &durMs, &endedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if seed.Valid {
			v := seed.Int64
			s.Seed = &v
		}
		s.Terminated = term != 0
		s.Truncated = trun != 0
		s.Duration = time.Duration(durMs) * time.Millisecond
		if s.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("episode %s: ended_at: %w", s.EpisodeID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of stored episodes.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count episodes: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Subscriber returns an event subscriber that inserts every
// episode.ended event into the index.
func (x *Index) Subscriber(id string) events.Subscriber {
	return &subscriber{id: id, index: x}
}

type subscriber struct {
	id    string
	index *Index
}

func (s *subscriber) ID() string { return s.id }

func (s *subscriber) InterestedIn(eventType string) bool {
	return eventType == events.TypeEpisodeEnded
}

func (s *subscriber) HandleEvent(e events.Event) {
	ended, ok := e.(*events.EpisodeEndedEvent)
	if !ok {
		return
	}
	err := s.index.Insert(context.Background(), Summary{
		EpisodeID:  ended.EpisodeID,
		EnvID:      ended.EnvID(),
		SpecID:     ended.SpecID,
		Seed:       ended.Seed,
		Length:     ended.Length,
		Return:     ended.Return,
		Terminated: ended.Terminated,
		Truncated:  ended.Truncated,
		Duration:   ended.Duration,
		EndedAt:    ended.Timestamp(),
	})
	if err != nil {
		s.index.logger.Error().Err(err).Str("episode_id", ended.EpisodeID).Msg("Failed to index episode")
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
