// Package record persists rollout episodes and steps to a local sqlite
// database for offline analysis.
package record

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Store writes episode and step rows to sqlite.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewStore returns an unopened store for the given database path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init opens the database and creates the schema. Calling Init on an open
// store is a no-op.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// StartEpisode inserts a new episode row and returns its identifier.
func (s *Store) StartEpisode(ctx context.Context, runID string, episode int) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (id, run_id, episode, started_at)
		VALUES (?, ?, ?, ?)
	`, id, runID, episode, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordStep appends one step row to an episode.
func (s *Store) RecordStep(ctx context.Context, episodeID string, step int, action core.Action, reward int, terminated bool) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO steps (episode_id, idx, action, reward, terminated)
		VALUES (?, ?, ?, ?, ?)
	`, episodeID, step, int(action), reward, terminated)
	return err
}

// FinishEpisode closes out an episode row with its totals and outcome.
func (s *Store) FinishEpisode(ctx context.Context, episodeID string, steps, totalReward int, outcome string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE episodes
		SET finished_at = ?, steps = ?, total_reward = ?, outcome = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339Nano), steps, totalReward, outcome, episodeID)
	return err
}

// EpisodeSummary is one finished episode row.
type EpisodeSummary struct {
	ID          string
	Episode     int
	Steps       int
	TotalReward int
	Outcome     string
}

// Episodes lists the finished episodes of a run in order.
func (s *Store) Episodes(ctx context.Context, runID string) ([]EpisodeSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, episode, COALESCE(steps, 0), COALESCE(total_reward, 0), COALESCE(outcome, '')
		FROM episodes
		WHERE run_id = ?
		ORDER BY episode
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeSummary
	for rows.Next() {
		var ep EpisodeSummary
		if err := rows.Scan(&ep.ID, &ep.Episode, &ep.Steps, &ep.TotalReward, &ep.Outcome); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// StepCount reports how many step rows an episode holds.
func (s *Store) StepCount(ctx context.Context, episodeID string) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}

	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM steps WHERE episode_id = ?`, episodeID).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			episode INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			steps INTEGER,
			total_reward INTEGER,
			outcome TEXT
		);
		CREATE TABLE IF NOT EXISTS steps (
			episode_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			action INTEGER NOT NULL,
			reward INTEGER NOT NULL,
			terminated INTEGER NOT NULL,
			PRIMARY KEY (episode_id, idx)
		);
	`)
	return err
}
