package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/derekprior/futto/internal/standings"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const keyTournament = "tournament"

// ErrTournamentMismatch is returned when stored results belong to a
// different team list, repeat count or strategy.
var ErrTournamentMismatch = errors.New("stored results belong to a different tournament")

// Store keeps results for the current tournament in a local SQLite file.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the SQLite file at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s.log.Debug().Str("path", path).Msg("store opened")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Bind ties the store to a tournament key. A store with no results adopts
// the key; a store holding results for another key returns
// ErrTournamentMismatch.
func (s *Store) Bind(ctx context.Context, key string) error {
	current, ok, err := s.meta(ctx, keyTournament)
	if err != nil {
		return err
	}
	if ok && current == key {
		return nil
	}

	if ok {
		n, err := s.countResults(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: run reset to start a new tournament", ErrTournamentMismatch)
		}
	}

	if err := s.setMeta(ctx, keyTournament, key); err != nil {
		return err
	}
	s.log.Debug().Str("key", key).Msg("store bound to tournament")
	return nil
}

// SaveResult records r, replacing any earlier result for the same match.
func (s *Store) SaveResult(ctx context.Context, r standings.Result) error {
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results(match_number, home, away, home_score, away_score, played_at)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(match_number) DO UPDATE SET
		   home=excluded.home, away=excluded.away,
		   home_score=excluded.home_score, away_score=excluded.away_score,
		   played_at=excluded.played_at`,
		r.MatchNumber, r.Home, r.Away, r.HomeScore, r.AwayScore, r.PlayedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving result for match %d: %w", r.MatchNumber, err)
	}
	s.log.Info().
		Int("match", r.MatchNumber).
		Str("home", r.Home).
		Str("away", r.Away).
		Str("score", r.Score()).
		Msg("result saved")
	return nil
}

// Results returns all recorded results ordered by match number.
func (s *Store) Results(ctx context.Context) ([]standings.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_number, home, away, home_score, away_score, played_at
		 FROM results ORDER BY match_number`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []standings.Result
	for rows.Next() {
		var r standings.Result
		var playedAt string
		if err := rows.Scan(&r.MatchNumber, &r.Home, &r.Away, &r.HomeScore, &r.AwayScore, &playedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.PlayedAt, err = time.Parse(time.RFC3339Nano, playedAt)
		if err != nil {
			return nil, fmt.Errorf("match %d: invalid played_at %q: %w", r.MatchNumber, playedAt, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Reset removes every result and the tournament binding.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clearing results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("clearing meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info().Msg("tournament reset")
	return nil
}

func (s *Store) countResults(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}

func (s *Store) meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
