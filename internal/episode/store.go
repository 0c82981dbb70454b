package episode

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// bump when schema.sql changes; older databases must be deleted
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNoCandidate is returned when a selection does not name a stored candidate.
var ErrNoCandidate = errors.New("no such candidate")

// CandidateStore keeps recordings awaiting a human decision.
type CandidateStore interface {
	Selected(ctx context.Context, filename string) (*Episode, error)
	StoreCandidates(ctx context.Context, rec Recording, candidates []Episode) error
}

// Pending is a stored recording with its candidates.
type Pending struct {
	Recording  Recording
	Candidates []Episode
	Selected   int // 1-based candidate position, 0 when none
}

// Store persists disambiguation state in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ CandidateStore = (*Store)(nil)

// OpenStore initializes or connects to the database at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// StoreCandidates records rec and replaces its candidate list. A previous
// selection is discarded.
func (s *Store) StoreCandidates(ctx context.Context, rec Recording, candidates []Episode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recording (filename, series, episode_name, description, air_date, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(filename) DO UPDATE SET
            series = excluded.series,
            episode_name = excluded.episode_name,
            description = excluded.description,
            air_date = excluded.air_date,
            updated_at = excluded.updated_at`,
		rec.Filename, rec.Series, nullableString(rec.EpisodeName),
		nullableString(rec.Description), nullableString(rec.AirDate), now,
	); err != nil {
		return fmt.Errorf("upsert recording: %w", err)
	}

	for _, stmt := range []string{
		"DELETE FROM selected_episode WHERE recording = ?",
		"DELETE FROM candidate_episode WHERE recording = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, rec.Filename); err != nil {
			return fmt.Errorf("clear candidates: %w", err)
		}
	}

	for i, c := range candidates {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO series (id, name) VALUES (?, ?) ON CONFLICT DO NOTHING",
			c.SeriesID, rec.Series,
		); err != nil {
			return fmt.Errorf("upsert series: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO candidate_episode (
                recording, position, episode_id, series_id, name, overview,
                first_aired, season, episode_num
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Filename, i+1, c.ID, c.SeriesID, nullableString(c.Name),
			nullableString(c.Overview), nullableString(c.FirstAired), c.Season, c.Number,
		); err != nil {
			return fmt.Errorf("insert candidate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit candidates: %w", err)
	}
	return nil
}

// Candidates lists the stored candidates of filename in position order.
func (s *Store) Candidates(ctx context.Context, filename string) ([]Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode_id, series_id, name, overview, first_aired, season, episode_num
        FROM candidate_episode WHERE recording = ? ORDER BY position`,
		filename,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// Selected returns the chosen episode for filename, or nil when none was
// chosen yet.
func (s *Store) Selected(ctx context.Context, filename string) (*Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT c.episode_id, c.series_id, c.name, c.overview, c.first_aired, c.season, c.episode_num
        FROM selected_episode s
        JOIN candidate_episode c ON c.recording = s.recording AND c.position = s.position
        WHERE s.recording = ?`,
		filename,
	)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// Select marks the candidate at the 1-based position as the episode of
// filename.
func (s *Store) Select(ctx context.Context, filename string, position int) error {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM candidate_episode WHERE recording = ? AND position = ?",
		filename, position,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check candidate: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s #%d", ErrNoCandidate, filename, position)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO selected_episode (recording, position, selected_at) VALUES (?, ?, ?)
        ON CONFLICT(recording) DO UPDATE SET position = excluded.position, selected_at = excluded.selected_at`,
		filename, position, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("select candidate: %w", err)
	}
	return nil
}

// Pending lists every stored recording ordered by filename.
func (s *Store) Pending(ctx context.Context) ([]Pending, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.filename, r.series, r.episode_name, r.description, r.air_date, COALESCE(s.position, 0)
        FROM recording r LEFT JOIN selected_episode s ON s.recording = r.filename
        ORDER BY r.filename`,
	)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}

	var pending []Pending
	for rows.Next() {
		var p Pending
		var name, description, airDate sql.NullString
		if err := rows.Scan(&p.Recording.Filename, &p.Recording.Series, &name, &description, &airDate, &p.Selected); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		p.Recording.EpisodeName = name.String
		p.Recording.Description = description.String
		p.Recording.AirDate = airDate.String
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range pending {
		if pending[i].Candidates, err = s.Candidates(ctx, pending[i].Recording.Filename); err != nil {
			return nil, err
		}
	}
	return pending, nil
}

// Forget removes filename with its candidates and selection. Unknown
// filenames are ignored.
func (s *Store) Forget(ctx context.Context, filename string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM selected_episode WHERE recording = ?",
		"DELETE FROM candidate_episode WHERE recording = ?",
		"DELETE FROM recording WHERE filename = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, filename); err != nil {
			return fmt.Errorf("forget recording: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit forget: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row scanner) (Episode, error) {
	var ep Episode
	var name, overview, firstAired sql.NullString
	if err := row.Scan(&ep.ID, &ep.SeriesID, &name, &overview, &firstAired, &ep.Season, &ep.Number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ep, err
		}
		return ep, fmt.Errorf("scan episode: %w", err)
	}
	ep.Name = name.String
	ep.Overview = overview.String
	ep.FirstAired = firstAired.String
	return ep, nil
}

func nullableString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
