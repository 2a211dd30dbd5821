package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pfrederiksen/xc-results/internal/race"

	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

// sqlQuerier is satisfied by *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLiteStore persists to a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
	q  sqlQuerier

	// inTx is set on the transaction-scoped copy handed to WithinRace.
	inTx bool
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Transactions begin IMMEDIATE so concurrent writers from other
// processes queue on the write lock instead of failing at commit.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	// Per-connection pragmas ride on the DSN so a reopened pool connection
	// keeps them.
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// One connection keeps pragmas and the in-process write order consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: schema: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

// getOrCreate inserts a row unless its natural key exists, then returns the
// row's id.
func (s *SQLiteStore) getOrCreate(ctx context.Context, insert, lookup string, insertArgs, lookupArgs []interface{}) (string, error) {
	id := uuid.NewString()
	if _, err := s.q.ExecContext(ctx, insert, append([]interface{}{id}, insertArgs...)...); err != nil {
		return "", err
	}

	var existing string
	if err := s.q.QueryRowContext(ctx, lookup, lookupArgs...).Scan(&existing); err != nil {
		return "", err
	}
	return existing, nil
}

func (s *SQLiteStore) GetOrCreateVenue(ctx context.Context, name string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO venues (id, name) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		`SELECT id FROM venues WHERE name = ?`,
		[]interface{}{name}, []interface{}{name})
	if err != nil {
		return "", fmt.Errorf("venue %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteStore) GetOrCreateMeet(ctx context.Context, m Meet) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO meets (id, name, date, venue_id, season, source_url) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		`SELECT id FROM meets WHERE name = ? AND date = ? AND venue_id = ?`,
		[]interface{}{m.Name, m.Date, m.VenueID, m.Season, m.SourceURL},
		[]interface{}{m.Name, m.Date, m.VenueID})
	if err != nil {
		return "", fmt.Errorf("meet %q: %w", m.Name, err)
	}
	return id, nil
}

func (s *SQLiteStore) GetOrCreateRace(ctx context.Context, r Race) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO races (id, meet_id, name, distance, race_class, gender) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		`SELECT id FROM races WHERE meet_id = ? AND name = ? AND distance = ? AND race_class = ? AND gender = ?`,
		[]interface{}{r.MeetID, r.Name, r.Distance, r.Class, r.Gender},
		[]interface{}{r.MeetID, r.Name, r.Distance, r.Class, r.Gender})
	if err != nil {
		return "", fmt.Errorf("race %q: %w", r.Name, err)
	}
	return id, nil
}

func (s *SQLiteStore) GetOrCreateAthlete(ctx context.Context, a race.Athlete) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO athletes (id, first_name, last_name, gender, school, graduation_year) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (first_name, last_name, gender, school)
		 DO UPDATE SET graduation_year = COALESCE(athletes.graduation_year, excluded.graduation_year)`,
		`SELECT id FROM athletes WHERE first_name = ? AND last_name = ? AND gender = ? AND school = ?`,
		[]interface{}{a.FirstName, a.LastName, a.Gender, a.School, gradYear(a.GradYear)},
		[]interface{}{a.FirstName, a.LastName, a.Gender, a.School})
	if err != nil {
		return "", fmt.Errorf("athlete %q: %w", a.FullName(), err)
	}
	return id, nil
}

func (s *SQLiteStore) ListExistingResults(ctx context.Context, raceID string) (race.KeySet, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT a.first_name, a.last_name, a.school, r.time_seconds, r.place
		FROM results r
		JOIN athletes a ON a.id = r.athlete_id
		WHERE r.race_id = ?`, raceID)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	keys := race.NewKeySet()
	for rows.Next() {
		var first, last, school string
		var seconds float64
		var place int
		if err := rows.Scan(&first, &last, &school, &seconds, &place); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		keys.Add(race.NewKey(first, last, school, seconds, place))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	return keys, nil
}

func (s *SQLiteStore) InsertResults(ctx context.Context, raceID string, rows []Result) (int, error) {
	inserted := 0
	for _, row := range rows {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO results (id, race_id, athlete_id, time_seconds, place, points) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), raceID, row.AthleteID, row.Seconds, row.Place, row.Points)
		if err != nil {
			return inserted, fmt.Errorf("inserting result place %d: %w", row.Place, err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *SQLiteStore) WithinRace(ctx context.Context, raceID string, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(&SQLiteStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing race %s: %w", raceID, err)
	}
	return nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	for _, stmt := range clearStatements {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}
