package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pfrederiksen/xc-results/internal/race"
)

// pgQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore persists to PostgreSQL through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    pgQuerier
	inTx bool
}

// OpenPostgres connects to dsn, verifies the connection and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool, q: pool}, nil
}

func (s *PostgresStore) getOrCreate(ctx context.Context, insert, lookup string, insertArgs, lookupArgs []any) (string, error) {
	id := uuid.NewString()
	if _, err := s.q.Exec(ctx, insert, append([]any{id}, insertArgs...)...); err != nil {
		return "", err
	}

	var existing string
	if err := s.q.QueryRow(ctx, lookup, lookupArgs...).Scan(&existing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("row vanished after insert")
		}
		return "", err
	}
	return existing, nil
}

func (s *PostgresStore) GetOrCreateVenue(ctx context.Context, name string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO venues (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`SELECT id FROM venues WHERE name = $1`,
		[]any{name}, []any{name})
	if err != nil {
		return "", fmt.Errorf("venue %q: %w", name, err)
	}
	return id, nil
}

func (s *PostgresStore) GetOrCreateMeet(ctx context.Context, m Meet) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO meets (id, name, date, venue_id, season, source_url) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
		`SELECT id FROM meets WHERE name = $1 AND date = $2 AND venue_id = $3`,
		[]any{m.Name, m.Date, m.VenueID, m.Season, m.SourceURL},
		[]any{m.Name, m.Date, m.VenueID})
	if err != nil {
		return "", fmt.Errorf("meet %q: %w", m.Name, err)
	}
	return id, nil
}

func (s *PostgresStore) GetOrCreateRace(ctx context.Context, r Race) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO races (id, meet_id, name, distance, race_class, gender) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
		`SELECT id FROM races WHERE meet_id = $1 AND name = $2 AND distance = $3 AND race_class = $4 AND gender = $5`,
		[]any{r.MeetID, r.Name, r.Distance, r.Class, r.Gender},
		[]any{r.MeetID, r.Name, r.Distance, r.Class, r.Gender})
	if err != nil {
		return "", fmt.Errorf("race %q: %w", r.Name, err)
	}
	return id, nil
}

func (s *PostgresStore) GetOrCreateAthlete(ctx context.Context, a race.Athlete) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO athletes (id, first_name, last_name, gender, school, graduation_year) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (first_name, last_name, gender, school)
		 DO UPDATE SET graduation_year = COALESCE(athletes.graduation_year, EXCLUDED.graduation_year)`,
		`SELECT id FROM athletes WHERE first_name = $1 AND last_name = $2 AND gender = $3 AND school = $4`,
		[]any{a.FirstName, a.LastName, a.Gender, a.School, gradYear(a.GradYear)},
		[]any{a.FirstName, a.LastName, a.Gender, a.School})
	if err != nil {
		return "", fmt.Errorf("athlete %q: %w", a.FullName(), err)
	}
	return id, nil
}

func (s *PostgresStore) ListExistingResults(ctx context.Context, raceID string) (race.KeySet, error) {
	rows, err := s.q.Query(ctx, `
		SELECT a.first_name, a.last_name, a.school, r.time_seconds, r.place
		FROM results r
		JOIN athletes a ON a.id = r.athlete_id
		WHERE r.race_id = $1`, raceID)
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

// InsertResults sends all rows in one batch round trip.
func (s *PostgresStore) InsertResults(ctx context.Context, raceID string, rows []Result) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO results (id, race_id, athlete_id, time_seconds, place, points) VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), raceID, row.AthleteID, row.Seconds, row.Place, row.Points)
	}

	br := s.q.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for _, row := range rows {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("inserting result place %d: %w", row.Place, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// WithinRace takes a transaction-scoped advisory lock on the race id so two
// concurrent runs cannot both insert the same missing results.
func (s *PostgresStore) WithinRace(ctx context.Context, raceID string, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, raceID); err != nil {
		return fmt.Errorf("locking race %s: %w", raceID, err)
	}

	if err := fn(&PostgresStore{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing race %s: %w", raceID, err)
	}
	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `TRUNCATE results, races, meets, athletes, venues`); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if !s.inTx {
		s.pool.Close()
	}
	return nil
}
