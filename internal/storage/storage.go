package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/race"
)

// ErrUnknownDriver is returned by Open for a DSN scheme it does not handle.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Meet identifies one meet. Name, Date and VenueID form the natural key.
type Meet struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	VenueID   string `json:"venue_id"`
	Season    string `json:"season"`
	SourceURL string `json:"source_url"`
}

// Race identifies one race within a meet. Every field is part of the natural key.
type Race struct {
	MeetID   string `json:"meet_id"`
	Name     string `json:"name"`
	Distance string `json:"distance"`
	Class    string `json:"race_class"`
	Gender   string `json:"gender"`
}

// Result is one row to insert for a race.
type Result struct {
	AthleteID string  `json:"athlete_id"`
	Seconds   float64 `json:"time_seconds"`
	Place     int     `json:"place"`
	Points    int     `json:"points"`
}

// Store is the persistence contract the ingestion pipeline consumes.
type Store interface {
	GetOrCreateVenue(ctx context.Context, name string) (string, error)
	GetOrCreateMeet(ctx context.Context, m Meet) (string, error)
	GetOrCreateRace(ctx context.Context, r Race) (string, error)
	GetOrCreateAthlete(ctx context.Context, a race.Athlete) (string, error)

	// ListExistingResults returns the keys of every result stored for raceID.
	ListExistingResults(ctx context.Context, raceID string) (race.KeySet, error)

	// InsertResults appends rows to raceID and returns the number written.
	InsertResults(ctx context.Context, raceID string, rows []Result) (int, error)

	// WithinRace runs fn against a Store scoped to one transaction that holds
	// an exclusive lock on raceID. The transaction commits when fn returns nil.
	WithinRace(ctx context.Context, raceID string, fn func(Store) error) error

	// ClearAll deletes every stored entity.
	ClearAll(ctx context.Context) error

	Close() error
}

// Open connects to the store named by dsn.
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty DSN", ErrUnknownDriver)
	}

	scheme, rest, hasScheme := strings.Cut(dsn, "://")
	if !hasScheme {
		if isSQLitePath(dsn) {
			scheme, rest = "sqlite", dsn
		} else {
			scheme, rest = "file", dsn
		}
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite", "sqlite3":
		s, err := OpenSQLite(ctx, rest)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "file":
		s, err := NewFileStore(rest)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, scheme)
	}
}

func isSQLitePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3")
}

// gradYear maps an unknown graduation year to SQL NULL.
func gradYear(year int) interface{} {
	if year <= 0 {
		return nil
	}
	return year
}
