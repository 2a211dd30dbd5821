package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/xc-results/internal/race"
)

const snapshotFile = "snapshot.json"

// Snapshot is the on-disk form of a FileStore. Venues map id to name and
// Results map race id to rows.
type Snapshot struct {
	Venues    map[string]string         `json:"venues"`
	Meets     map[string]Meet           `json:"meets"`
	Races     map[string]Race           `json:"races"`
	Athletes  map[string]race.Athlete   `json:"athletes"`
	Results   map[string][]StoredResult `json:"results"`
	UpdatedAt string                    `json:"updated_at"`
}

// StoredResult is a Result with its row id.
type StoredResult struct {
	ID string `json:"id"`
	Result
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Venues:   make(map[string]string),
		Meets:    make(map[string]Meet),
		Races:    make(map[string]Race),
		Athletes: make(map[string]race.Athlete),
		Results:  make(map[string][]StoredResult),
	}
}

// FileStore keeps every entity in memory and writes a JSON snapshot to its
// data directory after each WithinRace and on Close. It assumes a single
// writing process.
type FileStore struct {
	dataDir string

	mu    sync.Mutex
	snap  *Snapshot
	dirty bool

	// raceMu serializes WithinRace callers.
	raceMu sync.Mutex
}

// NewFileStore opens or creates the snapshot in dataDir. A leading "~/" is
// expanded to the home directory.
func NewFileStore(dataDir string) (*FileStore, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &FileStore{dataDir: dataDir}
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	s.snap = snap
	return s, nil
}

// NewMemoryStore returns a FileStore that never touches disk.
func NewMemoryStore() *FileStore {
	return &FileStore{snap: newSnapshot()}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

func (s *FileStore) load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return newSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	snap := newSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Sections absent from older files decode as nil maps.
	fresh := newSnapshot()
	if snap.Venues == nil {
		snap.Venues = fresh.Venues
	}
	if snap.Meets == nil {
		snap.Meets = fresh.Meets
	}
	if snap.Races == nil {
		snap.Races = fresh.Races
	}
	if snap.Athletes == nil {
		snap.Athletes = fresh.Athletes
	}
	if snap.Results == nil {
		snap.Results = fresh.Results
	}
	return snap, nil
}

// flush writes the snapshot if anything changed. Caller holds mu.
func (s *FileStore) flush() error {
	if s.dataDir == "" || !s.dirty {
		return nil
	}

	s.snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	s.dirty = false
	return nil
}

func (s *FileStore) GetOrCreateVenue(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.snap.Venues {
		if existing == name {
			return id, nil
		}
	}

	id := uuid.NewString()
	s.snap.Venues[id] = name
	s.dirty = true
	return id, nil
}

func (s *FileStore) GetOrCreateMeet(ctx context.Context, m Meet) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.snap.Meets {
		if existing.Name == m.Name && existing.Date == m.Date && existing.VenueID == m.VenueID {
			return id, nil
		}
	}

	id := uuid.NewString()
	s.snap.Meets[id] = m
	s.dirty = true
	return id, nil
}

func (s *FileStore) GetOrCreateRace(ctx context.Context, r Race) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.snap.Races {
		if existing == r {
			return id, nil
		}
	}

	id := uuid.NewString()
	s.snap.Races[id] = r
	s.dirty = true
	return id, nil
}

func (s *FileStore) GetOrCreateAthlete(ctx context.Context, a race.Athlete) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.snap.Athletes {
		if existing.FirstName == a.FirstName && existing.LastName == a.LastName &&
			existing.Gender == a.Gender && existing.School == a.School {
			if existing.GradYear == 0 && a.GradYear > 0 {
				existing.GradYear = a.GradYear
				s.snap.Athletes[id] = existing
				s.dirty = true
			}
			return id, nil
		}
	}

	id := uuid.NewString()
	s.snap.Athletes[id] = a
	s.dirty = true
	return id, nil
}

func (s *FileStore) ListExistingResults(ctx context.Context, raceID string) (race.KeySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := race.NewKeySet()
	for _, row := range s.snap.Results[raceID] {
		a, ok := s.snap.Athletes[row.AthleteID]
		if !ok {
			return nil, fmt.Errorf("result %s references missing athlete %s", row.ID, row.AthleteID)
		}
		keys.Add(race.NewKey(a.FirstName, a.LastName, a.School, row.Seconds, row.Place))
	}
	return keys, nil
}

func (s *FileStore) InsertResults(ctx context.Context, raceID string, rows []Result) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snap.Races[raceID]; !ok {
		return 0, fmt.Errorf("race not found: %s", raceID)
	}

	for _, row := range rows {
		if _, ok := s.snap.Athletes[row.AthleteID]; !ok {
			return 0, fmt.Errorf("athlete not found: %s", row.AthleteID)
		}
	}

	for _, row := range rows {
		s.snap.Results[raceID] = append(s.snap.Results[raceID], StoredResult{ID: uuid.NewString(), Result: row})
	}
	if len(rows) > 0 {
		s.dirty = true
	}
	return len(rows), nil
}

// WithinRace runs fn while holding the store's race lock, then writes the
// snapshot. Changes made by a failing fn are kept in memory; the file store
// has no rollback.
func (s *FileStore) WithinRace(ctx context.Context, raceID string, fn func(Store) error) error {
	s.raceMu.Lock()
	defer s.raceMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *FileStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = newSnapshot()
	s.dirty = true
	return s.flush()
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}
