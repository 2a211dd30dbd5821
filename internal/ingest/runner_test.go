package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/scraper"
	"github.com/pfrederiksen/xc-results/internal/storage"
)

const varsityPage = `<html><body><pre>
                 Fort Collins Invitational
Place Div/Tot  Bib#  Name             Sex School                     Time   Pace
===== ======= ===== ================ === ========================== ====== =====
    1   1/124   3392 Ryan Ruffer      M   Fossil Ridge High School   15:57.10  5:08
    2   2/124   3393 Joey Benson      M   Poudre High School         16:02.45  5:10
    3   3/124   3394 Sam Lee          M   Loveland High School       16:30.00  5:19
</pre></body></html>`

const ceilingPage = `<pre>
===== ======= =====
    1   1/10    3392 Slow Runner      M   Poudre High School         1:01:00.00
</pre>`

const tabbedText = "Varsity Girls\n" +
	"1\tAnn Smith\t11\tRocky Mountain\t18:01.20\n" +
	"2\tBeth Jones\t10\tPoudre\t18:20.00\n" +
	"JV Girls\n" +
	"1\tCara Diaz\t9\tPoudre\t21:00.00\n"

// sleepCounter records politeness waits without sleeping.
type sleepCounter struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepCounter) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return nil
}

func (s *sleepCounter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/varsity", "/varsity-copy", "/varsity-again":
			w.Write([]byte(varsityPage))
		case "/ceiling":
			w.Write([]byte(ceilingPage))
		case "/blank":
			w.Write([]byte("<html><body><p>Results coming soon</p></body></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func varsity(url string) race.Descriptor {
	return race.Descriptor{
		MeetName:  "Fort Collins Invitational",
		RaceName:  "Varsity Boys",
		Distance:  "5K",
		RaceClass: "varsity",
		Gender:    "boys",
		Venue:     "Edora Park",
		Date:      "2025-09-12",
		Season:    "2025",
		URL:       url,
		Algorithm: race.AlgorithmPreformatted,
	}
}

func TestRunStoresAndIsIdempotent(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)
	store := storage.NewMemoryStore()
	sleeps := &sleepCounter{}

	r := &Runner{Store: store, sleep: sleeps.sleep}
	descs := []race.Descriptor{varsity(server.URL + "/varsity")}

	report, err := r.Run(context.Background(), descs)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Races) != 1 {
		t.Fatalf("got %d summaries, want 1", len(report.Races))
	}

	sum := report.Races[0]
	if sum.Status != StatusStored || sum.Parsed != 3 || sum.Inserted != 3 {
		t.Errorf("first run summary = %+v", sum)
	}
	if sum.Winner == nil || sum.Winner.Name != "Ryan Ruffer" || sum.Winner.Time != "15:57.10" {
		t.Errorf("winner = %+v", sum.Winner)
	}
	if sum.Winner != nil && sum.Winner.Pace == "" {
		t.Errorf("winner pace missing for 5K race")
	}

	report, err = r.Run(context.Background(), descs)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	sum = report.Races[0]
	if sum.Status != StatusStored || sum.Inserted != 0 || sum.Existing != 3 {
		t.Errorf("second run summary = %+v, want 0 inserted and 3 existing", sum)
	}
	if report.Inserted() != 0 || report.Parsed() != 3 {
		t.Errorf("report totals = %d inserted, %d parsed", report.Inserted(), report.Parsed())
	}
}

func TestRunSameResultsFromTwoSources(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)
	store := storage.NewMemoryStore()

	r := &Runner{Store: store, sleep: (&sleepCounter{}).sleep}
	report, err := r.Run(context.Background(), []race.Descriptor{
		varsity(server.URL + "/varsity"),
		varsity(server.URL + "/varsity-copy"),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Inserted() != 3 {
		t.Errorf("Inserted() = %d, want 3", report.Inserted())
	}
	if got := report.Races[1].Existing; got != 3 {
		t.Errorf("second source Existing = %d, want 3", got)
	}
}

func TestRunFatalStopsBatch(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)
	store := storage.NewMemoryStore()

	r := &Runner{Store: store, sleep: (&sleepCounter{}).sleep}
	report, err := r.Run(context.Background(), []race.Descriptor{
		varsity(server.URL + "/ceiling"),
		varsity(server.URL + "/varsity"),
	})
	if !race.IsFatal(err) {
		t.Fatalf("Run() error = %v, want fatal", err)
	}
	if report.Count(StatusFatal) != 1 {
		t.Errorf("fatal count = %d, want 1", report.Count(StatusFatal))
	}
	if report.Inserted() != 0 {
		t.Errorf("Inserted() = %d, want 0", report.Inserted())
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestRunStrictCheckAbortsBeforeFetching(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)

	hytek := varsity(server.URL + "/varsity")
	hytek.Algorithm = race.AlgorithmHyTek

	r := &Runner{Store: storage.NewMemoryStore(), sleep: (&sleepCounter{}).sleep}
	report, err := r.Run(context.Background(), []race.Descriptor{varsity(server.URL + "/varsity"), hytek})
	if !race.IsFatal(err) {
		t.Fatalf("Run() error = %v, want fatal", err)
	}
	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Errorf("server hits = %d, want 0", got)
	}
	if report.Count(StatusFatal) != 1 {
		t.Errorf("report = %+v", report.Races)
	}
}

func TestRunRecordsPerRaceOutcomes(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)

	noSource := varsity("")
	relaxed := varsity(server.URL + "/varsity")
	relaxed.Algorithm = race.AlgorithmTabbed
	relaxed.RaceClass = ""
	missing := varsity(server.URL + "/gone")
	blank := varsity(server.URL + "/blank")
	ok := varsity(server.URL + "/varsity")

	r := &Runner{Store: storage.NewMemoryStore(), sleep: (&sleepCounter{}).sleep}
	report, err := r.Run(context.Background(), []race.Descriptor{noSource, relaxed, missing, blank, ok})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	tests := []struct {
		status Status
		want   int
	}{
		{StatusSkipped, 2},
		{StatusFailed, 1},
		{StatusEmpty, 1},
		{StatusStored, 1},
	}
	for _, tt := range tests {
		if got := report.Count(tt.status); got != tt.want {
			t.Errorf("Count(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}
	if len(report.Races) != 5 {
		t.Fatalf("got %d summaries, want 5", len(report.Races))
	}
	want := []Status{StatusSkipped, StatusSkipped, StatusFailed, StatusEmpty, StatusStored}
	for i, s := range want {
		if got := report.Races[i].Status; got != s {
			t.Errorf("Races[%d].Status = %s, want %s", i, got, s)
		}
	}
}

func TestRunPolitenessDelay(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)
	file := writeFile(t, "results.txt", tabbedText)
	sleeps := &sleepCounter{}

	girls := race.Descriptor{
		MeetName:  "Poudre Invite",
		RaceClass: "varsity",
		Gender:    "girls",
		File:      file,
		Algorithm: race.AlgorithmTabbed,
	}

	r := &Runner{
		Store:           storage.NewMemoryStore(),
		PolitenessDelay: 2 * time.Second,
		sleep:           sleeps.sleep,
	}
	report, err := r.Run(context.Background(), []race.Descriptor{
		varsity(server.URL + "/varsity"),
		girls,
		varsity(server.URL + "/varsity-copy"),
		varsity(server.URL + "/varsity-again"),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := sleeps.count(); got != 2 {
		t.Errorf("sleeps = %d, want 2", got)
	}
	for _, d := range sleeps.calls {
		if d != 2*time.Second {
			t.Errorf("sleep duration = %v, want 2s", d)
		}
	}
	if got := report.Races[1]; got.Status != StatusStored || got.Inserted != 2 {
		t.Errorf("file race summary = %+v", got)
	}
}

func TestRunDryRun(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)

	r := &Runner{DryRun: true, sleep: (&sleepCounter{}).sleep}
	report, err := r.Run(context.Background(), []race.Descriptor{varsity(server.URL + "/varsity")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sum := report.Races[0]
	if sum.Status != StatusParsed || sum.Parsed != 3 || sum.Inserted != 0 {
		t.Errorf("dry run summary = %+v", sum)
	}
	if !report.DryRun {
		t.Errorf("report.DryRun = false")
	}
}

func TestRunRequiresStore(t *testing.T) {
	r := &Runner{}
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Error("Run() without store succeeded")
	}
}

func TestRunWorkers(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)
	store := storage.NewMemoryStore()
	sleeps := &sleepCounter{}

	jv := varsity(server.URL + "/varsity-copy")
	jv.RaceName = "JV Boys"
	jv.RaceClass = "jv"

	r := &Runner{Store: store, Workers: 3, PolitenessDelay: time.Second, sleep: sleeps.sleep}
	report, err := r.Run(context.Background(), []race.Descriptor{
		varsity(server.URL + "/varsity"),
		jv,
		varsity(server.URL + "/gone"),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Races[0].Race.RaceName != "Varsity Boys" || report.Races[1].Race.RaceName != "JV Boys" {
		t.Errorf("summaries out of descriptor order: %+v", report.Races)
	}
	if report.Inserted() != 6 {
		t.Errorf("Inserted() = %d, want 6", report.Inserted())
	}
	if report.Count(StatusFailed) != 1 {
		t.Errorf("failed = %d, want 1", report.Count(StatusFailed))
	}
	if got := sleeps.count(); got != 2 {
		t.Errorf("sleeps = %d, want 2", got)
	}
}

func TestRunWorkersFatal(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)

	r := &Runner{Store: storage.NewMemoryStore(), Workers: 2, sleep: (&sleepCounter{}).sleep}
	_, err := r.Run(context.Background(), []race.Descriptor{
		varsity(server.URL + "/ceiling"),
		varsity(server.URL + "/varsity"),
	})
	if !race.IsFatal(err) {
		t.Errorf("Run() error = %v, want fatal", err)
	}
}

func TestRunCanceled(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Store: storage.NewMemoryStore(), sleep: (&sleepCounter{}).sleep}
	_, err := r.Run(ctx, []race.Descriptor{varsity(server.URL + "/varsity")})
	if err == nil {
		t.Error("Run() with canceled context succeeded")
	}
}

func TestWinnerOf(t *testing.T) {
	records := []race.Record{
		{Place: 2, Athlete: race.Athlete{FirstName: "Joey", LastName: "Benson"}, Seconds: 962},
		{Place: 1, Athlete: race.Athlete{FirstName: "Ryan", LastName: "Ruffer", School: "Fossil Ridge"}, Seconds: 957},
	}

	w := winnerOf(records, "")
	if w == nil || w.Name != "Ryan Ruffer" || w.School != "Fossil Ridge" || w.Time != "15:57.00" {
		t.Errorf("winnerOf() = %+v", w)
	}
	if w != nil && w.Pace != "" {
		t.Errorf("Pace = %q for unknown distance, want empty", w.Pace)
	}
	if winnerOf(nil, "5K") != nil {
		t.Error("winnerOf(nil) != nil")
	}
}

func TestPoliteGate(t *testing.T) {
	sleeps := &sleepCounter{}
	g := &politeGate{delay: time.Second, sleep: sleeps.sleep}

	for i := 0; i < 3; i++ {
		if err := g.do(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("do() error = %v", err)
		}
	}
	if got := sleeps.count(); got != 2 {
		t.Errorf("sleeps = %d, want 2", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); err == nil {
		t.Error("sleepContext() on canceled context returned nil")
	}
}

func TestRunSharedSourceFetchedOnce(t *testing.T) {
	var hits int32
	server := newServer(t, &hits)
	sleeps := &sleepCounter{}

	jv := varsity(server.URL + "/varsity")
	jv.RaceName = "JV Boys"
	jv.RaceClass = "jv"

	r := &Runner{
		Store:           storage.NewMemoryStore(),
		Fetcher:         scraper.NewFetcher(scraper.WithCache(scraper.NewDocumentCache())),
		PolitenessDelay: time.Second,
		sleep:           sleeps.sleep,
	}
	report, err := r.Run(context.Background(), []race.Descriptor{varsity(server.URL + "/varsity"), jv})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Count(StatusStored) != 2 {
		t.Errorf("stored = %d, want 2", report.Count(StatusStored))
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
	if got := sleeps.count(); got != 0 {
		t.Errorf("sleeps = %d, want 0 for a cached document", got)
	}
}
