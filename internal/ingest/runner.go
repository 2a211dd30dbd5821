package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/metrics"
	"github.com/pfrederiksen/xc-results/internal/normalize"
	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/scraper"
	"github.com/pfrederiksen/xc-results/internal/storage"
	"github.com/pfrederiksen/xc-results/internal/validate"
	"golang.org/x/sync/errgroup"
)

// UnknownVenue names the venue of descriptors that carry none.
const UnknownVenue = "Unknown Venue"

// Runner processes race descriptors. The zero value of each optional field
// selects a default.
type Runner struct {
	Store      storage.Store // may be nil when DryRun is set
	Fetcher    *scraper.Fetcher
	Dispatcher *scraper.Dispatcher
	Normalizer *normalize.Normalizer

	// Workers bounds concurrent races. Values below 2 run sequentially.
	Workers int

	// PolitenessDelay is the pause between consecutive network fetches.
	PolitenessDelay time.Duration

	// DryRun extracts and validates without touching the store.
	DryRun bool

	sleep func(context.Context, time.Duration) error
}

// job is a descriptor that passed startup checks.
type job struct {
	index int
	desc  race.Descriptor
	ex    scraper.Extractor
}

// Run processes descriptors and reports each outcome. The returned error is
// non-nil only when the batch was aborted: by a fatal condition (race.IsFatal
// reports true), by ctx, or by a configuration the run cannot start with.
// Per-race failures are recorded in the report and do not stop the batch.
func (r *Runner) Run(ctx context.Context, descriptors []race.Descriptor) (*Report, error) {
	r.defaults()
	if r.Store == nil && !r.DryRun {
		return nil, errors.New("ingest: no store configured")
	}

	report := &Report{StartedAt: time.Now().UTC(), DryRun: r.DryRun}
	defer func() { report.FinishedAt = time.Now().UTC() }()

	summaries := make([]*RaceSummary, len(descriptors))
	jobs, err := r.preflight(descriptors, summaries)
	if err != nil {
		return r.finish(report, summaries), err
	}

	gate := &politeGate{delay: r.PolitenessDelay, sleep: r.sleep}

	if r.Workers < 2 {
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return r.finish(report, summaries), err
			}
			sum, err := r.process(ctx, gate, j)
			summaries[j.index] = sum
			if err != nil {
				return r.finish(report, summaries), err
			}
		}
		return r.finish(report, summaries), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			sum, err := r.process(gctx, gate, j)
			summaries[j.index] = sum
			return err
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return r.finish(report, summaries), err
}

func (r *Runner) defaults() {
	if r.Fetcher == nil {
		r.Fetcher = scraper.NewFetcher()
	}
	if r.Dispatcher == nil {
		r.Dispatcher = scraper.NewDispatcher(scraper.Options{})
	}
	if r.Normalizer == nil {
		r.Normalizer = normalize.New(nil)
	}
	if r.sleep == nil {
		r.sleep = sleepContext
	}
}

// finish appends summaries in descriptor order.
func (r *Runner) finish(report *Report, summaries []*RaceSummary) *Report {
	for _, s := range summaries {
		if s != nil {
			report.Races = append(report.Races, *s)
		}
	}
	return report
}

// preflight resolves each descriptor's extractor and checks the fields its
// layout requires. A strict layout failing its check aborts the whole batch
// before anything is fetched; a relaxed one only skips its race. Skipped and
// aborted races get their summary slot filled here.
func (r *Runner) preflight(descriptors []race.Descriptor, summaries []*RaceSummary) ([]job, error) {
	var jobs []job

	skip := func(i int, d race.Descriptor, reason string) {
		logger.Warn("skipping race", logger.Fields(d.Fields()).With(logger.Fields{"reason": reason}))
		metrics.RacesTotal.WithLabelValues(string(StatusSkipped)).Inc()
		summaries[i] = &RaceSummary{Race: d, Status: StatusSkipped, Error: reason}
	}

	for i, d := range descriptors {
		ex, err := r.Dispatcher.For(d.Algorithm)
		if err != nil {
			return nil, race.Fatal(fmt.Sprintf("race %q", d.Name()), err)
		}

		if d.Source() == "" {
			skip(i, d, "no url or file")
			continue
		}

		if err := ex.Check(d); err != nil {
			if ex.Strict() {
				logger.Error("invalid race configuration", logger.Fields(d.Fields()), err)
				metrics.RacesTotal.WithLabelValues(string(StatusFatal)).Inc()
				summaries[i] = &RaceSummary{Race: d, Status: StatusFatal, Error: err.Error()}
				return nil, race.Fatal(fmt.Sprintf("race %q configuration", d.Name()), err)
			}
			skip(i, d, err.Error())
			continue
		}

		jobs = append(jobs, job{index: i, desc: d, ex: ex})
	}
	return jobs, nil
}

// process runs one race. The error is non-nil only for batch-aborting
// conditions; everything else is folded into the summary.
func (r *Runner) process(ctx context.Context, gate *politeGate, j job) (*RaceSummary, error) {
	d := j.desc
	fields := logger.Fields(d.Fields())
	sum := &RaceSummary{Race: d}
	start := time.Now()

	done := func(status Status, err error) (*RaceSummary, error) {
		sum.Status = status
		sum.ElapsedMS = time.Since(start).Milliseconds()
		metrics.RacesTotal.WithLabelValues(string(status)).Inc()

		switch status {
		case StatusFatal:
			sum.Error = err.Error()
			logger.Error("aborting batch", fields, err)
			return sum, err
		case StatusFailed:
			sum.Error = err.Error()
			logger.Error("race failed", fields, err)
		case StatusEmpty, StatusSkipped:
			if err != nil {
				sum.Error = err.Error()
			}
			logger.Warn("no results stored", fields.With(logger.Fields{"status": string(status), "reason": sum.Error}))
		default:
			logger.Info("race complete", fields.With(logger.Fields{
				"status":   string(status),
				"parsed":   sum.Parsed,
				"inserted": sum.Inserted,
				"existing": sum.Existing,
			}))
		}
		return sum, nil
	}

	doc, err := r.fetch(ctx, gate, d)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return done(StatusFailed, err)
	}

	records, err := j.ex.Extract(doc, d)
	switch {
	case race.IsFatal(err):
		return done(StatusFatal, err)
	case errors.Is(err, scraper.ErrNoContent), errors.Is(err, scraper.ErrSectionNotFound):
		return done(StatusEmpty, err)
	case err != nil:
		return done(StatusFailed, err)
	}
	sum.Parsed = len(records)
	metrics.RecordsParsed.WithLabelValues(string(j.ex.Algorithm())).Add(float64(len(records)))

	kept, vr, err := validate.Check(records)
	if err != nil {
		return done(StatusFatal, err)
	}
	sum.Kept = len(kept)
	sum.Warnings = vr.Warnings
	for _, w := range vr.Warnings {
		logger.Warn("validation warning", fields.With(logger.Fields{"warning": w}))
	}
	metrics.ValidationWarnings.Add(float64(len(vr.Warnings)))

	if len(kept) == 0 {
		return done(StatusEmpty, errors.New("no results extracted"))
	}

	normalized := r.Normalizer.Records(kept, d)
	sum.Winner = winnerOf(normalized, d.Distance)

	if r.DryRun {
		return done(StatusParsed, nil)
	}

	if err := r.merge(ctx, d, normalized, sum); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return done(StatusFailed, err)
	}
	return done(StatusStored, nil)
}

func (r *Runner) fetch(ctx context.Context, gate *politeGate, d race.Descriptor) (*scraper.Document, error) {
	kind := "file"
	switch {
	case r.Fetcher.Cached(d):
		kind = "cache"
	case d.IsNetwork():
		kind = "http"
	}

	var doc *scraper.Document
	load := func() error {
		start := time.Now()
		var err error
		doc, err = r.Fetcher.Fetch(ctx, d)

		metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		return err
	}

	var err error
	if d.IsNetwork() && kind != "cache" {
		err = gate.do(ctx, load)
	} else {
		err = load()
	}
	return doc, err
}

// merge resolves the race identity and inserts the records not yet stored,
// reading existing keys and writing the delta in one transaction.
func (r *Runner) merge(ctx context.Context, d race.Descriptor, records []race.Record, sum *RaceSummary) error {
	venue := d.Venue
	if venue == "" {
		venue = UnknownVenue
	}

	venueID, err := r.Store.GetOrCreateVenue(ctx, venue)
	if err != nil {
		return err
	}
	meetID, err := r.Store.GetOrCreateMeet(ctx, storage.Meet{
		Name:      d.MeetName,
		Date:      d.Date,
		VenueID:   venueID,
		Season:    d.Season,
		SourceURL: d.Source(),
	})
	if err != nil {
		return err
	}
	raceID, err := r.Store.GetOrCreateRace(ctx, storage.Race{
		MeetID:   meetID,
		Name:     d.Name(),
		Distance: d.Distance,
		Class:    d.RaceClass,
		Gender:   d.StorageGender(),
	})
	if err != nil {
		return err
	}

	return r.Store.WithinRace(ctx, raceID, func(tx storage.Store) error {
		existing, err := tx.ListExistingResults(ctx, raceID)
		if err != nil {
			return err
		}

		delta := race.Delta(existing, records)
		sum.Existing = delta.Existing
		sum.Repeated = delta.Duplicates
		metrics.RecordsDuplicate.Add(float64(delta.Existing + delta.Duplicates))

		rows := make([]storage.Result, 0, len(delta.New))
		for _, rec := range delta.New {
			athleteID, err := tx.GetOrCreateAthlete(ctx, rec.Athlete)
			if err != nil {
				return err
			}
			rows = append(rows, storage.Result{
				AthleteID: athleteID,
				Seconds:   rec.Seconds,
				Place:     rec.Place,
				Points:    rec.Points,
			})
		}

		n, err := tx.InsertResults(ctx, raceID, rows)
		if err != nil {
			return err
		}
		sum.Inserted = n
		metrics.RecordsInserted.Add(float64(n))
		return nil
	})
}
