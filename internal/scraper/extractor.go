package scraper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/metrics"
	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/racetime"
)

var (
	// ErrNoContent means the document holds nothing the layout recognizes.
	ErrNoContent = errors.New("no results content found")

	// ErrSectionNotFound means the descriptor's results section is absent.
	ErrSectionNotFound = errors.New("results section not found")

	// ErrMissingTitle means a layout needs a results title the descriptor lacks.
	ErrMissingTitle = errors.New("results_title is required")
)

// DefaultReferenceYear is the graduation year assigned to seniors when no
// reference year is configured.
const DefaultReferenceYear = 2025

// Extractor turns one source layout into parsed records.
type Extractor interface {
	// Algorithm is the identifier that selects this extractor.
	Algorithm() race.Algorithm

	// Strict extractors abort the run on a structurally valid row whose time
	// does not parse, and on descriptors that fail Check.
	Strict() bool

	// Check validates the descriptor fields this layout needs.
	Check(d race.Descriptor) error

	// Extract returns the race's records in document order. Missing content
	// or a missing section yields an error wrapping ErrNoContent or
	// ErrSectionNotFound; fatal conditions wrap race.FatalError.
	Extract(doc *Document, d race.Descriptor) ([]race.Record, error)
}

// Options configure extractor construction.
type Options struct {
	// ReferenceYear is the graduation year of a senior.
	ReferenceYear int
}

func (o Options) referenceYear() int {
	if o.ReferenceYear > 0 {
		return o.ReferenceYear
	}
	return DefaultReferenceYear
}

var registry = map[race.Algorithm]func(Options) Extractor{
	race.AlgorithmDefault:      func(o Options) Extractor { return newChainExtractor(o) },
	race.AlgorithmTable:        func(o Options) Extractor { return &TableExtractor{opts: o} },
	race.AlgorithmPreformatted: func(o Options) Extractor { return &PreformattedExtractor{} },
	race.AlgorithmPipe:         func(o Options) Extractor { return &PipeExtractor{opts: o} },
	race.AlgorithmHyTek:        func(o Options) Extractor { return &HyTekExtractor{opts: o} },
	race.AlgorithmTabbed:       func(o Options) Extractor { return &TabbedExtractor{opts: o} },
	race.AlgorithmIndexed:      func(o Options) Extractor { return &IndexedExtractor{opts: o} },
}

// Dispatcher hands out extractors by algorithm identifier.
type Dispatcher struct {
	extractors map[race.Algorithm]Extractor
}

// NewDispatcher builds one extractor per registered algorithm. Extractors
// keep per-call state on the stack, so a Dispatcher may be shared.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{extractors: make(map[race.Algorithm]Extractor, len(registry))}
	for alg, build := range registry {
		d.extractors[alg] = build(opts)
	}
	return d
}

// For returns the extractor for alg. An empty algorithm selects the default chain.
func (d *Dispatcher) For(alg race.Algorithm) (Extractor, error) {
	if alg == "" {
		alg = race.AlgorithmDefault
	}
	ex, ok := d.extractors[alg]
	if !ok {
		return nil, fmt.Errorf("no extractor for algorithm %q", alg)
	}
	return ex, nil
}

// Algorithms lists the registered identifiers in sorted order.
func (d *Dispatcher) Algorithms() []race.Algorithm {
	out := make([]race.Algorithm, 0, len(d.extractors))
	for alg := range d.extractors {
		out = append(out, alg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// parseTime converts a time token. A value above the ceiling is fatal for
// every layout; other failures are returned for the caller to judge.
func parseTime(s string) (float64, error) {
	v, err := racetime.Parse(s)
	if errors.Is(err, racetime.ErrExceedsCeiling) {
		return 0, race.Fatal("time above sanity ceiling", err)
	}
	return v, err
}

// skipLine records a line that did not fit the layout's grammar.
func skipLine(d race.Descriptor, lineNo int, line, reason string) {
	metrics.LinesSkipped.WithLabelValues(string(d.Algorithm)).Inc()
	logger.Warn("skipped line", logger.Fields(d.Fields()).With(logger.Fields{
		"line_number": lineNo,
		"line":        truncate(line, 120),
		"reason":      reason,
	}))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
