// Package metrics holds the Prometheus collectors for ingestion runs.
//
// Runs are short-lived batch jobs, so nothing is served over HTTP. The
// registry is written to a node_exporter textfile at the end of a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "xc_results"

// Registry holds every collector below. It is separate from the default
// registry so the textfile carries no Go runtime metrics.
var Registry = prometheus.NewRegistry()

var auto = promauto.With(Registry)

var (
	// RacesTotal counts processed races by outcome status.
	RacesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_total",
		Help:      "Races processed, by outcome status",
	}, []string{"status"})

	// RecordsParsed counts records produced by each extractor.
	RecordsParsed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_parsed_total",
		Help:      "Records produced by extractors, by algorithm",
	}, []string{"algorithm"})

	RecordsInserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_inserted_total",
		Help:      "Result rows written to storage",
	})

	RecordsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_duplicate_total",
		Help:      "Parsed records already present in storage or repeated in a batch",
	})

	// LinesSkipped counts source lines an extractor could not use.
	LinesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_skipped_total",
		Help:      "Source lines skipped by extractors, by algorithm",
	}, []string{"algorithm"})

	ValidationWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_warnings_total",
		Help:      "Warnings raised while validating parsed races",
	})

	// FetchDuration observes document load time by source kind: http, file or
	// cache.
	FetchDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time spent loading result documents",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// WriteTextfile writes the registry in the text exposition format. The file
// is written to a temporary name and renamed into place.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
