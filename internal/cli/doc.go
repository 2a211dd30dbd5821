// Package cli implements the command-line interface for xc-results.
//
// The cli package provides the Cobra-based CLI: it loads the race
// configuration, narrows it with the selection flags, opens the store named by
// the DSN, runs the ingest batch and writes a run summary as text or JSON. The
// exit status is ExitFatal when the batch aborted on a fatal extraction
// condition, ExitFailure when any race failed or the run could not start, and
// ExitSuccess otherwise.
package cli
