// Package ingest drives a batch of race descriptors through fetch, extract,
// validate, normalize and merge.
//
// A Runner checks every descriptor before anything is fetched. Races whose
// layout cannot be processed are skipped, except for strict layouts where a
// bad descriptor aborts the batch. Each remaining race is fetched, parsed and
// written independently: a failure is recorded in its RaceSummary and the
// batch moves on. Only a race.FatalError stops the run, since it signals a
// layout assumption that no longer holds.
//
// Network fetches share a politeness gate so consecutive requests are spaced
// by PolitenessDelay, whether races run sequentially or across workers.
package ingest
