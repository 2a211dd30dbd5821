// Package scraper fetches race result documents and extracts finisher
// records from them.
//
// Each publishing layout has its own Extractor: HTML result tables, MileSplit
// preformatted blocks, pipe-delimited text, and section-scoped layouts
// (Hy-Tek, tab-separated dumps, indexed multi-race documents) that locate one
// race's section inside a combined document before tokenizing its lines.
// Extractors are selected by the descriptor's algorithm through a Dispatcher.
//
// Lines that fail a layout's grammar are logged and skipped. A time above the
// sanity ceiling, or an unparseable time in a strict layout, aborts the run
// with a race.FatalError.
package scraper
