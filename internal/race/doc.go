// Package race provides the data model shared by the extraction pipeline:
// race descriptors read from configuration, parsed result records, and the
// dedup keys used to compute which records a storage backend still lacks.
//
// Result identity is a Key built from lower-cased name and school fields, the
// finish time rounded to hundredths, and the place. Delta compares freshly
// parsed records against the keys already stored for a race and returns only
// the missing ones, which makes repeated ingestion of the same document
// idempotent.
package race
