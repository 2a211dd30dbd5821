// Package racetime converts elapsed-time text from race result documents into
// fractional seconds and back.
//
// Accepted shapes are H:MM:SS(.f|.ff), MM:SS(.f|.ff) and bare seconds with a
// fraction (SSS.f to SSSS.ff). A one-digit fraction is tenths, two digits are
// hundredths. Parsed values above Ceiling are rejected with ErrExceedsCeiling,
// which callers treat as a corrupted layout rather than a slow runner.
package racetime
