package race

// DeltaResult holds the outcome of comparing parsed records against storage.
type DeltaResult struct {
	New        []Record // records whose key is not stored yet, in input order
	Existing   int      // records already stored
	Duplicates int      // records repeated within the parsed batch
}

// Delta returns the records whose key is absent from existing. A key that
// appears twice in records is only returned once.
func Delta(existing KeySet, records []Record) *DeltaResult {
	result := &DeltaResult{
		New: make([]Record, 0, len(records)),
	}

	if existing == nil {
		existing = NewKeySet()
	}

	seen := NewKeySet()
	for _, rec := range records {
		key := rec.Key()

		if existing.Has(key) {
			result.Existing++
			continue
		}
		if seen.Has(key) {
			result.Duplicates++
			continue
		}

		seen.Add(key)
		result.New = append(result.New, rec)
	}

	return result
}
