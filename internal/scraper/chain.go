package scraper

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
)

// chainExtractor is the default strategy: preformatted text first, then an
// HTML table, then pipe-delimited text.
type chainExtractor struct {
	pre   *PreformattedExtractor
	table *TableExtractor
	pipe  *PipeExtractor
}

func newChainExtractor(o Options) *chainExtractor {
	return &chainExtractor{
		pre:   &PreformattedExtractor{},
		table: &TableExtractor{opts: o},
		pipe:  &PipeExtractor{opts: o},
	}
}

func (e *chainExtractor) Algorithm() race.Algorithm { return race.AlgorithmDefault }
func (e *chainExtractor) Strict() bool              { return false }
func (e *chainExtractor) Check(race.Descriptor) error {
	return nil
}

func (e *chainExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	records, err := e.pre.Extract(doc, d)
	switch {
	case err == nil && len(records) > 0:
		logger.Info("using preformatted layout", logger.Fields{"race": d.Name(), "count": len(records)})
		return records, nil
	case err != nil && !errors.Is(err, ErrNoContent):
		return nil, err
	}

	records, err = e.table.Extract(doc, d)
	switch {
	case err == nil:
		logger.Info("using table layout", logger.Fields{"race": d.Name(), "count": len(records)})
		return records, nil
	case !errors.Is(err, ErrNoContent):
		return nil, err
	}

	records, err = e.pipe.Extract(doc, d)
	if err != nil {
		return nil, fmt.Errorf("pipe-delimited text: %w", err)
	}
	logger.Info("using pipe-delimited layout", logger.Fields{"race": d.Name(), "count": len(records)})
	return records, nil
}
