package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"StockScope/internal/domain/models"
)

const truncationSuffix = "..."

// Assembler builds the final immutable Report and enforces the encoded size
// ceiling. Only the narrative is ever truncated; indicator values and
// metadata are kept intact.
type Assembler struct {
	maxBytes int
	now      func() time.Time
}

// NewAssembler creates an assembler with an encoded-size ceiling in bytes.
// A non-positive ceiling disables truncation.
func NewAssembler(maxBytes int) *Assembler {
	return &Assembler{maxBytes: maxBytes, now: time.Now}
}

// Assemble produces the report for one completed analysis.
func (a *Assembler) Assemble(ticker models.Ticker, sector string, set models.IndicatorSet, ins models.Insight, freshness models.Freshness) (*models.Report, error) {
	r := &models.Report{
		Ticker:        ticker,
		Sector:        sector,
		Indicators:    set,
		Insight:       ins,
		DataFreshness: freshness,
		GeneratedAt:   a.now().UTC(),
	}

	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if a.maxBytes <= 0 || len(encoded) <= a.maxBytes {
		return r, nil
	}

	overshoot := len(encoded) - a.maxBytes
	r.Insight.Narrative = shorten(r.Insight.Narrative, overshoot)
	return r, nil
}

// shorten removes at least overshoot bytes from the narrative, backing up to
// a rune boundary and appending a truncation marker when anything remains.
func shorten(narrative string, overshoot int) string {
	keep := len(narrative) - overshoot - len(truncationSuffix)
	if keep <= 0 {
		return ""
	}
	for keep > 0 && !utf8.RuneStart(narrative[keep]) {
		keep--
	}
	return strings.TrimRight(narrative[:keep], " ") + truncationSuffix
}
