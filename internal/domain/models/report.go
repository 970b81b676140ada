package models

import "time"

// Freshness flags whether the series behind a report met the freshness
// threshold at fetch time.
type Freshness string

const (
	FreshnessFresh Freshness = "fresh"
	FreshnessStale Freshness = "stale"
)

// Report is the immutable result of one analysis request. It is created by
// the assembler, consumed once by the transport layer, and never mutated.
type Report struct {
	Ticker        Ticker       `json:"ticker"`
	Sector        string       `json:"sector,omitempty"`
	Indicators    IndicatorSet `json:"indicators"`
	Insight       Insight      `json:"insight"`
	DataFreshness Freshness    `json:"data_freshness"`
	GeneratedAt   time.Time    `json:"generated_at"`
}
