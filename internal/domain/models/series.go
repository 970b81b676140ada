package models

import (
	"fmt"
	"time"
)

// Candle is a single OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is the historical OHLCV series for one ticker. Timestamps are
// strictly increasing; duplicate timestamps are rejected at construction.
type PriceSeries struct {
	Ticker  Ticker   `json:"ticker"`
	Candles []Candle `json:"candles"`
}

// NewPriceSeries validates candle ordering and builds a series.
func NewPriceSeries(ticker Ticker, candles []Candle) (*PriceSeries, error) {
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Time, candles[i].Time
		if cur.Equal(prev) {
			return nil, fmt.Errorf("duplicate timestamp %s in series for %s", cur.Format(time.RFC3339), ticker)
		}
		if cur.Before(prev) {
			return nil, fmt.Errorf("out-of-order timestamp %s in series for %s", cur.Format(time.RFC3339), ticker)
		}
	}
	return &PriceSeries{Ticker: ticker, Candles: candles}, nil
}

func (s *PriceSeries) Len() int { return len(s.Candles) }

// Closes extracts the close column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Volumes extracts the volume column.
func (s *PriceSeries) Volumes() []float64 {
	vols := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		vols[i] = c.Volume
	}
	return vols
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// FetchResult is what the market-data client hands to the pipeline: the
// series, when it was fetched upstream, and whether it was already older than
// the freshness threshold at that point.
type FetchResult struct {
	Series    *PriceSeries `json:"series"`
	FetchedAt time.Time    `json:"fetched_at"`
	Stale     bool         `json:"stale"`
}

// CacheEntry is the market-data cache record, owned exclusively by the
// market-data client and evicted by age.
type CacheEntry struct {
	Ticker    Ticker    `json:"ticker"`
	Candles   []Candle  `json:"candles"`
	FetchedAt time.Time `json:"fetched_at"`
}
