package models

import (
	"errors"
	"testing"
	"time"
)

func mustCandles(t *testing.T, n int) []Candle {
	t.Helper()
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	out := make([]Candle, n)
	for i := range out {
		out[i] = Candle{
			Time:   base.AddDate(0, 0, i),
			Open:   10,
			High:   11,
			Low:    9,
			Close:  10 + float64(i),
			Volume: 1000,
		}
	}
	return out
}

func TestParseTickerNormalizes(t *testing.T) {
	cases := map[string]Ticker{
		"aapl":      "AAPL",
		" MSFT ":    "MSFT",
		"reliance.ns": "RELIANCE",
		"tcs.bo":    "TCS",
		"BRK2":      "BRK2",
	}
	for raw, want := range cases {
		got, err := ParseTicker(raw)
		if err != nil {
			t.Fatalf("ParseTicker(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseTicker(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseTickerRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "TOOLONGSYMBOL", "BRK.A", "AB CD", "a$pl"} {
		if _, err := ParseTicker(raw); !errors.Is(err, ErrInvalidTicker) {
			t.Fatalf("ParseTicker(%q): expected ErrInvalidTicker, got %v", raw, err)
		}
	}
}

func TestNewPriceSeriesOrdering(t *testing.T) {
	base := mustCandles(t, 3)

	if _, err := NewPriceSeries("AAPL", base); err != nil {
		t.Fatalf("ordered series rejected: %v", err)
	}

	dup := append([]Candle{}, base...)
	dup[2].Time = dup[1].Time
	if _, err := NewPriceSeries("AAPL", dup); err == nil {
		t.Fatalf("expected duplicate timestamp error")
	}

	swapped := append([]Candle{}, base...)
	swapped[1], swapped[2] = swapped[2], swapped[1]
	if _, err := NewPriceSeries("AAPL", swapped); err == nil {
		t.Fatalf("expected out-of-order error")
	}
}

func TestIndicatorValueJSON(t *testing.T) {
	b, err := Number(42.5).MarshalJSON()
	if err != nil {
		t.Fatalf("marshal number: %v", err)
	}
	if string(b) != "42.5" {
		t.Fatalf("unexpected number encoding %s", b)
	}

	b, err = Insufficient().MarshalJSON()
	if err != nil {
		t.Fatalf("marshal marker: %v", err)
	}
	if string(b) != `"insufficient-data"` {
		t.Fatalf("unexpected marker encoding %s", b)
	}
}

func TestIndicatorSetNamesSorted(t *testing.T) {
	set := IndicatorSet{"z": Number(1), "a": Number(2), "m": Insufficient()}
	names := set.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "m" || names[2] != "z" {
		t.Fatalf("unexpected order %v", names)
	}
}
