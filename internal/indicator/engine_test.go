package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockScope/internal/domain/models"
)

func seriesOf(t *testing.T, closes []float64) *models.PriceSeries {
	t.Helper()
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i),
		}
	}
	s, err := models.NewPriceSeries("TEST", candles)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestComputeEmptySeries(t *testing.T) {
	e := NewEngine()
	if _, err := e.Compute(&models.PriceSeries{Ticker: "TEST"}); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := e.Compute(nil); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for nil series, got %v", err)
	}
}

func TestComputeShortSeriesDegrades(t *testing.T) {
	e := NewEngine()
	set, err := e.Compute(seriesOf(t, []float64{10, 11, 12}))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	for _, name := range []string{
		"moving-average-20",
		"moving-average-50",
		"exponential-moving-average-12",
		"exponential-moving-average-26",
		"macd-12-26",
		"relative-strength-index-14",
		"volume-average-20",
	} {
		if set[name].Valid {
			t.Errorf("%s: expected insufficient-data for 3 candles", name)
		}
	}

	lc := set["last-close"]
	if !lc.Valid || !almost(lc.Value, 12) {
		t.Fatalf("last-close = %+v, want 12", lc)
	}
}

func TestComputeMovingAverages(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(i + 1) // 1..60
	}
	e := NewEngine()
	set, err := e.Compute(seriesOf(t, closes))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// mean of 41..60 and 11..60
	if v := set["moving-average-20"]; !v.Valid || !almost(v.Value, 50.5) {
		t.Fatalf("sma20 = %+v, want 50.5", v)
	}
	if v := set["moving-average-50"]; !v.Valid || !almost(v.Value, 35.5) {
		t.Fatalf("sma50 = %+v, want 35.5", v)
	}
	if v := set["macd-12-26"]; !v.Valid || v.Value <= 0 {
		t.Fatalf("macd = %+v, want positive in an uptrend", v)
	}
}

func TestRSIExtremes(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = float64(10 + i)
		down[i] = float64(100 - i)
	}
	e := NewEngine()

	set, err := e.Compute(seriesOf(t, up))
	if err != nil {
		t.Fatalf("compute up: %v", err)
	}
	if v := set["relative-strength-index-14"]; !v.Valid || !almost(v.Value, 100) {
		t.Fatalf("rsi(all gains) = %+v, want 100", v)
	}

	set, err = e.Compute(seriesOf(t, down))
	if err != nil {
		t.Fatalf("compute down: %v", err)
	}
	if v := set["relative-strength-index-14"]; !v.Valid || !almost(v.Value, 0) {
		t.Fatalf("rsi(all losses) = %+v, want 0", v)
	}
}

func TestRSIWilderSmoothing(t *testing.T) {
	// Alternate +2/-1 deltas; RSI must land strictly between the extremes
	// and above 50 since gains dominate.
	closes := []float64{50}
	for i := 0; i < 29; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[len(closes)-1]+2)
		} else {
			closes = append(closes, closes[len(closes)-1]-1)
		}
	}
	e := NewEngine()
	set, err := e.Compute(seriesOf(t, closes))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	v := set["relative-strength-index-14"]
	if !v.Valid || v.Value <= 50 || v.Value >= 100 {
		t.Fatalf("rsi = %+v, want in (50, 100)", v)
	}
}
