package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"StockScope/internal/domain/models"
	"StockScope/pkg/cache"
	xhttp "StockScope/pkg/http"
	applogger "StockScope/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordStageLatency(string, float64) {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordCacheHit(string)              {}
func (nopMetrics) RecordCacheMiss(string)             {}
func (nopMetrics) RecordUpstreamCall(string)          {}
func (nopMetrics) RecordLastPrice(string, float64)    {}

func chartBody(t *testing.T, closes []float64) []byte {
	t.Helper()
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	ts := make([]int64, len(closes))
	quote := map[string][]interface{}{
		"open": {}, "high": {}, "low": {}, "close": {}, "volume": {},
	}
	for i, c := range closes {
		ts[i] = base.AddDate(0, 0, i).Unix()
		quote["open"] = append(quote["open"], c)
		quote["high"] = append(quote["high"], c+1)
		quote["low"] = append(quote["low"], c-1)
		quote["close"] = append(quote["close"], c)
		quote["volume"] = append(quote["volume"], 1000.0)
	}
	body, err := json.Marshal(map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []interface{}{
				map[string]interface{}{
					"timestamp":  ts,
					"indicators": map[string]interface{}{"quote": []interface{}{quote}},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("encode chart: %v", err)
	}
	return body
}

func newTestClient(t *testing.T, baseURL string, maxRetries int) *Client {
	t.Helper()
	provider := NewProvider(xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), baseURL, "", "1d", "3mo")
	c := NewClient(provider, cache.NewMemoryCache(), nopMetrics{}, applogger.Nop(), Config{
		Interval:       "1d",
		IntradayTTL:    5 * time.Minute,
		HistoricalTTL:  time.Hour,
		CacheRetention: 48 * time.Hour,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     maxRetries,
		BackoffBase:    time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.cache.Close() })
	return c
}

func TestFetchCachesSeries(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		_, _ = w.Write(chartBody(t, []float64{10, 11, 12}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	ctx := context.Background()

	first, err := c.Fetch(ctx, "AAPL")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.Stale {
		t.Fatalf("fresh fetch marked stale")
	}
	if first.Series.Len() != 3 {
		t.Fatalf("series len = %d, want 3", first.Series.Len())
	}

	second, err := c.Fetch(ctx, "AAPL")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Fatalf("cache miss on fresh entry")
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
}

func TestFetchCoalescesConcurrent(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write(chartBody(t, []float64{10, 11, 12}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Fetch(context.Background(), "AAPL")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
}

func TestFetchRetriesTransient(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(chartBody(t, []float64{10, 11, 12}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	if _, err := c.Fetch(context.Background(), "AAPL"); err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 3 {
		t.Fatalf("upstream calls = %d, want 3", n)
	}
}

func TestFetchNotFoundNoRetry(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.Fetch(context.Background(), "NOPE")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
}

func TestFetchServesStaleOnOutage(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(chartBody(t, []float64{10, 11, 12}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	ctx := context.Background()

	first, err := c.Fetch(ctx, "AAPL")
	if err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	// Expire the entry and take the upstream down.
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	failing.Store(true)

	res, err := c.Fetch(ctx, "AAPL")
	if err != nil {
		t.Fatalf("expected stale serve, got error %v", err)
	}
	if !res.Stale {
		t.Fatalf("expected stale result")
	}
	if !res.FetchedAt.Equal(first.FetchedAt) {
		t.Fatalf("stale result should carry the original fetch time")
	}
}

func TestCancelledWaiterStillFillsCache(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write(chartBody(t, []float64{10, 11, 12}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Fetch(ctx, "AAPL"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}

	// The detached fetch keeps going and fills the cache.
	time.Sleep(300 * time.Millisecond)
	if _, err := c.Fetch(context.Background(), "AAPL"); err != nil {
		t.Fatalf("follow-up fetch: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
}
