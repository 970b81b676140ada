package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"StockScope/internal/domain/models"
	"StockScope/internal/domain/repository"
	"StockScope/pkg/cache"
	applogger "StockScope/pkg/logger"
)

// Config tunes freshness, retries and timeouts for the client.
type Config struct {
	Interval       string
	IntradayTTL    time.Duration
	HistoricalTTL  time.Duration
	CacheRetention time.Duration
	RequestTimeout time.Duration
	MaxRetries     int // total attempts, not extra retries
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

// Client is the caching, coalescing front of the market data provider.
// Cache entries are owned here; nothing else reads or writes series keys.
type Client struct {
	provider *Provider
	cache    cache.Service
	metrics  repository.Metrics
	logger   *applogger.Logger
	group    *fetchGroup
	cfg      Config
	now      func() time.Time
}

// NewClient creates the market data client.
func NewClient(provider *Provider, cacheSvc cache.Service, metrics repository.Metrics, logger *applogger.Logger, cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Client{
		provider: provider,
		cache:    cacheSvc,
		metrics:  metrics,
		logger:   logger,
		group:    newFetchGroup(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Fetch returns the price series for a ticker, serving from cache when the
// entry is within the freshness window. Concurrent fetches for one ticker
// coalesce into a single upstream call. A caller whose context ends while
// waiting gets its context error; the fetch still completes and fills the
// cache for the next request.
func (c *Client) Fetch(ctx context.Context, ticker models.Ticker) (*models.FetchResult, error) {
	key := seriesKey(ticker)

	if entry, ok := c.lookup(ctx, key); ok && c.now().Sub(entry.FetchedAt) <= c.freshTTL() {
		if series, err := models.NewPriceSeries(ticker, entry.Candles); err == nil {
			c.metrics.RecordCacheHit(ticker.String())
			return &models.FetchResult{Series: series, FetchedAt: entry.FetchedAt}, nil
		}
	}
	c.metrics.RecordCacheMiss(ticker.String())

	detached := context.WithoutCancel(ctx)
	return c.group.Do(ctx, key, func() (*models.FetchResult, error) {
		return c.refresh(detached, ticker, key)
	})
}

// refresh calls upstream and replaces the cache entry. On a transient
// failure an expired entry still within retention is served marked stale.
func (c *Client) refresh(ctx context.Context, ticker models.Ticker, key string) (*models.FetchResult, error) {
	candles, err := c.fetchWithRetry(ctx, ticker)
	if err != nil {
		if isTransient(err) {
			if entry, ok := c.lookup(ctx, key); ok {
				if series, serr := models.NewPriceSeries(ticker, entry.Candles); serr == nil {
					c.logger.Warn("serving stale series after upstream failure",
						applogger.String("ticker", ticker.String()),
						applogger.Error(err),
					)
					return &models.FetchResult{Series: series, FetchedAt: entry.FetchedAt, Stale: true}, nil
				}
			}
		}
		return nil, err
	}

	fetchedAt := c.now().UTC()
	series, err := models.NewPriceSeries(ticker, candles)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", ticker, err, models.ErrUpstreamUnavailable)
	}

	c.store(ctx, key, &models.CacheEntry{Ticker: ticker, Candles: candles, FetchedAt: fetchedAt})
	if lc := series.LastClose(); lc > 0 {
		c.metrics.RecordLastPrice(ticker.String(), lc)
	}
	return &models.FetchResult{Series: series, FetchedAt: fetchedAt}, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, ticker models.Ticker) ([]models.Candle, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		c.metrics.RecordUpstreamCall(ticker.String())

		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		candles, err := c.provider.FetchChart(reqCtx, ticker)
		cancel()
		if err == nil {
			return candles, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == c.cfg.MaxRetries {
			break
		}

		delay := c.backoff(attempt, err)
		c.logger.Debug("retrying upstream fetch",
			applogger.String("ticker", ticker.String()),
			applogger.Int("attempt", attempt),
			applogger.Duration("delay", delay),
			applogger.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", ticker, models.ErrTimeout)
		}
	}
	c.metrics.RecordError(errorKind(lastErr))
	return nil, lastErr
}

// backoff doubles the base per attempt with jitter, honoring a larger
// upstream retry-after hint.
func (c *Client) backoff(attempt int, err error) time.Duration {
	d := c.cfg.BackoffBase << (attempt - 1)
	if d > c.cfg.BackoffMax {
		d = c.cfg.BackoffMax
	}
	d += time.Duration(rand.Int63n(int64(c.cfg.BackoffBase) + 1))

	var rl *models.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > d {
		d = rl.RetryAfter
	}
	if d > c.cfg.BackoffMax {
		d = c.cfg.BackoffMax
	}
	return d
}

func (c *Client) freshTTL() time.Duration {
	if strings.HasSuffix(c.cfg.Interval, "m") || strings.HasSuffix(c.cfg.Interval, "h") {
		return c.cfg.IntradayTTL
	}
	return c.cfg.HistoricalTTL
}

func (c *Client) lookup(ctx context.Context, key string) (*models.CacheEntry, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("cache read error", applogger.String("key", key), applogger.Error(err))
		}
		return nil, false
	}
	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("corrupt cache entry dropped", applogger.String("key", key), applogger.Error(err))
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}
	return &entry, true
}

func (c *Client) store(ctx context.Context, key string, entry *models.CacheEntry) {
	b, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cache encode error", applogger.String("key", key), applogger.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, string(b), c.cfg.CacheRetention); err != nil {
		c.logger.Warn("cache write error", applogger.String("key", key), applogger.Error(err))
	}
}

func seriesKey(ticker models.Ticker) string {
	return "series:" + ticker.String()
}

// isTransient reports whether a retry could plausibly succeed.
func isTransient(err error) bool {
	return errors.Is(err, models.ErrTimeout) ||
		errors.Is(err, models.ErrUpstreamUnavailable) ||
		errors.Is(err, models.ErrRateLimited)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrTimeout):
		return "timeout"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}
