package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"StockScope/internal/domain/models"
	xhttp "StockScope/pkg/http"
)

// chartResponse is the provider's chart payload. Null bars appear on
// holidays and half-days; they are skipped during conversion.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Provider fetches OHLCV history from the market data HTTP API.
type Provider struct {
	client   *xhttp.Client
	baseURL  string
	apiKey   string
	interval string
	rng      string
}

// NewProvider creates a chart API provider. baseURL is configurable so tests
// can point it at a local server.
func NewProvider(client *xhttp.Client, baseURL, apiKey, interval, rng string) *Provider {
	return &Provider{
		client:   client,
		baseURL:  baseURL,
		apiKey:   apiKey,
		interval: interval,
		rng:      rng,
	}
}

// FetchChart retrieves the candle history for one ticker. Upstream failures
// are mapped onto the domain error kinds.
func (p *Provider) FetchChart(ctx context.Context, ticker models.Ticker) ([]models.Candle, error) {
	opts := &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", p.baseURL, url.PathEscape(ticker.String())),
		QueryParams: map[string]string{
			"interval": p.interval,
			"range":    p.rng,
		},
		Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
	}
	if p.apiKey != "" {
		opts.Headers["X-Api-Key"] = p.apiKey
	}

	var chart chartResponse
	if err := p.client.SendAndParse(ctx, opts, &chart); err != nil {
		return nil, mapFetchError(ticker, err)
	}

	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", ticker, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: provider error %s: %w", ticker, chart.Chart.Error.Code, models.ErrUpstreamUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: empty chart: %w", ticker, models.ErrNotFound)
	}

	return toCandles(&chart), nil
}

func mapFetchError(ticker models.Ticker, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Status == http.StatusNotFound:
			return fmt.Errorf("%s: %w", ticker, models.ErrNotFound)
		case se.Status == http.StatusTooManyRequests:
			return &models.RateLimitError{RetryAfter: retryAfter(se.Header)}
		case se.Status >= 500:
			return fmt.Errorf("%s: status %d: %w", ticker, se.Status, models.ErrUpstreamUnavailable)
		default:
			return fmt.Errorf("%s: status %d: %w", ticker, se.Status, models.ErrUpstreamUnavailable)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", ticker, models.ErrTimeout)
	}
	return fmt.Errorf("%s: %v: %w", ticker, err, models.ErrUpstreamUnavailable)
}

func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func toCandles(chart *chartResponse) []models.Candle {
	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	candles := make([]models.Candle, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue
		}
		candles = append(candles, models.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(at(quote.Volume, i)),
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles
}

func at(vals []interface{}, i int) interface{} {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
