package service

import (
	"context"

	"StockScope/internal/domain/models"
)

// MarketData fetches the price series for a validated ticker.
type MarketData interface {
	Fetch(ctx context.Context, ticker models.Ticker) (*models.FetchResult, error)
}

// InsightSource turns a feature summary into a narrative assessment. It must
// always return a usable Insight; backend failures degrade, never propagate.
type InsightSource interface {
	Synthesize(ctx context.Context, ticker models.Ticker, set models.IndicatorSet, sector string) models.Insight
}
