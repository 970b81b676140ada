package repository

import (
	"context"

	"StockScope/internal/domain/models"
)

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordStageLatency(stage string, seconds float64)
	RecordError(kind string)
	RecordCacheHit(ticker string)
	RecordCacheMiss(ticker string)
	RecordUpstreamCall(ticker string)
	RecordLastPrice(ticker string, price float64)
}

// ReportSink receives completed reports for delivery or history.
type ReportSink interface {
	Record(ctx context.Context, r *models.Report) error
	Close() error
}
