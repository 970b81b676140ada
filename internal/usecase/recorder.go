package usecase

import (
	"context"
	"sync"
	"time"

	"StockScope/internal/domain/models"
	"StockScope/internal/domain/repository"
	applogger "StockScope/pkg/logger"
)

// ReportRecorder hands completed reports to the delivery backend off the
// request path. Delivery failures are logged, never surfaced to the caller.
type ReportRecorder struct {
	sink    repository.ReportSink
	logger  *applogger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewReportRecorder creates a recorder around the configured sink.
func NewReportRecorder(sink repository.ReportSink, logger *applogger.Logger, timeout time.Duration) *ReportRecorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReportRecorder{sink: sink, logger: logger, timeout: timeout}
}

// RecordAsync delivers the report in the background.
func (r *ReportRecorder) RecordAsync(rep *models.Report) {
	if r == nil || r.sink == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.sink.Record(ctx, rep); err != nil {
			r.logger.Warn("report delivery failed",
				applogger.String("ticker", rep.Ticker.String()),
				applogger.Error(err),
			)
		}
	}()
}

// Close waits for in-flight deliveries and closes the sink.
func (r *ReportRecorder) Close() error {
	if r == nil {
		return nil
	}
	r.wg.Wait()
	if r.sink == nil {
		return nil
	}
	return r.sink.Close()
}
