package usecase

import (
	"context"
	"errors"
	"time"

	"StockScope/internal/domain/models"
	"StockScope/internal/domain/repository"
	"StockScope/internal/domain/service"
	"StockScope/internal/indicator"
	"StockScope/internal/report"
	"StockScope/internal/sector"
	applogger "StockScope/pkg/logger"
)

// AnalysisPipeline runs one request through fetch, compute, synthesize and
// assemble. Each request moves through the stages in order and ends done or
// failed; a global timeout bounds the whole run.
type AnalysisPipeline struct {
	market        service.MarketData
	engine        *indicator.Engine
	insight       service.InsightSource
	assembler     *report.Assembler
	recorder      *ReportRecorder
	metrics       repository.Metrics
	logger        *applogger.Logger
	globalTimeout time.Duration
}

// NewAnalysisPipeline wires the pipeline stages together.
func NewAnalysisPipeline(
	market service.MarketData,
	engine *indicator.Engine,
	insight service.InsightSource,
	assembler *report.Assembler,
	recorder *ReportRecorder,
	metrics repository.Metrics,
	logger *applogger.Logger,
	globalTimeout time.Duration,
) *AnalysisPipeline {
	return &AnalysisPipeline{
		market:        market,
		engine:        engine,
		insight:       insight,
		assembler:     assembler,
		recorder:      recorder,
		metrics:       metrics,
		logger:        logger,
		globalTimeout: globalTimeout,
	}
}

// Analyze validates the symbol, then runs the stages. Fatal errors carry the
// stage they occurred in; a degraded insight is not an error.
func (p *AnalysisPipeline) Analyze(ctx context.Context, rawSymbol string) (*models.Report, error) {
	started := time.Now()

	// Validation happens before any network activity.
	ticker, err := models.ParseTicker(rawSymbol)
	if err != nil {
		p.metrics.RecordError("invalid_ticker")
		return nil, models.NewAnalysisError(models.Ticker(rawSymbol), models.StagePending, err)
	}

	if p.globalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.globalTimeout)
		defer cancel()
	}

	res, err := runStage(p, ctx, models.StageFetching, func() (*models.FetchResult, error) {
		return p.market.Fetch(ctx, ticker)
	})
	if err != nil {
		return nil, p.fail(ticker, models.StageFetching, err)
	}

	set, err := runStage(p, ctx, models.StageComputing, func() (models.IndicatorSet, error) {
		return p.engine.Compute(res.Series)
	})
	if err != nil {
		return nil, p.fail(ticker, models.StageComputing, err)
	}

	sec := sector.Lookup(ticker)

	// Synthesize never fails; the backend degrades to the fallback insight.
	synthStart := time.Now()
	ins := p.insight.Synthesize(ctx, ticker, set, sec)
	p.metrics.RecordStageLatency(string(models.StageSynthesizing), time.Since(synthStart).Seconds())

	// The fallback absorbs backend failures only. A tripped global deadline
	// still aborts the request instead of assembling a degraded report.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, p.fail(ticker, models.StageSynthesizing, models.ErrTimeout)
	}

	rep, err := runStage(p, ctx, models.StageAssembling, func() (*models.Report, error) {
		freshness := models.FreshnessFresh
		if res.Stale {
			freshness = models.FreshnessStale
		}
		return p.assembler.Assemble(ticker, sec, set, ins, freshness)
	})
	if err != nil {
		return nil, p.fail(ticker, models.StageAssembling, err)
	}

	p.metrics.RecordStageLatency(string(models.StageDone), time.Since(started).Seconds())
	p.logger.Info("analysis done",
		applogger.String("ticker", ticker.String()),
		applogger.Bool("degraded", ins.Degraded),
		applogger.Bool("stale", res.Stale),
		applogger.Duration("elapsed", time.Since(started)),
	)

	if p.recorder != nil {
		p.recorder.RecordAsync(rep)
	}
	return rep, nil
}

// runStage times one stage and maps a tripped global deadline to the
// timeout error kind.
func runStage[T any](p *AnalysisPipeline, ctx context.Context, stage models.Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	p.metrics.RecordStageLatency(string(stage), time.Since(start).Seconds())
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		err = models.ErrTimeout
	}
	return v, err
}

func (p *AnalysisPipeline) fail(ticker models.Ticker, stage models.Stage, err error) error {
	p.metrics.RecordError(failureKind(err))
	p.logger.Warn("analysis failed",
		applogger.String("ticker", ticker.String()),
		applogger.String("stage", string(stage)),
		applogger.Error(err),
	)
	return models.NewAnalysisError(ticker, stage, err)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrTimeout):
		return "timeout"
	case errors.Is(err, models.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
