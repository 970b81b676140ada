package api

import (
	"errors"
	"time"

	"StockScope/internal/domain/models"
	imetrics "StockScope/internal/service/metrics"
	"StockScope/internal/service/ratelimit"
	"StockScope/internal/usecase"
	xhttp "StockScope/pkg/http"
	xlogger "StockScope/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Per-client request budget for the analyze endpoint.
const (
	limiterCapacity  = 10
	limiterRefillSec = 2
)

// AnalyzeHandler exposes the analysis pipeline over HTTP.
type AnalyzeHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.AnalysisPipeline
	limiter  *ratelimit.Limiter
}

func NewAnalyzeHandler(logger *xlogger.Logger, pipeline *usecase.AnalysisPipeline) *AnalyzeHandler {
	imetrics.Register()
	return &AnalyzeHandler{
		logger:   logger,
		pipeline: pipeline,
		limiter:  ratelimit.New(),
	}
}

func (h *AnalyzeHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.POST("/analyze", h.Analyze)
	e.GET("/healthz", h.Health)
}

// Analyze runs one request through the pipeline and renders the report.
func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer func() {
		imetrics.AnalysisLatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	}()

	if !h.limiter.Allow(c.RealIP(), limiterCapacity, limiterRefillSec) {
		imetrics.AnalysisErrors.WithLabelValues("analyze").Inc()
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
	}

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		imetrics.AnalysisErrors.WithLabelValues("analyze").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, err := h.pipeline.Analyze(c.Request().Context(), req.Symbol)
	if err != nil {
		imetrics.AnalysisErrors.WithLabelValues("analyze").Inc()
		h.logger.Warn("analyze failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}

	return xhttp.SuccessResponse(c, rep)
}

// Health reports liveness.
func (h *AnalyzeHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// toAppError maps pipeline error kinds to HTTP statuses. The analysis stage
// is attached as a param when available.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, models.ErrInvalidTicker):
		appErr = xhttp.BadRequestError("invalid ticker symbol")
	case errors.Is(err, models.ErrNotFound):
		appErr = xhttp.NotFoundError("ticker not found")
	case errors.Is(err, models.ErrRateLimited):
		appErr = xhttp.TooManyRequestsError("upstream rate limit reached, try again shortly")
	case errors.Is(err, models.ErrInsufficientData):
		appErr = xhttp.UnprocessableError("not enough price history to analyze")
	case errors.Is(err, models.ErrUpstreamUnavailable):
		appErr = xhttp.BadGatewayError("market data provider unavailable")
	case errors.Is(err, models.ErrTimeout):
		appErr = xhttp.GatewayTimeoutError("analysis timed out")
	default:
		appErr = xhttp.InternalError("analysis failed")
	}
	appErr = appErr.WithError(err)

	var ae *models.AnalysisError
	if errors.As(err, &ae) {
		appErr = appErr.WithParam("stage", string(ae.Stage))
	}
	return appErr
}
