package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockScope/pkg/cache"
	"StockScope/pkg/config"
	xhttp "StockScope/pkg/http"
	applogger "StockScope/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	reports     io.Closer
	cache       cache.Service
}

// New creates a new App instance with all dependencies. reports is the
// delivery path closer; closing it must drain in-flight deliveries before
// releasing the sink.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	reports io.Closer,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		httpHandler: handler,
		reports:     reports,
		cache:       cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.reports != nil {
		if err := a.reports.Close(); err != nil {
			a.logger.Warn("report delivery close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
