package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/searchktools/tcp-dispatch/config"
	"github.com/searchktools/tcp-dispatch/core"
	"github.com/searchktools/tcp-dispatch/core/http"
)

// App ties configuration, logging and the engine together
type App struct {
	cfg    *config.Config
	log    *logrus.Logger
	engine *core.Engine
}

// New creates an application instance
func New(cfg *config.Config) *App {
	logger := NewLogger(cfg)

	engine := core.NewEngine(core.Config{
		Workers:        cfg.Workers,
		QueueSize:      cfg.QueueSize,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxConnections: cfg.MaxConnections,
		ReusePort:      cfg.ReusePort,
		Limits:         http.Limits{MaxBodyBytes: cfg.MaxBodyBytes},
		Logger:         logger.WithField("env", cfg.Env),
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		engine: engine,
	}
}

// NewLogger builds the logger described by cfg. Invalid settings fall
// back to info level and text output.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Logger returns the application logger
func (a *App) Logger() *logrus.Logger {
	return a.log
}

// Run serves until SIGINT or SIGTERM, then shuts down. Startup failures
// such as an unavailable port terminate the process with a non-zero status.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.ListenAndServe(ctx); err != nil {
		a.log.WithError(err).Fatal("server failed")
	}
}

// ListenAndServe binds the configured address and serves until ctx is
// done, then drains in-flight connections within the shutdown timeout.
func (a *App) ListenAndServe(ctx context.Context) error {
	a.log.WithFields(logrus.Fields{
		"addr": a.cfg.Addr(),
		"env":  a.cfg.Env,
	}).Info("starting dispatch server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.engine.Run(a.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutdown requested, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.engine.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, core.ErrServerClosed) {
		return err
	}
	return nil
}
