package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "ReValue/pkg/logger"
)

// HTTPServer is the part of the HTTP server the App drives.
type HTTPServer interface {
	Start() error
	Errors() <-chan error
	Stop(ctx context.Context) error
	Addr() string
}

// Worker is a background component started and stopped with the App.
type Worker interface {
	Start() error
	Stop(ctx context.Context) error
}

// App encapsulates the application lifecycle.
type App struct {
	logger      *applogger.Logger
	httpServer  HTTPServer
	consumer    Worker
	modelReady  func() bool
	stopTimeout time.Duration
}

// New creates an App serving httpServer. modelReady may be nil.
func New(l *applogger.Logger, httpServer HTTPServer, modelReady func() bool) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		logger:      l,
		httpServer:  httpServer,
		modelReady:  modelReady,
		stopTimeout: 15 * time.Second,
	}
}

// SetConsumer attaches a background consumer.
func (a *App) SetConsumer(w Worker) { a.consumer = w }

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done or the
// HTTP listener fails, then shuts everything down.
func (a *App) RunContext(ctx context.Context) error {
	if a.modelReady != nil && !a.modelReady() {
		a.logger.Warn("model not loaded, predictions will be unavailable")
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start consumer: %w", err)
		}
	}
	if err := a.httpServer.Start(); err != nil {
		a.shutdown()
		return fmt.Errorf("start http: %w", err)
	}
	a.logger.Info("application started", applogger.String("addr", a.httpServer.Addr()))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.logger.RemoveCollector()
	a.logger.Info("shutdown complete")
}
