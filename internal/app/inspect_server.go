package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/inspect"
)

// startInspectServer runs the inspection server in the background. It
// returns once the listener is bound.
func (app *App) startInspectServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Configuring inspection server.")
	if app.config.InspectPort <= 0 {
		logger.Debug("Inspection server not started: disabled")
		return nil
	}

	addr := fmt.Sprintf(":%d", app.config.InspectPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("inspection server: %w", err)
	}

	app.httpServer = &http.Server{
		Addr:              addr,
		Handler:           inspect.New(app.runtime).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🔎 Inspection server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Inspection server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (app *App) closeInspectServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Closing inspection server...")

	if app.httpServer == nil {
		logger.Debug("Inspection server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(app.ctx), 5*time.Second)
	defer cancel()

	logger.Info("🔎 Shutting down inspection server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Inspection server shutdown failed", "error", err)
		return err
	}
	app.httpServer = nil

	logger.Debug("Inspection server shut down gracefully.")
	return nil
}

// Inspect starts the inspection server over the current runtime and, when
// configured to serve, blocks until ctx is done.
func (app *App) Inspect(ctx context.Context) error {
	if err := app.startInspectServer(); err != nil {
		return err
	}
	return app.serve(ctx, nil)
}
