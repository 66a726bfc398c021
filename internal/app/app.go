package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/handlers"
	"github.com/vk/walkgrid/internal/hclmodule"
	"github.com/vk/walkgrid/internal/runtime"
	"github.com/vk/walkgrid/internal/snapshot"
	"github.com/vk/walkgrid/internal/tracesink"
	"github.com/vk/walkgrid/internal/walker"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx     context.Context
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	natives *handlers.Handlers
	runtime *runtime.Runtime

	seed       *runtime.Seed
	httpServer *http.Server
	sink       *tracesink.SocketIO
	repo       snapshot.Repository
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger and runtime. When natives is nil the core
// native modules are registered.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, natives *handlers.Handlers) *App {
	logger := newLogger(cfg, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if natives == nil {
		natives = handlers.New(coreModules(outW)...)
	}
	logger.Debug("Native bodies registered.", "names", natives.Names())

	rt := runtime.New(
		runtime.WithPolicy(walker.Policy{HaltOnError: cfg.HaltOnError}),
		runtime.WithObservers(walker.LogObserver{}),
	)

	return &App{
		ctx:     ctx,
		outW:    outW,
		logger:  logger,
		config:  cfg,
		natives: natives,
		runtime: rt,
	}
}

// Runtime returns the application's runtime. This is primarily for testing.
func (app *App) Runtime() *runtime.Runtime {
	return app.runtime
}

// Seed returns what the last run built, or nil.
func (app *App) Seed() *runtime.Seed {
	return app.seed
}

// Loader returns a module loader that knows the app's native bodies.
func (app *App) Loader() *hclmodule.Loader {
	return hclmodule.NewLoader(app.natives)
}

// Close releases everything the app opened. It is safe to call more than
// once.
func (app *App) Close() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Closing application...")

	var errs []error
	if err := app.closeInspectServer(); err != nil {
		errs = append(errs, err)
	}
	if app.sink != nil {
		app.sink.Close()
		app.sink = nil
	}
	if app.repo != nil {
		if err := app.repo.Close(app.ctx); err != nil {
			errs = append(errs, err)
		}
		app.repo = nil
	}
	return errors.Join(errs...)
}
