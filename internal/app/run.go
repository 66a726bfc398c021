package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/tracesink"
	"github.com/vk/walkgrid/internal/walker"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Run loads the modules if needed, builds the configured seed graph and
// runs its walkers to completion.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	logger := app.logger
	logger.Debug("App.Run method started.")

	if len(app.runtime.Modules()) == 0 {
		if err := app.LoadModules(); err != nil {
			return err
		}
	}
	if err := app.startInspectServer(); err != nil {
		return err
	}
	if err := app.connectTraceSink(ctx); err != nil {
		return err
	}

	graph, err := app.pickGraph()
	if err != nil {
		return err
	}
	if graph == "" {
		logger.Warn("No seed graph defined, nothing to run.")
		return app.serve(ctx, nil)
	}

	seed, err := app.runtime.BuildGraph(ctx, graph)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	app.seed = seed

	logger.Info("🚀 Running walkers...", "graph", graph, "walkers", len(seed.Walkers), "workers", app.config.WorkerCount)
	runErr := app.runtime.RunAll(ctx, app.config.WorkerCount, seed.Walkers...)
	if err := printReports(app.outW, seed.Walkers); err != nil {
		runErr = errors.Join(runErr, err)
	}
	logger.Info("🏁 Run finished.")

	if app.config.SnapshotDSN != "" {
		name := app.config.SnapshotName
		if name == "" {
			name = graph
		}
		if _, err := app.SaveSnapshot(ctx, name); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	logger.Debug("App.Run method finished.")
	return app.serve(ctx, runErr)
}

func (app *App) pickGraph() (string, error) {
	if app.config.Graph != "" {
		return app.config.Graph, nil
	}
	names := app.runtime.GraphNames()
	switch len(names) {
	case 0:
		return "", nil
	case 1:
		return names[0], nil
	}
	return "", fmt.Errorf("modules define several graphs %v, pick one", names)
}

// serve blocks until ctx is done when the inspection server should outlive
// the run.
func (app *App) serve(ctx context.Context, runErr error) error {
	if app.config.Serve && app.httpServer != nil {
		app.logger.Info("Serving inspection API until interrupted.")
		<-ctx.Done()
	}
	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	return nil
}

func (app *App) connectTraceSink(ctx context.Context) error {
	if app.config.TraceURL == "" || app.sink != nil {
		return nil
	}
	sink, err := tracesink.Dial(ctx, tracesink.Config{
		URL:       app.config.TraceURL,
		Namespace: app.config.TraceNamespace,
	})
	if err != nil {
		return fmt.Errorf("failed to connect trace sink: %w", err)
	}
	app.sink = sink
	app.runtime.Engine().AddObserver(sink)
	return nil
}

// printReports writes one summary line per walker followed by its reports
// as JSON and its errors.
func printReports(w io.Writer, walkers []*walker.Walker) error {
	for _, wk := range walkers {
		fmt.Fprintf(w, "%s %s: %s after %d steps\n", wk.Architype().Name, wk.ID(), wk.State(), wk.Steps())
		for _, rep := range wk.Reports() {
			raw, err := ctyjson.Marshal(rep, rep.Type())
			if err != nil {
				return fmt.Errorf("walker %s report: %w", wk.ID(), err)
			}
			fmt.Fprintf(w, "  report %s\n", raw)
		}
		for _, err := range wk.Errors() {
			fmt.Fprintf(w, "  error  %s\n", err)
		}
	}
	return nil
}
