package app

import (
	"fmt"

	"github.com/vk/walkgrid/internal/ctxlog"
)

// LoadModules loads every module under the configured path and resolves them
// into the runtime.
func (app *App) LoadModules() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Loading modules...", "modules_path", app.config.ModulesPath)

	mods, err := app.Loader().Load(app.ctx, app.config.ModulesPath)
	if err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	if err := app.runtime.LoadModules(app.ctx, mods); err != nil {
		return fmt.Errorf("failed to resolve modules: %w", err)
	}

	logger.Info("Modules loaded successfully.",
		"modules", len(mods),
		"architypes", len(app.runtime.Registry().Architypes()),
		"graphs", app.runtime.GraphNames(),
	)
	return nil
}
