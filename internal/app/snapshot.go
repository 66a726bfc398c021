package app

import (
	"context"
	"fmt"

	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/snapshot"
)

func (app *App) openRepository(ctx context.Context) (snapshot.Repository, error) {
	if app.repo != nil {
		return app.repo, nil
	}
	if app.config.SnapshotDSN == "" {
		return nil, fmt.Errorf("no snapshot store configured")
	}
	repo, err := snapshot.Open(ctx, app.config.SnapshotBackend, app.config.SnapshotDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	app.repo = repo
	return repo, nil
}

// SaveSnapshot captures the graph store and saves it under name.
func (app *App) SaveSnapshot(ctx context.Context, name string) (snapshot.Info, error) {
	logger := ctxlog.FromContext(ctx)
	repo, err := app.openRepository(ctx)
	if err != nil {
		return snapshot.Info{}, err
	}
	snap, err := snapshot.Capture(app.runtime.Store(), name)
	if err != nil {
		return snapshot.Info{}, fmt.Errorf("failed to capture snapshot: %w", err)
	}
	if err := repo.Save(ctx, snap); err != nil {
		return snapshot.Info{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	info := snap.Info()
	logger.Info("📸 Snapshot saved.", "id", info.ID, "name", info.Name, "nodes", info.Nodes, "edges", info.Edges)
	return info, nil
}

// ListSnapshots returns the stored snapshots, newest first.
func (app *App) ListSnapshots(ctx context.Context) ([]snapshot.Info, error) {
	repo, err := app.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// RestoreSnapshot loads snapshot id into the graph store of a loaded
// runtime. It returns how many nodes and edges were recreated.
func (app *App) RestoreSnapshot(ctx context.Context, id string) (int, error) {
	repo, err := app.openRepository(ctx)
	if err != nil {
		return 0, err
	}
	snap, err := repo.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	created, err := snapshot.Restore(ctx, snap, app.runtime.Registry(), app.runtime.Store())
	if err != nil {
		return 0, fmt.Errorf("failed to restore snapshot %s: %w", id, err)
	}
	return len(created), nil
}
