package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/walkgrid/internal/app"
	"github.com/vk/walkgrid/internal/handlers"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// Option adjusts the app configuration used by the harness.
type Option func(*app.Config)

// WithGraph picks the seed graph to run.
func WithGraph(name string) Option {
	return func(c *app.Config) { c.Graph = name }
}

// WithHaltOnError switches the engine to the halting failure policy.
func WithHaltOnError() Option {
	return func(c *app.Config) { c.HaltOnError = true }
}

// WithWorkers sets how many walkers run at once.
func WithWorkers(n int) Option {
	return func(c *app.Config) { c.WorkerCount = n }
}

// WithSnapshotDSN saves a SQLite snapshot after the run.
func WithSnapshotDSN(dsn string) Option {
	return func(c *app.Config) { c.SnapshotDSN = dsn }
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, natives *handlers.Handlers, opts ...Option) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, natives, opts...)
}

// RunIntegrationTestWithContext writes files into a temporary modules
// directory, then loads and runs them through a full app. natives may be nil
// to use the core native modules.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, natives *handlers.Handlers, opts ...Option) *HarnessResult {
	t.Helper()
	testApp, logBuffer := newHarnessApp(ctx, t, files, natives, opts...)

	runErr := testApp.Run(ctx)
	logOutput(t, logBuffer)

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// LoadIntegrationTest stops after loading and resolving the modules. It is
// the harness for tests about the module format and resolution errors.
func LoadIntegrationTest(t *testing.T, files map[string]string, natives *handlers.Handlers) *HarnessResult {
	t.Helper()
	testApp, logBuffer := newHarnessApp(context.Background(), t, files, natives)

	loadErr := testApp.LoadModules()
	logOutput(t, logBuffer)

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       loadErr,
		App:       testApp,
	}
}

func newHarnessApp(ctx context.Context, t *testing.T, files map[string]string, natives *handlers.Handlers, opts ...Option) (*app.App, *SafeBuffer) {
	t.Helper()

	// The test provides relative paths (e.g., "lib/shapes.hcl"), which
	// creates the subdirectory structure within the modules directory.
	modulesDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(modulesDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := app.Config{
		ModulesPath: modulesDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: 4,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(ctx, logBuffer, appConfig, natives)
	t.Cleanup(func() { _ = testApp.Close() })
	return testApp, logBuffer
}

func logOutput(t *testing.T, buf *SafeBuffer) {
	t.Helper()
	if os.Getenv("WALKGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
	}
}
