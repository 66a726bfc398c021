package testutil

import (
	"context"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handlers"
)

// NoOpModule registers a single "NoOp" native body. It's useful for tests
// whose modules reference a native ability but never care what it does.
type NoOpModule struct{}

// Register registers the "NoOp" body, which does nothing.
func (m *NoOpModule) Register(h *handlers.Handlers) {
	h.Register("NoOp", arch.BodyFunc(func(context.Context, arch.Env) error {
		return nil
	}))
}
