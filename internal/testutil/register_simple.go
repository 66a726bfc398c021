package testutil

import (
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handlers"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single native body.
type SimpleModule struct {
	Name string
	Body arch.BodyFunc
}

// Register implements the handlers.Module interface.
func (m *SimpleModule) Register(h *handlers.Handlers) {
	if m.Name != "" && m.Body != nil {
		h.Register(m.Name, m.Body)
	}
}
