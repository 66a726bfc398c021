package handlers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/walkgrid/internal/arch"
)

// Handlers holds the native Go ability bodies that modules can bind to by
// name with `native = "Name"`.
type Handlers struct {
	mu  sync.RWMutex
	all map[string]arch.Body
}

// Module is implemented by packages that contribute native bodies.
type Module interface {
	Register(h *Handlers)
}

// New creates and initializes a new Handlers instance.
func New(mods ...Module) *Handlers {
	h := &Handlers{
		all: make(map[string]arch.Body),
	}
	for _, m := range mods {
		m.Register(h)
	}
	return h
}

// Register adds a native body under name. Registering the same name twice
// is a wiring bug and panics.
func (h *Handlers) Register(name string, body arch.Body) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.all[name]; exists {
		panic(fmt.Sprintf("native body with name '%s' already registered", name))
	}
	if body == nil {
		panic(fmt.Sprintf("native body '%s' is nil", name))
	}
	slog.Debug("Registering native body.", "name", name)
	h.all[name] = body
}

// Lookup returns the body registered under name.
func (h *Handlers) Lookup(name string) (arch.Body, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	body, ok := h.all[name]
	return body, ok
}

// Names returns the registered names in sorted order.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.all))
	for name := range h.all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
