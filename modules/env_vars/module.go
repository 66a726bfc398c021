package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// Module provides the "EnvVars" native body.
type Module struct {
	// Prefix limits the reported variables. Empty reports all of them.
	Prefix string
}

// EnvVars reports the process environment as a map of strings.
func (m *Module) EnvVars(_ context.Context, env arch.Env) error {
	envMap := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], m.Prefix) {
			envMap[pair[0]] = cty.StringVal(pair[1])
		}
	}
	if len(envMap) == 0 {
		env.Report(cty.MapValEmpty(cty.String))
		return nil
	}
	env.Report(cty.MapVal(envMap))
	return nil
}

// Register registers the body with the native handlers.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("EnvVars", arch.BodyFunc(m.EnvVars))
}
