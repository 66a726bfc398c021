package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/handlers"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module provides the "Print" native body, which writes the fields of the
// current position.
type Module struct {
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Print writes the position and its fields, sorted by name.
func (m *Module) Print(ctx context.Context, env arch.Env) error {
	ctxlog.FromContext(ctx).Info("Printing position", "position", env.HereHandle().String())

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	here := env.Here()
	fmt.Fprintf(out, "%s %s (%s)\n", here.Architype().Name, env.HereHandle(), env.Event())

	values := here.Fields().Map()
	if len(values) == 0 {
		fmt.Fprintln(out, "      (no fields)")
		return nil
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := values[k]
		raw, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		fmt.Fprintf(out, "      %s = %s\n", k, raw)
	}
	return nil
}

// Register registers the body with the native handlers.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("Print", arch.BodyFunc(m.Print))
}
