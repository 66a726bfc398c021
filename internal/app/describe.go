package app

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vk/walkgrid/internal/arch"
)

// Describe lists the loaded modules in resolution order with their
// architypes, abilities, tests and seed graphs.
func (app *App) Describe(w io.Writer) error {
	mods := app.runtime.Modules()
	if len(mods) == 0 {
		if err := app.LoadModules(); err != nil {
			return err
		}
		mods = app.runtime.Modules()
	}

	byModule := make(map[string][]*arch.Architype)
	for _, a := range app.runtime.Registry().Architypes() {
		byModule[a.Module] = append(byModule[a.Module], a)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range mods {
		fmt.Fprintf(tw, "module %s\t%s\n", m.Name, m.Path)
		for _, imp := range m.Imports() {
			fmt.Fprintf(tw, "  import\t%s\n", imp.Module)
		}
		for _, a := range byModule[m.Name] {
			line := fmt.Sprintf("  %s\t%s", a.Kind, a.Name)
			if len(a.BaseNames) > 0 {
				line += " extends " + strings.Join(a.BaseNames, ", ")
			}
			fmt.Fprintln(tw, line)
			for _, f := range a.Fields {
				fmt.Fprintf(tw, "    has\t%s: %s\n", f.Name, f.Type.FriendlyName())
			}
			for _, ab := range a.Abilities {
				fmt.Fprintf(tw, "    can\t%s\t%s\n", ab.Name, abilitySummary(ab))
			}
		}
		for _, t := range m.Tests() {
			fmt.Fprintf(tw, "  test\t%s\t%s\n", t.Name, t.Description)
		}
		for _, g := range m.Graphs() {
			fmt.Fprintf(tw, "  graph\t%s\t%d nodes, %d edges, %d walkers\n", g.Name, len(g.Nodes), len(g.Edges), len(g.Spawns))
		}
	}
	return tw.Flush()
}

func abilitySummary(ab *arch.Ability) string {
	var parts []string
	if ab.Signature.Triggered() {
		on := "on " + ab.Signature.Event.String()
		if len(ab.Signature.Filter) > 0 {
			on += " [" + strings.Join(ab.Signature.Filter, ", ") + "]"
		}
		parts = append(parts, on)
	}
	switch {
	case ab.Abstract && !ab.Bound():
		parts = append(parts, "abstract")
	case ab.Bound() && ab.DefModule != "" && ab.DefModule != ab.DeclModule:
		parts = append(parts, "bound in "+ab.DefModule)
	case !ab.Bound():
		parts = append(parts, "unbound")
	}
	return strings.Join(parts, ", ")
}
