package hclmodule

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/fsutil"
	"github.com/vk/walkgrid/internal/handlers"
	"github.com/vk/walkgrid/internal/module"
)

// Loader turns .hcl files into module trees.
type Loader struct {
	natives *handlers.Handlers
}

// NewLoader creates a loader. natives resolves `native = "Name"` bodies and
// may be nil when no native bodies are available.
func NewLoader(natives *handlers.Handlers) *Loader {
	return &Loader{natives: natives}
}

// Load parses every .hcl file found under paths. Directories are walked
// recursively. All failures are collected and returned together.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*module.Module, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var mods []*module.Module
	var errs []error
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			errs = append(errs, fmt.Errorf("failed to parse HCL file %s: %w", file, diags))
			continue
		}
		mod, err := l.decode(ctx, file, hclFile)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mods = append(mods, mod)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	logger.Debug("HCL loading complete.", "modules", len(mods))
	return mods, nil
}

// Parse decodes a single module from source held in memory.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*module.Module, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.decode(ctx, filename, hclFile)
}

func (l *Loader) decode(ctx context.Context, filename string, file *hcl.File) (*module.Module, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	name := stringOr(root.Module, strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	logger := ctxlog.FromContext(ctx).With("module", name, "file", filename)
	ctx = ctxlog.WithLogger(ctx, logger)

	mod, err := l.translateModule(ctx, name, &root)
	if err != nil {
		return nil, fmt.Errorf("module %q (%s): %w", name, filename, err)
	}
	mod.Path = filename
	logger.Debug("Decoded module.", "elements", len(mod.Elements))
	return mod, nil
}
