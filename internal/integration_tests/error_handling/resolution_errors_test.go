package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/walkgrid/internal/module"
	"github.com/vk/walkgrid/internal/registry"
	"github.com/vk/walkgrid/internal/resolver"
	"github.com/vk/walkgrid/internal/testutil"
)

// TestErrorHandling_ResolutionErrors checks that every resolution failure
// stops loading and names its subject.
func TestErrorHandling_ResolutionErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		files    map[string]string
		wantErr  error
		contains string
	}{
		{
			name: "missing definition",
			files: map[string]string{"main.hcl": `
walker "W" {
  decl "greet" { on = "entry" }
}
`},
			wantErr:  resolver.ErrMissingDefinition,
			contains: "walker.W.greet",
		},
		{
			name: "unbound definition",
			files: map[string]string{"main.hcl": `
node "N" {}

impl "node" "N" "ghost" {
  report { value = 1 }
}
`},
			wantErr:  resolver.ErrUnboundDefinition,
			contains: "node.N.ghost",
		},
		{
			name: "duplicate definition across modules",
			files: map[string]string{
				"a.hcl": `
node "N" {
  decl "touch" { on = "entry" }
}

impl "node" "N" "touch" {
  report { value = "a" }
}
`,
				"b.hcl": `
import "a" {}

impl "node" "N" "touch" {
  report { value = "b" }
}
`,
			},
			wantErr:  registry.ErrDuplicateDefinition,
			contains: "node.N.touch",
		},
		{
			name: "conflicting field types",
			files: map[string]string{
				"a.hcl": `
node "N" {
  has "x" { type = string }
}
`,
				"b.hcl": `
node "N" {
  has "x" { type = number }
}
`,
			},
			wantErr:  registry.ErrDuplicateDeclaration,
			contains: `field "x"`,
		},
		{
			name: "unknown base",
			files: map[string]string{"main.hcl": `
node "N" {
  extends = ["Nope"]
}
`},
			wantErr:  registry.ErrUnknownBase,
			contains: "Nope",
		},
		{
			name: "unknown import",
			files: map[string]string{"main.hcl": `
import "elsewhere" {}
`},
			wantErr:  module.ErrUnknownImport,
			contains: "elsewhere",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := testutil.LoadIntegrationTest(t, tc.files, nil)

			require.Error(t, result.Err)
			assert.ErrorIs(t, result.Err, tc.wantErr)
			assert.Contains(t, result.Err.Error(), tc.contains)
			assert.Empty(t, result.App.Runtime().Modules(), "a failed load must not leave modules behind")
		})
	}
}

// TestErrorHandling_AllMissingDefinitionsReported checks that resolution
// collects every failure before reporting.
func TestErrorHandling_AllMissingDefinitionsReported(t *testing.T) {
	t.Parallel()
	files := map[string]string{"main.hcl": `
walker "W" {
  decl "one" { on = "entry" }
  decl "two" { on = "exit" }
}
`}

	result := testutil.LoadIntegrationTest(t, files, nil)

	require.Error(t, result.Err)
	var resErrs *resolver.Errors
	require.ErrorAs(t, result.Err, &resErrs)
	assert.Len(t, resErrs.Errs, 2)
	assert.Contains(t, result.Err.Error(), "walker.W.one")
	assert.Contains(t, result.Err.Error(), "walker.W.two")
}
