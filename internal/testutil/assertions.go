package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/walkgrid/internal/walker"
	"github.com/zclconf/go-cty/cty"
)

// AssertAbilityRan checks the trace log within a HarnessResult to confirm
// that an ability was invoked. It relies on the debug-level trace lines the
// app logs for every walker.
func AssertAbilityRan(t *testing.T, result *HarnessResult, ability string) {
	t.Helper()

	found := false
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "kind=ability") && strings.Contains(line, "ability="+ability+" ") {
			found = true
			break
		}
	}
	require.True(t, found, "expected a trace line for ability %q in the logs", ability)
}

// ReportStrings returns the reports of the i-th seeded walker, requiring
// each one to be a string.
func ReportStrings(t *testing.T, result *HarnessResult, i int) []string {
	t.Helper()
	w := SeededWalker(t, result, i)
	var out []string
	for _, v := range w.Reports() {
		require.True(t, v.Type().Equals(cty.String), "report %#v is not a string", v)
		out = append(out, v.AsString())
	}
	return out
}

// SeededWalker returns the i-th walker spawned by the run's seed graph.
func SeededWalker(t *testing.T, result *HarnessResult, i int) *walker.Walker {
	t.Helper()
	require.NotNil(t, result.App, "harness did not create an app")
	seed := result.App.Seed()
	require.NotNil(t, seed, "no seed graph was built")
	require.Greater(t, len(seed.Walkers), i, "seed spawned %d walkers", len(seed.Walkers))
	return seed.Walkers[i]
}
