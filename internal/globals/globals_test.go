package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newTable(t *testing.T) *Table {
	t.Helper()
	tbl := New()
	require.NoError(t, tbl.Declare("lib", "greeting", cty.StringVal("hi"), false))
	require.NoError(t, tbl.Declare("lib", "secret", cty.StringVal("s3"), true))
	require.NoError(t, tbl.Declare("main", "count", cty.NumberIntVal(0), false))
	require.NoError(t, tbl.Declare("other", "greeting", cty.StringVal("hey"), false))
	tbl.SetImports("main", []string{"lib", "other"})
	return tbl
}

func TestTable_Get(t *testing.T) {
	tbl := newTable(t)

	testCases := []struct {
		name     string
		module   string
		global   string
		expected cty.Value
		sentinel error
	}{
		{name: "own global", module: "main", global: "count", expected: cty.NumberIntVal(0)},
		{name: "imported public, first import wins", module: "main", global: "greeting", expected: cty.StringVal("hi")},
		{name: "own private", module: "lib", global: "secret", expected: cty.StringVal("s3")},
		{name: "error - imported private", module: "main", global: "secret", sentinel: ErrNotVisible},
		{name: "error - not imported", module: "lib", global: "count", sentinel: ErrUnknownGlobal},
		{name: "error - unknown", module: "main", global: "nope", sentinel: ErrUnknownGlobal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := tbl.Get(tc.module, tc.global)
			if tc.sentinel != nil {
				require.ErrorIs(t, err, tc.sentinel)
				return
			}
			require.NoError(t, err)
			assert.True(t, v.Equals(tc.expected).True())
		})
	}
}

func TestTable_Set(t *testing.T) {
	tbl := newTable(t)

	require.NoError(t, tbl.Set("main", "count", cty.StringVal("5")))
	v, err := tbl.Get("main", "count")
	require.NoError(t, err)
	assert.True(t, v.Equals(cty.NumberIntVal(5)).True())

	require.NoError(t, tbl.Set("main", "greeting", cty.StringVal("hello")))
	v, err = tbl.Get("lib", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", v.AsString())

	assert.Error(t, tbl.Set("main", "count", cty.StringVal("many")))
	assert.ErrorIs(t, tbl.Set("main", "secret", cty.StringVal("x")), ErrNotVisible)
}

func TestTable_Visible(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, tbl.Declare("main", "greeting", cty.StringVal("own"), false))

	vis := tbl.Visible("main")
	assert.Len(t, vis, 2)
	assert.Equal(t, "own", vis["greeting"].AsString())
	_, hasSecret := vis["secret"]
	assert.False(t, hasSecret)

	assert.Len(t, tbl.Visible("lib"), 2)
}

func TestTable_DuplicateAndAll(t *testing.T) {
	tbl := newTable(t)
	assert.ErrorIs(t, tbl.Declare("lib", "greeting", cty.True, false), ErrDuplicateGlobal)

	all := tbl.All()
	require.Len(t, all, 4)
	assert.Equal(t, "lib", all[0].Module)
	assert.Equal(t, "greeting", all[0].Name)
	assert.Equal(t, "other", all[3].Module)
}
