package module_contract_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/walkgrid/internal/handlers"
	"github.com/vk/walkgrid/internal/testutil"
	"github.com/vk/walkgrid/internal/walker"
	"github.com/vk/walkgrid/modules/http_request"
	"github.com/zclconf/go-cty/cty"
)

func crawlerHCL(base string) string {
	return fmt.Sprintf(`
node "Endpoint" {
  has "url" {
    type    = string
    default = ""
  }
  has "method" {
    type    = string
    default = "GET"
  }
}

edge "Link" {}

walker "Crawler" {
  can "fetch" {
    on     = "entry"
    native = "HTTPRequest"
  }
  can "follow" {
    on = "entry"

    visit { edge = "Link" }
  }
}

graph "site" {
  node "home" {
    arch   = "Endpoint"
    fields = { url = "%[1]s/home" }
  }
  node "about" {
    arch   = "Endpoint"
    fields = { url = "%[1]s/about", method = "HEAD" }
  }
  edge "l" {
    arch = "Link"
    from = "home"
    to   = "about"
  }
  spawn "Crawler" {
    at = "home"
  }
}
`, base)
}

func TestHTTPRequestModule(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/about" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprintf(w, "%s %s", r.Method, r.URL.Path)
	}))
	t.Cleanup(ts.Close)

	natives := handlers.New(&http_request.Module{Client: ts.Client()})
	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": crawlerHCL(ts.URL)}, natives)

	require.NoError(t, result.Err)
	reports := testutil.SeededWalker(t, result, 0).Reports()
	require.Len(t, reports, 2)

	first := reports[0].AsValueMap()
	assert.True(t, first["status_code"].Equals(cty.NumberIntVal(200)).True())
	assert.Equal(t, "GET /home", first["body"].AsString())

	second := reports[1].AsValueMap()
	assert.True(t, second["status_code"].Equals(cty.NumberIntVal(204)).True())
	assert.Equal(t, "", second["body"].AsString())
}

func TestHTTPRequestModule_RelativeURLFails(t *testing.T) {
	t.Parallel()
	natives := handlers.New(&http_request.Module{})
	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": crawlerHCL("")}, natives,
		testutil.WithHaltOnError())

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "unsupported protocol scheme")
	assert.Equal(t, walker.StateFailed, testutil.SeededWalker(t, result, 0).State())
}
