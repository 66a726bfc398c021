// Package http_request provides the "HTTPRequest" native body, which lets a
// walker fetch the endpoint described by the node it stands on.
package http_request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTimeout bounds a request when the module builds its own client.
const DefaultTimeout = 30 * time.Second

// Module provides the "HTTPRequest" native body.
type Module struct {
	// Client defaults to one built by NewClient(DefaultTimeout).
	Client *http.Client
}

// NewClient returns a client with pooled connections and the given timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// stringField reads an optional string field of inst. Missing fields and
// nulls yield fallback.
func stringField(inst arch.Instance, name, fallback string) (string, error) {
	v, err := inst.Fields().Get(name)
	if errors.Is(err, arch.ErrUnknownField) || (err == nil && v.IsNull()) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	if !v.Type().Equals(cty.String) || !v.IsKnown() {
		return "", fmt.Errorf("field %q must be a string", name)
	}
	return v.AsString(), nil
}

// HTTPRequest sends the request described by the "url" and optional "method"
// fields of the current position and reports status_code, status and body.
func (m *Module) HTTPRequest(ctx context.Context, env arch.Env) error {
	here := env.Here()
	url, err := stringField(here, "url", "")
	if err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("%s %s has no url", here.Architype().Name, env.HereHandle())
	}
	method, err := stringField(here, "method", http.MethodGet)
	if err != nil {
		return err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", method, "url", url)

	client := m.Client
	if client == nil {
		client = NewClient(DefaultTimeout)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	env.Report(cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode)),
		"status":      cty.StringVal(resp.Status),
		"body":        cty.StringVal(string(bodyBytes)),
	}))
	return nil
}

// Register registers the body with the native handlers.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("HTTPRequest", arch.BodyFunc(m.HTTPRequest))
}
