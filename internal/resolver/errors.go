package resolver

import (
	"errors"
	"strings"
)

var (
	ErrUnboundDefinition = errors.New("unbound definition")
	ErrMissingDefinition = errors.New("missing definition")
)

// Errors is the aggregated result of a failed resolution.
type Errors struct {
	Errs []error
}

func (e *Errors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "resolution failed:\n- " + strings.Join(msgs, "\n- ")
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *Errors) Unwrap() []error {
	return e.Errs
}
