package walker

import (
	"errors"
	"fmt"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
)

var (
	ErrNotWalker    = errors.New("architype is not a walker")
	ErrAbilityPanic = errors.New("ability panicked")
	ErrNoGlobals    = errors.New("no global scope configured")
)

// AbilityError tags a failing ability with where and when it failed.
type AbilityError struct {
	Walker   string
	Path     arch.Path
	Position handle.Handle
	Event    arch.Event
	Err      error
}

func (e *AbilityError) Error() string {
	return fmt.Sprintf("ability %s failed on %s at %s: %v", e.Path, e.Event, e.Position, e.Err)
}

func (e *AbilityError) Unwrap() error {
	return e.Err
}
