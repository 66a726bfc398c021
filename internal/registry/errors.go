package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/walkgrid/internal/arch"
)

var (
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	ErrDuplicateDefinition  = errors.New("duplicate definition")
	ErrNotFound             = errors.New("not found")
	ErrFrozen               = errors.New("registry is frozen")
	ErrUnknownBase          = errors.New("unknown base architype")
	ErrInheritanceCycle     = errors.New("inheritance cycle")
)

// Error carries the subject of a registry failure.
type Error struct {
	Err    error
	Arch   arch.ArchKey
	Path   arch.Path
	Module string
	Detail string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	sb.WriteString(": ")
	if e.Path.Ability != "" {
		sb.WriteString(e.Path.String())
	} else {
		sb.WriteString(e.Arch.String())
	}
	if e.Module != "" {
		fmt.Fprintf(&sb, " (module %q)", e.Module)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
