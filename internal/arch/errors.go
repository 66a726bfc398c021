package arch

import "errors"

var (
	// ErrUnknownField is returned when accessing a field the architype does
	// not declare.
	ErrUnknownField = errors.New("unknown field")
	// ErrFieldType is returned when a value cannot be converted to the
	// declared field type.
	ErrFieldType = errors.New("field type mismatch")
)
