package handle

import (
	"fmt"
	"regexp"
	"strconv"
)

// handleRegex matches the canonical form, e.g. `n12.3` or `e0.1`.
var handleRegex = regexp.MustCompile(`^([ne])(\d+)\.(\d+)$`)

// String serializes the handle into its canonical representation.
func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%c%d.%d", h.Kind.prefix(), h.Index, h.Gen)
}

// MarshalText implements encoding.TextMarshaler so handles can be used as
// JSON object keys and values.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Parse creates a Handle from its canonical string representation.
func Parse(raw string) (Handle, error) {
	if raw == "" {
		return Nil, fmt.Errorf("handle cannot be empty")
	}

	matches := handleRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Nil, fmt.Errorf("invalid handle format: %q", raw)
	}

	index, err := strconv.ParseUint(matches[2], 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("invalid handle index in %q: %w", raw, err)
	}
	gen, err := strconv.ParseUint(matches[3], 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("invalid handle generation in %q: %w", raw, err)
	}
	if gen == 0 {
		return Nil, fmt.Errorf("invalid handle %q: generation must be positive", raw)
	}

	kind := KindNode
	if matches[1] == "e" {
		kind = KindEdge
	}
	return Handle{Kind: kind, Index: uint32(index), Gen: uint32(gen)}, nil
}
