package arch

import (
	"fmt"
	"regexp"
)

// Path is the qualified name of an ability slot.
type Path struct {
	Kind    Kind
	Arch    string
	Ability string
}

// pathRegex matches the canonical form, e.g. `walker.W.greet`.
var pathRegex = regexp.MustCompile(`^(object|node|edge|walker)\.([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)$`)

// String serializes the path into its canonical representation.
func (p Path) String() string {
	return fmt.Sprintf("%s.%s.%s", p.Kind, p.Arch, p.Ability)
}

// ParsePath creates a Path from its canonical string representation.
func ParsePath(raw string) (Path, error) {
	matches := pathRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Path{}, fmt.Errorf("invalid ability path %q", raw)
	}
	kind, err := ParseKind(matches[1])
	if err != nil {
		return Path{}, err
	}
	return Path{Kind: kind, Arch: matches[2], Ability: matches[3]}, nil
}

// ArchKey identifies an architype within the registry.
type ArchKey struct {
	Kind Kind
	Name string
}

func (k ArchKey) String() string {
	return fmt.Sprintf("%s.%s", k.Kind, k.Name)
}

// Key returns the architype part of the path.
func (p Path) Key() ArchKey {
	return ArchKey{Kind: p.Kind, Name: p.Arch}
}
