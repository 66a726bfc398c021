package arch

import (
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Field is a typed attribute declared with `has`.
type Field struct {
	Name    string
	Type    cty.Type
	Default cty.Value
}

// Param is one formal parameter of an ability.
type Param struct {
	Name string
	Type cty.Type
}

// Signature is everything about an ability slot that must agree between
// repeated declarations.
type Signature struct {
	Params []Param
	Event  Event
	// Filter lists the architype names the counterpart must be (a subtype
	// of) for the ability to fire. Empty means any.
	Filter []string
}

// Equal reports whether two signatures are interchangeable.
func (s Signature) Equal(other Signature) bool {
	if s.Event != other.Event || !slices.Equal(s.Filter, other.Filter) {
		return false
	}
	return slices.EqualFunc(s.Params, other.Params, func(a, b Param) bool {
		return a.Name == b.Name && a.Type.Equals(b.Type)
	})
}

// Triggered reports whether the ability fires on traversal at all.
func (s Signature) Triggered() bool {
	return s.Event != EventNone
}

// Ability is one ability slot of an architype.
type Ability struct {
	Name      string
	Signature Signature
	Abstract  bool
	// Body is nil until the resolver binds a definition.
	Body Body
	// DeclModule is the module that declared the slot, DefModule the one
	// whose definition was bound.
	DeclModule string
	DefModule  string
	// Order is the declaration order within the owning architype.
	Order int
	// Owner is the architype that declared the slot.
	Owner *Architype
}

// Path returns the qualified path of the slot.
func (a *Ability) Path() Path {
	return Path{Kind: a.Owner.Kind, Arch: a.Owner.Name, Ability: a.Name}
}

// Bound reports whether a body is attached.
func (a *Ability) Bound() bool {
	return a.Body != nil
}

// Architype is the registry record of one architype.
type Architype struct {
	Kind   Kind
	Name   string
	Module string
	// BaseNames are the declared base architype names, in order.
	BaseNames []string
	// Bases are filled in when the registry links the architype.
	Bases []*Architype
	// Fields are the fields declared on this architype only.
	Fields []Field
	// Abilities are the slots declared on this architype only, in
	// declaration order.
	Abilities []*Ability
	// Directed is the default directionality for edge architypes.
	Directed bool

	effectiveFields    []Field
	effectiveAbilities []*Ability
	ancestry           map[string]struct{}
}

// Key returns the registry key of the architype.
func (a *Architype) Key() ArchKey {
	return ArchKey{Kind: a.Kind, Name: a.Name}
}

// Ability returns the slot declared directly on a with the given name.
func (a *Architype) Ability(name string) (*Ability, bool) {
	for _, ab := range a.Abilities {
		if ab.Name == name {
			return ab, true
		}
	}
	return nil, false
}

// Field returns the field declared directly on a with the given name.
func (a *Architype) Field(name string) (Field, bool) {
	for _, f := range a.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsA reports whether a is the named architype or inherits from it.
// Before linking only the architype's own name matches.
func (a *Architype) IsA(name string) bool {
	if a.Name == name {
		return true
	}
	_, ok := a.ancestry[name]
	return ok
}

// MatchesAny reports whether a satisfies a filter list. An empty filter
// matches everything.
func (a *Architype) MatchesAny(filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, name := range filter {
		if a.IsA(name) {
			return true
		}
	}
	return false
}

// EffectiveFields returns inherited and own fields. A field redeclared on a
// subtype replaces the inherited one in place.
func (a *Architype) EffectiveFields() []Field {
	if a.effectiveFields == nil {
		return a.Fields
	}
	return a.effectiveFields
}

// EffectiveAbilities returns inherited and own abilities in dispatch order.
func (a *Architype) EffectiveAbilities() []*Ability {
	if a.effectiveAbilities == nil {
		return a.Abilities
	}
	return a.effectiveAbilities
}

// Link computes the effective field set, ability list and ancestry from the
// already linked bases. Bases must be linked first.
func (a *Architype) Link() {
	a.ancestry = make(map[string]struct{})
	var fields []Field
	var abilities []*Ability

	for _, base := range a.Bases {
		a.ancestry[base.Name] = struct{}{}
		for name := range base.ancestry {
			a.ancestry[name] = struct{}{}
		}
		for _, f := range base.EffectiveFields() {
			fields = upsertField(fields, f)
		}
		for _, ab := range base.EffectiveAbilities() {
			abilities = upsertAbility(abilities, ab)
		}
	}
	for _, f := range a.Fields {
		fields = upsertField(fields, f)
	}
	for _, ab := range a.Abilities {
		abilities = upsertAbility(abilities, ab)
	}

	a.effectiveFields = fields
	a.effectiveAbilities = abilities
}

func upsertField(fields []Field, f Field) []Field {
	for i := range fields {
		if fields[i].Name == f.Name {
			fields[i] = f
			return fields
		}
	}
	return append(fields, f)
}

func upsertAbility(abilities []*Ability, ab *Ability) []*Ability {
	for i := range abilities {
		if abilities[i].Name == ab.Name {
			abilities[i] = ab
			return abilities
		}
	}
	return append(abilities, ab)
}
