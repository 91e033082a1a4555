// Package resolve binds the string input references of derived attributes to
// the concrete attributes that produce them. References are resolved once at
// build time; downstream components only ever see Resolved records and never
// re-parse strings.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/flowplan/internal/entity"
)

// Sentinel errors.
var (
	// ErrUnknownAlias is returned when a qualified reference names a
	// relationship alias the owning entity does not declare.
	ErrUnknownAlias = errors.New("resolve: unknown relationship alias")

	// ErrUnknownAttribute is returned when the referenced entity has no
	// attribute of the referenced name.
	ErrUnknownAttribute = errors.New("resolve: unknown attribute")

	// ErrMalformedReference is returned for empty references and for dotted
	// paths deeper than "alias.attr".
	ErrMalformedReference = errors.New("resolve: malformed reference")

	// ErrDuplicateInputParam is returned when one attribute definition binds
	// the same formal parameter name twice.
	ErrDuplicateInputParam = errors.New("resolve: duplicate input parameter")
)

// Resolved is an input reference bound to its producing attribute. Via is the
// relationship the reference traveled, or nil for a reference to the owning
// entity's own attribute.
type Resolved struct {
	Param     string
	Entity    entity.Entity
	Attribute string
	Via       *entity.Relationship
}

// Inputs resolves every input reference declared on attr, which must belong
// to owner. The result preserves the declaration order of the inputs.
func Inputs(owner entity.Entity, attr entity.AttributeDef) ([]Resolved, error) {
	if len(attr.Inputs) == 0 {
		return nil, nil
	}

	resolved := make([]Resolved, 0, len(attr.Inputs))
	seen := make(map[string]bool, len(attr.Inputs))
	for _, in := range attr.Inputs {
		if seen[in.Param] {
			return nil, fmt.Errorf("%w: %s.%s binds %q twice",
				ErrDuplicateInputParam, owner.ID(), attr.Name, in.Param)
		}
		seen[in.Param] = true

		r, err := one(owner, in)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", owner.ID(), attr.Name, err)
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

// one resolves a single input reference against the owning entity.
func one(owner entity.Entity, in entity.InputRef) (Resolved, error) {
	if in.Ref == "" {
		return Resolved{}, fmt.Errorf("%w: empty reference for parameter %q", ErrMalformedReference, in.Param)
	}

	parts := strings.Split(in.Ref, ".")
	switch len(parts) {
	case 1:
		// A bare name is a reference to the owning entity's own attribute.
		if _, ok := owner.Attribute(in.Ref); !ok {
			return Resolved{}, fmt.Errorf("%w: %s has no attribute %q", ErrUnknownAttribute, owner.ID(), in.Ref)
		}
		return Resolved{Param: in.Param, Entity: owner, Attribute: in.Ref}, nil

	case 2:
		alias, name := parts[0], parts[1]
		if alias == "" || name == "" {
			return Resolved{}, fmt.Errorf("%w: %q", ErrMalformedReference, in.Ref)
		}
		rel, ok := owner.Relationship(alias)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: %s declares no join %q", ErrUnknownAlias, owner.ID(), alias)
		}
		if _, ok := rel.Target.Attribute(name); !ok {
			return Resolved{}, fmt.Errorf("%w: %s has no attribute %q", ErrUnknownAttribute, rel.Target.ID(), name)
		}
		return Resolved{Param: in.Param, Entity: rel.Target, Attribute: name, Via: &rel}, nil

	default:
		// Relationships must point directly at the entity carrying the final
		// attribute; deeper chains are not supported.
		return Resolved{}, fmt.Errorf("%w: %q nests deeper than alias.attr", ErrMalformedReference, in.Ref)
	}
}
