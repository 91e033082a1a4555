// Package entity defines the declarative model the planner operates on:
// source entities that expose a registered schema verbatim, and derived
// entities whose attributes are computed from other entities through named
// join relationships.
//
// Everything here is plain data. Transforms are opaque handles the planner
// never interprets; input references stay as declared strings until the
// resolver binds them to concrete producing attributes.
package entity

import (
	"errors"
	"fmt"

	"github.com/vk/flowplan/internal/schema"
)

// Sentinel errors.
var (
	// ErrDuplicateAlias is returned when a derived entity declares two joins
	// under the same alias.
	ErrDuplicateAlias = errors.New("entity: duplicate relationship alias")

	// ErrDuplicateAttribute is returned when an entity declares two
	// attributes with the same name.
	ErrDuplicateAttribute = errors.New("entity: duplicate attribute name")

	// ErrUnknownJoinKey is returned when a join key does not exist as an
	// attribute of the entity it is supposed to match on.
	ErrUnknownJoinKey = errors.New("entity: unknown join key")
)

// Transform is the opaque handle attached to a derived attribute. The planner
// only decides when the attribute can be computed; an external executor is
// the one that eventually invokes the handle.
type Transform any

// InputRef declares one input of a derived attribute: the formal parameter
// name the transform receives it under, and the reference string naming the
// producing attribute ("alias.attr" through a join, or a bare "attr" on the
// owning entity itself).
type InputRef struct {
	Param string
	Ref   string
}

// AttributeDef describes one attribute of an entity. Source attributes carry
// no inputs and no transform.
type AttributeDef struct {
	Name      string
	Type      schema.AttributeType
	Inputs    []InputRef
	Transform Transform
}

// Relationship is a named, keyed join from a derived entity to a target
// entity. MatchTarget is the key attribute on the target; MatchName is the
// key attribute on the owning entity, defaulting to the MatchTarget name.
type Relationship struct {
	Alias       string
	Target      Entity
	MatchTarget string
	MatchName   string
}

// Entity is either a source or a derived entity. IDs are opaque unique
// strings: source entities use their source path verbatim, derived entities
// their declared name.
type Entity interface {
	ID() string
	Attributes() []AttributeDef
	Attribute(name string) (AttributeDef, bool)
	Relationships() []Relationship
	Relationship(alias string) (Relationship, bool)
}

// Source is an entity whose attributes come directly from a registered
// schema, with no transforms. It is the leaf producer in every graph.
type Source struct {
	id    string
	attrs []AttributeDef
	index map[string]int
}

// NewSource binds a source entity to the schema registered under sourceName.
func NewSource(reg *schema.Registry, sourceName string) (*Source, error) {
	entry, err := reg.Lookup(sourceName)
	if err != nil {
		return nil, err
	}

	schemaAttrs := entry.Attributes()
	s := &Source{
		id:    sourceName,
		attrs: make([]AttributeDef, 0, len(schemaAttrs)),
		index: make(map[string]int, len(schemaAttrs)),
	}
	for i, a := range schemaAttrs {
		s.attrs = append(s.attrs, AttributeDef{Name: a.Name, Type: a.Type})
		s.index[a.Name] = i
	}
	return s, nil
}

func (s *Source) ID() string { return s.id }

func (s *Source) Attributes() []AttributeDef {
	out := make([]AttributeDef, len(s.attrs))
	copy(out, s.attrs)
	return out
}

func (s *Source) Attribute(name string) (AttributeDef, bool) {
	i, ok := s.index[name]
	if !ok {
		return AttributeDef{}, false
	}
	return s.attrs[i], true
}

func (s *Source) Relationships() []Relationship { return nil }

func (s *Source) Relationship(alias string) (Relationship, bool) {
	return Relationship{}, false
}

// Derived is an entity whose attributes are computed from other entities via
// its declared relationships.
type Derived struct {
	id        string
	rels      []Relationship
	relIndex  map[string]int
	attrs     []AttributeDef
	attrIndex map[string]int
}

// NewDerived validates and constructs a derived entity. Aliases and attribute
// names must be unique within the entity, and every relationship's
// MatchTarget key must exist on its target. The owner-side MatchName key is
// deliberately not checked here: it is only required once an input actually
// travels the relationship, which the attribute graph builder verifies.
func NewDerived(name string, rels []Relationship, attrs []AttributeDef) (*Derived, error) {
	if name == "" {
		return nil, fmt.Errorf("entity: derived entity must have a name")
	}

	d := &Derived{
		id:        name,
		rels:      make([]Relationship, 0, len(rels)),
		relIndex:  make(map[string]int, len(rels)),
		attrs:     make([]AttributeDef, 0, len(attrs)),
		attrIndex: make(map[string]int, len(attrs)),
	}

	for _, rel := range rels {
		if rel.Alias == "" {
			return nil, fmt.Errorf("entity: %s declares a relationship with an empty alias", name)
		}
		if rel.Target == nil {
			return nil, fmt.Errorf("entity: %s relationship %q has no target", name, rel.Alias)
		}
		if _, exists := d.relIndex[rel.Alias]; exists {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrDuplicateAlias, name, rel.Alias)
		}
		if _, ok := rel.Target.Attribute(rel.MatchTarget); !ok {
			return nil, fmt.Errorf("%w: %s has no attribute %q to join %s.%s on",
				ErrUnknownJoinKey, rel.Target.ID(), rel.MatchTarget, name, rel.Alias)
		}
		if rel.MatchName == "" {
			rel.MatchName = rel.MatchTarget
		}
		d.relIndex[rel.Alias] = len(d.rels)
		d.rels = append(d.rels, rel)
	}

	for _, attr := range attrs {
		if attr.Name == "" {
			return nil, fmt.Errorf("entity: %s declares an unnamed attribute", name)
		}
		if _, exists := d.attrIndex[attr.Name]; exists {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrDuplicateAttribute, name, attr.Name)
		}
		d.attrIndex[attr.Name] = len(d.attrs)
		d.attrs = append(d.attrs, attr)
	}

	return d, nil
}

func (d *Derived) ID() string { return d.id }

func (d *Derived) Attributes() []AttributeDef {
	out := make([]AttributeDef, len(d.attrs))
	copy(out, d.attrs)
	return out
}

func (d *Derived) Attribute(name string) (AttributeDef, bool) {
	i, ok := d.attrIndex[name]
	if !ok {
		return AttributeDef{}, false
	}
	return d.attrs[i], true
}

// Relationships returns the entity's joins in declaration order.
func (d *Derived) Relationships() []Relationship {
	out := make([]Relationship, len(d.rels))
	copy(out, d.rels)
	return out
}

func (d *Derived) Relationship(alias string) (Relationship, bool) {
	i, ok := d.relIndex[alias]
	if !ok {
		return Relationship{}, false
	}
	return d.rels[i], true
}

// QualifiedName is the attribute-graph node key for an attribute of an
// entity, "<entity ID>.<attribute name>".
func QualifiedName(entityID, attr string) string {
	return entityID + "." + attr
}
