package graph

import (
	"context"
	"fmt"

	"github.com/vk/flowplan/internal/ctxlog"
	"github.com/vk/flowplan/internal/dag"
	"github.com/vk/flowplan/internal/entity"
	"github.com/vk/flowplan/internal/resolve"
)

// AttributeGraph is the directed dependency graph over qualified attributes.
// An edge from "a.x" to "b.y" means b.y consumes a.x.
type AttributeGraph struct {
	g     *dag.Graph
	attrs map[string]AttributeNode
}

// AttributeNode identifies the entity and attribute behind a qualified name.
type AttributeNode struct {
	Entity    entity.Entity
	Attribute entity.AttributeDef
}

// BuildAttributeGraph resolves every input reference of every derived
// attribute in the entity graph and links the resulting dependencies at
// attribute granularity. Source attributes (and derived attributes with no
// inputs) become the roots of the graph.
func BuildAttributeGraph(ctx context.Context, eg *EntityGraph) (*AttributeGraph, error) {
	logger := ctxlog.FromContext(ctx)

	ag := &AttributeGraph{
		g:     dag.New(),
		attrs: make(map[string]AttributeNode),
	}

	// First pass: one node per attribute of every entity.
	for _, e := range eg.Entities() {
		for _, attr := range e.Attributes() {
			key := entity.QualifiedName(e.ID(), attr.Name)
			ag.g.AddNode(key)
			ag.attrs[key] = AttributeNode{Entity: e, Attribute: attr}
		}
	}
	logger.Debug("attribute graph nodes created", "count", ag.g.Len())

	// Second pass: resolve inputs and link dependency edges.
	for _, e := range eg.Entities() {
		for _, attr := range e.Attributes() {
			if err := ag.linkInputs(e, attr); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("attribute graph edges linked", "edges", len(ag.g.Edges()))

	if err := ag.g.DetectCycle(); err != nil {
		if cycleErr := dag.AsCycleError(err); cycleErr != nil {
			return nil, &AttributeCycleError{Chain: cycleErr.Chain}
		}
		return nil, err
	}
	return ag, nil
}

// linkInputs adds one edge per resolved input of the attribute. An input that
// travels a join additionally makes the attribute depend on the owning
// entity's join-key attribute: the rows of the target cannot be matched
// before the owner's key column exists.
func (ag *AttributeGraph) linkInputs(owner entity.Entity, attr entity.AttributeDef) error {
	resolved, err := resolve.Inputs(owner, attr)
	if err != nil {
		return err
	}

	key := entity.QualifiedName(owner.ID(), attr.Name)
	for _, r := range resolved {
		depKey := entity.QualifiedName(r.Entity.ID(), r.Attribute)
		if depKey == key {
			return &AttributeCycleError{Chain: []string{key, key}}
		}
		if err := ag.g.AddEdge(depKey, key); err != nil {
			return err
		}

		if r.Via == nil {
			continue
		}
		// Lazy owner-side join-key check (construction could not do it:
		// the owner's attributes were not all known yet).
		matchName := r.Via.MatchName
		if _, ok := owner.Attribute(matchName); !ok {
			return fmt.Errorf("%w: %s has no attribute %q to match join %q on",
				entity.ErrUnknownJoinKey, owner.ID(), matchName, r.Via.Alias)
		}
		parentKey := entity.QualifiedName(owner.ID(), matchName)
		if parentKey == key {
			continue
		}
		if err := ag.g.AddEdge(parentKey, key); err != nil {
			return err
		}
	}
	return nil
}

// Node returns the entity and attribute behind a qualified name.
func (ag *AttributeGraph) Node(qualified string) (AttributeNode, bool) {
	n, ok := ag.attrs[qualified]
	return n, ok
}

// Nodes returns every qualified attribute name, sorted.
func (ag *AttributeGraph) Nodes() []string { return ag.g.Nodes() }

// Edges returns every dependency edge as sorted [from, to] pairs, where "to"
// consumes "from".
func (ag *AttributeGraph) Edges() [][2]string { return ag.g.Edges() }

// Dependencies returns the qualified attributes the given attribute consumes.
func (ag *AttributeGraph) Dependencies(qualified string) ([]string, error) {
	return ag.g.Dependencies(qualified)
}

// Dependents returns the qualified attributes consuming the given attribute.
func (ag *AttributeGraph) Dependents(qualified string) ([]string, error) {
	return ag.g.Dependents(qualified)
}
