// Package graph builds the two dependency graphs of a pipeline: the
// entity-level graph derived from join relationships, and the fully resolved
// attribute-level graph the execution planner stratifies.
package graph

import (
	"context"
	"fmt"

	"github.com/vk/flowplan/internal/ctxlog"
	"github.com/vk/flowplan/internal/dag"
	"github.com/vk/flowplan/internal/entity"
)

// EntityGraph is the directed dependency graph over entities. An edge from A
// to B means B joins A in, i.e. B depends on A.
type EntityGraph struct {
	g        *dag.Graph
	entities map[string]entity.Entity
	order    []string
}

// BuildEntityGraph constructs and validates the entity graph for the given
// collection. Entities referenced as join targets but absent from the
// collection are included as reachable nodes; entities nothing joins remain
// as isolated nodes.
func BuildEntityGraph(ctx context.Context, entities []entity.Entity) (*EntityGraph, error) {
	logger := ctxlog.FromContext(ctx)

	eg := &EntityGraph{
		g:        dag.New(),
		entities: make(map[string]entity.Entity, len(entities)),
	}

	// First pass: create a node per entity, then pull in join targets the
	// caller holds by reference but did not enumerate.
	for _, e := range entities {
		if prev, exists := eg.entities[e.ID()]; exists {
			if prev == e {
				continue
			}
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntity, e.ID())
		}
		eg.addNode(e)
	}
	for _, e := range entities {
		if err := eg.addReachable(e); err != nil {
			return nil, err
		}
	}
	logger.Debug("entity graph nodes created", "count", eg.g.Len())

	// Second pass: one dependency edge per relationship.
	for _, id := range eg.order {
		e := eg.entities[id]
		for _, rel := range e.Relationships() {
			if rel.Target.ID() == e.ID() {
				return nil, &EntityCycleError{Chain: []string{e.ID(), e.ID()}}
			}
			if err := eg.g.AddEdge(rel.Target.ID(), e.ID()); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("entity graph edges linked", "edges", len(eg.g.Edges()))

	if err := eg.g.DetectCycle(); err != nil {
		if cycleErr := dag.AsCycleError(err); cycleErr != nil {
			return nil, &EntityCycleError{Chain: cycleErr.Chain}
		}
		return nil, err
	}
	return eg, nil
}

func (eg *EntityGraph) addNode(e entity.Entity) {
	eg.entities[e.ID()] = e
	eg.order = append(eg.order, e.ID())
	eg.g.AddNode(e.ID())
}

// addReachable walks relationship targets and adds any entity not already in
// the graph. A target whose ID collides with a different enumerated entity is
// an error, same as a duplicate in the input collection.
func (eg *EntityGraph) addReachable(e entity.Entity) error {
	for _, rel := range e.Relationships() {
		target := rel.Target
		if prev, exists := eg.entities[target.ID()]; exists {
			if prev != target {
				return fmt.Errorf("%w: %q", ErrDuplicateEntity, target.ID())
			}
			continue
		}
		eg.addNode(target)
		if err := eg.addReachable(target); err != nil {
			return err
		}
	}
	return nil
}

// Entity returns the entity registered under the given ID.
func (eg *EntityGraph) Entity(id string) (entity.Entity, bool) {
	e, ok := eg.entities[id]
	return e, ok
}

// Entities returns every entity in the graph in insertion order: the input
// collection first, then targets discovered through relationships.
func (eg *EntityGraph) Entities() []entity.Entity {
	out := make([]entity.Entity, 0, len(eg.order))
	for _, id := range eg.order {
		out = append(out, eg.entities[id])
	}
	return out
}

// Nodes returns every entity ID, sorted.
func (eg *EntityGraph) Nodes() []string { return eg.g.Nodes() }

// Edges returns every dependency edge as sorted [from, to] pairs, where "to"
// depends on "from".
func (eg *EntityGraph) Edges() [][2]string { return eg.g.Edges() }
