// Package plan computes the execution order of an attribute graph: the
// coarsest stratification into levels where every attribute's dependencies
// live in strictly earlier levels. Attributes within one level carry no
// ordering relative to each other and may be computed concurrently by an
// external executor; levels must run strictly in sequence.
package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/flowplan/internal/ctxlog"
)

// ErrPlannerInvariant is returned when nodes remain unplaceable even though
// the graph passed cycle validation. It signals a bug in the planner or the
// graph handed to it, never bad user input.
var ErrPlannerInvariant = errors.New("plan: unplaceable attributes remain; cycle slipped past graph validation")

// Graph is the planner's read-only view of an attribute graph.
type Graph interface {
	Nodes() []string
	Dependencies(id string) ([]string, error)
}

// Set is one level of the plan: attributes safe to compute concurrently.
type Set map[string]struct{}

// Plan is the ordered sequence of levels. Every attribute of the graph
// appears in exactly one level, and each attribute's level is exactly one
// past the deepest of its dependencies.
type Plan []Set

// Index returns the level an attribute was placed in.
func (p Plan) Index(qualified string) (int, bool) {
	for i, level := range p {
		if _, ok := level[qualified]; ok {
			return i, true
		}
	}
	return 0, false
}

// ExecutionOrder stratifies the graph with a layered Kahn sort. Level 0 holds
// every node with no dependencies; level k+1 holds the nodes whose unresolved
// dependency count reaches zero once level k is complete.
func ExecutionOrder(ctx context.Context, g Graph) (Plan, error) {
	logger := ctxlog.FromContext(ctx)

	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		deps, err := g.Dependencies(n)
		if err != nil {
			return nil, fmt.Errorf("plan: reading dependencies of %s: %w", n, err)
		}
		inDegree[n] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], n)
		}
	}

	level := Set{}
	for _, n := range nodes {
		if inDegree[n] == 0 {
			level[n] = struct{}{}
		}
	}

	var p Plan
	placed := 0
	for len(level) > 0 {
		p = append(p, level)
		placed += len(level)

		next := Set{}
		for n := range level {
			for _, dependent := range dependents[n] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next[dependent] = struct{}{}
				}
			}
		}
		level = next
	}

	if placed != len(nodes) {
		return nil, fmt.Errorf("%w: placed %d of %d", ErrPlannerInvariant, placed, len(nodes))
	}

	logger.Debug("execution order computed", "levels", len(p), "attributes", placed)
	return p, nil
}
