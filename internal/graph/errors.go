package graph

import (
	"errors"
	"strings"
)

// ErrDuplicateEntity is returned when two entities in the input collection
// share the same ID.
var ErrDuplicateEntity = errors.New("graph: duplicate entity id")

// EntityCycleError reports a cycle in the entity-level dependency graph.
// Chain lists the entity IDs along the cycle in detection order; the first
// and last entries are the same entity.
type EntityCycleError struct {
	Chain []string
}

func (e *EntityCycleError) Error() string {
	return "graph: entity dependency cycle: " + strings.Join(e.Chain, " -> ")
}

// AttributeCycleError reports a cycle in the attribute-level dependency
// graph. Chain lists qualified attribute names in detection order.
type AttributeCycleError struct {
	Chain []string
}

func (e *AttributeCycleError) Error() string {
	return "graph: attribute dependency cycle: " + strings.Join(e.Chain, " -> ")
}
