package dag

import (
	"errors"
	"strings"
)

// CycleError reports a dependency cycle. Chain lists the node IDs along the
// cycle in detection order; the first and last entries are the same node.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "dag: dependency cycle: " + strings.Join(e.Chain, " -> ")
}

// AsCycleError unwraps err into a *CycleError, or returns nil if err does not
// carry one.
func AsCycleError(err error) *CycleError {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	return nil
}

// DetectCycle checks the graph for cycles using depth-first search with a
// recursion-stack set. It returns a *CycleError naming the offending chain,
// or nil when the graph is acyclic.
func (g *Graph) DetectCycle() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visited := make(map[string]bool, len(g.nodes))
	onStack := make(map[string]bool)
	var stack []string

	var visit func(n *node) *CycleError
	visit = func(n *node) *CycleError {
		onStack[n.id] = true
		stack = append(stack, n.id)

		for _, dep := range n.deps {
			if onStack[dep.id] {
				// Slice the recursion stack from the first occurrence of the
				// repeated node to close the chain.
				start := 0
				for i, id := range stack {
					if id == dep.id {
						start = i
						break
					}
				}
				chain := append([]string{}, stack[start:]...)
				return &CycleError{Chain: append(chain, dep.id)}
			}
			if !visited[dep.id] {
				if cycleErr := visit(dep); cycleErr != nil {
					return cycleErr
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		visited[n.id] = true
		return nil
	}

	for _, n := range g.nodes {
		if !visited[n.id] {
			if cycleErr := visit(n); cycleErr != nil {
				return cycleErr
			}
		}
	}
	return nil
}
