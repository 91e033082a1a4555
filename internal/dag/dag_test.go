package dag

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGraph_AddNodeIsIdempotent(t *testing.T) {
	t.Parallel()

	g := New()

	g.AddNode("a")
	g.AddNode("a")

	if g.Len() != 1 {
		t.Errorf("Len() = %d; want 1", g.Len())
	}
}

func TestGraph_AddEdgeValidation(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")

	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("AddEdge() should reject self-referential edges")
	}
	if err := g.AddEdge("a", "missing"); err == nil {
		t.Error("AddEdge() should reject edges to unknown nodes")
	}
	if err := g.AddEdge("missing", "a"); err == nil {
		t.Error("AddEdge() should reject edges from unknown nodes")
	}
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("AddEdge() returned unexpected error: %v", err)
	}
}

func TestGraph_DependenciesAndDependents(t *testing.T) {
	t.Parallel()

	// Arrange: c depends on both a and b.
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	if err := g.AddEdge("a", "c"); err != nil {
		t.Fatalf("AddEdge(a, c): %v", err)
	}
	if err := g.AddEdge("b", "c"); err != nil {
		t.Fatalf("AddEdge(b, c): %v", err)
	}

	// Act
	deps, err := g.Dependencies("c")
	if err != nil {
		t.Fatalf("Dependencies() returned unexpected error: %v", err)
	}
	dependents, err := g.Dependents("a")
	if err != nil {
		t.Fatalf("Dependents() returned unexpected error: %v", err)
	}

	// Assert
	if diff := cmp.Diff([]string{"a", "b"}, deps); diff != "" {
		t.Errorf("Dependencies(c) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, dependents); diff != "" {
		t.Errorf("Dependents(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_DetectCycleOnAcyclicGraph(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("AddEdge(a, b): %v", err)
	}
	if err := g.AddEdge("b", "c"); err != nil {
		t.Fatalf("AddEdge(b, c): %v", err)
	}

	if err := g.DetectCycle(); err != nil {
		t.Errorf("DetectCycle() incorrectly reported a cycle: %v", err)
	}
}

func TestGraph_DetectCycleReportsChain(t *testing.T) {
	t.Parallel()

	// Arrange: a -> b -> c -> a.
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	for _, e := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}

	// Act
	err := g.DetectCycle()

	// Assert
	if err == nil {
		t.Fatal("DetectCycle() failed to detect the cycle")
	}
	cycleErr := AsCycleError(err)
	if cycleErr == nil {
		t.Fatalf("DetectCycle() returned %T; want *CycleError", err)
	}
	chain := cycleErr.Chain
	if len(chain) != 4 {
		t.Fatalf("Chain = %v; want all three nodes with the start repeated", chain)
	}
	if chain[0] != chain[len(chain)-1] {
		t.Errorf("Chain = %v; first and last entries should close the cycle", chain)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !strings.Contains(err.Error(), id) {
			t.Errorf("error %q does not name cycle member %q", err.Error(), id)
		}
	}
}

func TestGraph_EdgesSorted(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	if err := g.AddEdge("b", "c"); err != nil {
		t.Fatalf("AddEdge(b, c): %v", err)
	}
	if err := g.AddEdge("a", "c"); err != nil {
		t.Fatalf("AddEdge(a, c): %v", err)
	}
	// Repeated edges collapse.
	if err := g.AddEdge("a", "c"); err != nil {
		t.Fatalf("AddEdge(a, c) again: %v", err)
	}

	want := [][2]string{{"a", "c"}, {"b", "c"}}
	if diff := cmp.Diff(want, g.Edges()); diff != "" {
		t.Errorf("Edges() mismatch (-want +got):\n%s", diff)
	}
}
