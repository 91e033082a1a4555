package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vk/flowplan/internal/entity"
	"github.com/vk/flowplan/internal/resolve"
	"github.com/vk/flowplan/internal/schema"
)

// shopsGraph builds the entity graph for a derived "shops" entity over the
// raw shops source.
func shopsGraph(t *testing.T, attrs []entity.AttributeDef) *EntityGraph {
	t.Helper()

	reg := testRegistry(t)
	rawShops, err := entity.NewSource(reg, "data/raw/shops")
	if err != nil {
		t.Fatalf("NewSource() returned unexpected error: %v", err)
	}
	shops, err := entity.NewDerived("shops",
		[]entity.Relationship{{Alias: "shops", Target: rawShops, MatchTarget: "id"}}, attrs)
	if err != nil {
		t.Fatalf("NewDerived() returned unexpected error: %v", err)
	}
	eg, err := BuildEntityGraph(context.Background(), []entity.Entity{rawShops, shops})
	if err != nil {
		t.Fatalf("BuildEntityGraph() returned unexpected error: %v", err)
	}
	return eg
}

func TestBuildAttributeGraph_NodesAndJoinKeyEdges(t *testing.T) {
	t.Parallel()

	// Arrange
	eg := shopsGraph(t, []entity.AttributeDef{
		{Name: "id", Type: schema.TypeInt,
			Inputs: []entity.InputRef{{Param: "id", Ref: "shops.id"}}},
		{Name: "name", Type: schema.TypeString,
			Inputs: []entity.InputRef{{Param: "name", Ref: "shops.name"}}},
	})

	// Act
	ag, err := BuildAttributeGraph(context.Background(), eg)

	// Assert
	if err != nil {
		t.Fatalf("BuildAttributeGraph() returned unexpected error: %v", err)
	}
	wantNodes := []string{
		"data/raw/shops.country",
		"data/raw/shops.id",
		"data/raw/shops.name",
		"shops.id",
		"shops.name",
	}
	if diff := cmp.Diff(wantNodes, ag.Nodes()); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}

	// shops.name consumes the source column and, through the join, the
	// entity's own key column. shops.id is the key itself: no self edge.
	nameDeps, err := ag.Dependencies("shops.name")
	if err != nil {
		t.Fatalf("Dependencies() returned unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"data/raw/shops.name", "shops.id"}, nameDeps); diff != "" {
		t.Errorf("Dependencies(shops.name) mismatch (-want +got):\n%s", diff)
	}
	idDeps, err := ag.Dependencies("shops.id")
	if err != nil {
		t.Fatalf("Dependencies() returned unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"data/raw/shops.id"}, idDeps); diff != "" {
		t.Errorf("Dependencies(shops.id) mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAttributeGraph_ZeroInputAttributeIsRoot(t *testing.T) {
	t.Parallel()

	eg := shopsGraph(t, []entity.AttributeDef{
		{Name: "id", Type: schema.TypeInt,
			Inputs: []entity.InputRef{{Param: "id", Ref: "shops.id"}}},
		{Name: "origin", Type: schema.TypeString},
	})

	ag, err := BuildAttributeGraph(context.Background(), eg)

	if err != nil {
		t.Fatalf("BuildAttributeGraph() returned unexpected error: %v", err)
	}
	deps, err := ag.Dependencies("shops.origin")
	if err != nil {
		t.Fatalf("Dependencies() returned unexpected error: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("Dependencies(shops.origin) = %v; want a constant attribute to be a root", deps)
	}
}

func TestBuildAttributeGraph_UnresolvableReference(t *testing.T) {
	t.Parallel()

	eg := shopsGraph(t, []entity.AttributeDef{
		{Name: "bad", Type: schema.TypeString,
			Inputs: []entity.InputRef{{Param: "x", Ref: "missing.attr"}}},
	})

	_, err := BuildAttributeGraph(context.Background(), eg)

	if !errors.Is(err, resolve.ErrUnknownAlias) {
		t.Errorf("BuildAttributeGraph() error = %v; want ErrUnknownAlias", err)
	}
}

func TestBuildAttributeGraph_LazyJoinKeyCheck(t *testing.T) {
	t.Parallel()

	// Arrange: the join declares match_name "shop_id", which the owning
	// entity never defines. Construction accepts it; only reading through
	// the join may fail.
	reg := testRegistry(t)
	rawShops, _ := entity.NewSource(reg, "data/raw/shops")
	shops, err := entity.NewDerived("shops",
		[]entity.Relationship{{Alias: "shops", Target: rawShops, MatchTarget: "id", MatchName: "shop_id"}},
		[]entity.AttributeDef{
			{Name: "name", Type: schema.TypeString,
				Inputs: []entity.InputRef{{Param: "name", Ref: "shops.name"}}},
		})
	if err != nil {
		t.Fatalf("NewDerived() returned unexpected error: %v", err)
	}
	eg, err := BuildEntityGraph(context.Background(), []entity.Entity{rawShops, shops})
	if err != nil {
		t.Fatalf("BuildEntityGraph() returned unexpected error: %v", err)
	}

	// Act
	_, err = BuildAttributeGraph(context.Background(), eg)

	// Assert
	if !errors.Is(err, entity.ErrUnknownJoinKey) {
		t.Errorf("BuildAttributeGraph() error = %v; want ErrUnknownJoinKey", err)
	}
}

func TestBuildAttributeGraph_UntraveledJoinKeyIsNotChecked(t *testing.T) {
	t.Parallel()

	// Arrange: same broken match_name, but no attribute reads through the
	// join, so the lazy check never fires.
	reg := testRegistry(t)
	rawShops, _ := entity.NewSource(reg, "data/raw/shops")
	shops, err := entity.NewDerived("shops",
		[]entity.Relationship{{Alias: "shops", Target: rawShops, MatchTarget: "id", MatchName: "shop_id"}},
		[]entity.AttributeDef{{Name: "origin", Type: schema.TypeString}})
	if err != nil {
		t.Fatalf("NewDerived() returned unexpected error: %v", err)
	}
	eg, err := BuildEntityGraph(context.Background(), []entity.Entity{rawShops, shops})
	if err != nil {
		t.Fatalf("BuildEntityGraph() returned unexpected error: %v", err)
	}

	// Act
	_, err = BuildAttributeGraph(context.Background(), eg)

	// Assert
	if err != nil {
		t.Errorf("BuildAttributeGraph() returned unexpected error: %v", err)
	}
}

func TestBuildAttributeGraph_CycleFails(t *testing.T) {
	t.Parallel()

	// Arrange: a.x reads b.y through a join while b.y reads a.x back. The
	// entity graph alone would already reject this, so wire the attribute
	// cycle through stubs and feed the builder a hand-made entity graph.
	a := &stubEntity{id: "a", attrs: []entity.AttributeDef{
		{Name: "x", Inputs: []entity.InputRef{{Param: "y", Ref: "b.y"}}},
	}}
	b := &stubEntity{id: "b", attrs: []entity.AttributeDef{
		{Name: "y", Inputs: []entity.InputRef{{Param: "x", Ref: "a.x"}}},
	}}
	a.rels = []entity.Relationship{{Alias: "b", Target: b, MatchTarget: "y", MatchName: "x"}}
	b.rels = []entity.Relationship{{Alias: "a", Target: a, MatchTarget: "x", MatchName: "y"}}
	eg := &EntityGraph{entities: map[string]entity.Entity{"a": a, "b": b}, order: []string{"a", "b"}}

	// Act
	_, err := BuildAttributeGraph(context.Background(), eg)

	// Assert
	var cycleErr *AttributeCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("BuildAttributeGraph() error = %v; want *AttributeCycleError", err)
	}
	if len(cycleErr.Chain) < 3 || cycleErr.Chain[0] != cycleErr.Chain[len(cycleErr.Chain)-1] {
		t.Errorf("Chain = %v; want a closed qualified-attribute chain", cycleErr.Chain)
	}
}

func TestBuildAttributeGraph_DirectSelfDependencyFails(t *testing.T) {
	t.Parallel()

	// An attribute consuming itself through a bare self reference.
	a := &stubEntity{id: "a", attrs: []entity.AttributeDef{
		{Name: "x", Inputs: []entity.InputRef{{Param: "x", Ref: "x"}}},
	}}
	eg := &EntityGraph{entities: map[string]entity.Entity{"a": a}, order: []string{"a"}}

	_, err := BuildAttributeGraph(context.Background(), eg)

	var cycleErr *AttributeCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("BuildAttributeGraph() error = %v; want *AttributeCycleError", err)
	}
	if diff := cmp.Diff([]string{"a.x", "a.x"}, cycleErr.Chain); diff != "" {
		t.Errorf("Chain mismatch (-want +got):\n%s", diff)
	}
}
