package hcldecl

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/vk/flowplan/internal/ctxlog"
	"github.com/vk/flowplan/internal/entity"
	"github.com/vk/flowplan/internal/schema"
	"github.com/zclconf/go-cty/cty/convert"
)

// translate turns decoded blocks into registry entries and entity instances.
func translate(ctx context.Context, reg *schema.Registry, sources []*sourceBlock, entities []*entityBlock) (*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	for _, s := range sources {
		attrs := make([]schema.Attribute, 0, len(s.Attributes))
		for _, a := range s.Attributes {
			t, err := attributeType(a.Type)
			if err != nil {
				return nil, fmt.Errorf("source %q attribute %q: %w", s.Path, a.Name, err)
			}
			attrs = append(attrs, schema.Attribute{Name: a.Name, Type: t})
		}
		if err := reg.Register(s.Path, attrs); err != nil {
			return nil, err
		}
	}

	// Every registry entry gets a source entity, which also covers schemas
	// seeded from a YAML registry before Load ran.
	built := make(map[string]entity.Entity)
	var ordered []entity.Entity
	for _, entry := range reg.Entries() {
		src, err := entity.NewSource(reg, entry.Source())
		if err != nil {
			return nil, err
		}
		built[src.ID()] = src
		ordered = append(ordered, src)
	}

	declared := make(map[string]bool, len(entities))
	for _, eb := range entities {
		if _, taken := built[eb.Name]; taken {
			return nil, fmt.Errorf("hcldecl: entity %q collides with a source of the same name", eb.Name)
		}
		if declared[eb.Name] {
			return nil, fmt.Errorf("hcldecl: entity %q declared twice", eb.Name)
		}
		declared[eb.Name] = true
	}

	// Entities may join entities declared later in the file set, so build
	// them to a fixpoint: each round constructs every entity whose join
	// targets already exist.
	pending := append([]*entityBlock{}, entities...)
	for len(pending) > 0 {
		var next []*entityBlock
		var round []*entityBlock
		for _, eb := range pending {
			if targetsReady(eb, built) {
				round = append(round, eb)
			} else {
				next = append(next, eb)
			}
		}

		if len(round) == 0 {
			return nil, stuckError(next, built, declared)
		}
		for _, eb := range round {
			d, err := buildDerived(eb, built)
			if err != nil {
				return nil, err
			}
			built[d.ID()] = d
			ordered = append(ordered, d)
		}
		pending = next
	}

	logger.Debug("pipeline declarations translated", "entities", len(ordered))
	return &Pipeline{Registry: reg, Entities: ordered}, nil
}

// targetsReady reports whether every join target of the entity is built.
func targetsReady(eb *entityBlock, built map[string]entity.Entity) bool {
	for _, j := range eb.Joins {
		if _, ok := built[j.Target]; !ok {
			return false
		}
	}
	return true
}

// stuckError explains why the fixpoint stalled: a join target that exists
// nowhere in the declaration set, or entities joining each other in a cycle.
func stuckError(pending []*entityBlock, built map[string]entity.Entity, declared map[string]bool) error {
	for _, eb := range pending {
		for _, j := range eb.Joins {
			if _, ok := built[j.Target]; ok {
				continue
			}
			if !declared[j.Target] {
				return fmt.Errorf("hcldecl: entity %q joins unknown target %q", eb.Name, j.Target)
			}
		}
	}

	names := make([]string, 0, len(pending))
	for _, eb := range pending {
		names = append(names, eb.Name)
	}
	sort.Strings(names)
	return fmt.Errorf("hcldecl: entities declare circular join targets: %v", names)
}

// buildDerived constructs one derived entity from its decoded block.
func buildDerived(eb *entityBlock, built map[string]entity.Entity) (*entity.Derived, error) {
	rels := make([]entity.Relationship, 0, len(eb.Joins))
	for _, j := range eb.Joins {
		rels = append(rels, entity.Relationship{
			Alias:       j.Alias,
			Target:      built[j.Target],
			MatchTarget: j.MatchTarget,
			MatchName:   j.MatchName,
		})
	}

	attrs := make([]entity.AttributeDef, 0, len(eb.Attributes))
	for _, a := range eb.Attributes {
		t, err := attributeType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("entity %q attribute %q: %w", eb.Name, a.Name, err)
		}

		inputs := make([]entity.InputRef, 0, len(a.Inputs))
		for _, in := range a.Inputs {
			inputs = append(inputs, entity.InputRef{Param: in.Param, Ref: in.Ref})
		}

		transform, err := transformFor(eb.Name, a, t)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, entity.AttributeDef{
			Name:      a.Name,
			Type:      t,
			Inputs:    inputs,
			Transform: transform,
		})
	}

	return entity.NewDerived(eb.Name, rels, attrs)
}

// transformFor builds the opaque transform handle for an attribute: a
// compiled expression program, or a typed constant for zero-input attributes.
// The planner never looks inside either; the handle is carried for the
// external executor.
func transformFor(entityName string, a *attrBlock, t schema.AttributeType) (entity.Transform, error) {
	hasExpr := a.Expr != ""
	hasValue := a.Value != nil && !a.Value.IsNull()

	switch {
	case hasExpr && hasValue:
		return nil, fmt.Errorf("hcldecl: entity %q attribute %q declares both expr and value", entityName, a.Name)

	case hasValue:
		if len(a.Inputs) > 0 {
			return nil, fmt.Errorf("hcldecl: entity %q attribute %q declares a constant value but takes inputs", entityName, a.Name)
		}
		val, err := convert.Convert(*a.Value, ctyTypeFor(t))
		if err != nil {
			return nil, fmt.Errorf("hcldecl: entity %q attribute %q: cannot convert value to %s: %w", entityName, a.Name, t, err)
		}
		return val, nil

	case hasExpr:
		program, err := expr.Compile(a.Expr)
		if err != nil {
			return nil, fmt.Errorf("hcldecl: entity %q attribute %q: compiling expr: %w", entityName, a.Name, err)
		}
		return program, nil

	default:
		return nil, nil
	}
}
