package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/flowplan/internal/ctxlog"
	"github.com/vk/flowplan/internal/dot"
	"github.com/vk/flowplan/internal/graph"
	"github.com/vk/flowplan/internal/hcldecl"
	"github.com/vk/flowplan/internal/plan"
	"github.com/vk/flowplan/internal/schema"
)

// Run loads the declared pipeline, compiles it into graphs and a plan, and
// writes the requested output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	registry := schema.NewRegistry()
	if a.config.SchemasPath != "" {
		if err := schema.LoadYAMLFile(registry, a.config.SchemasPath); err != nil {
			return fmt.Errorf("failed to load schema registry: %w", err)
		}
		a.logger.Debug("YAML schema registry loaded.", "sources", len(registry.Entries()))
	}

	pipeline, err := hcldecl.Load(ctx, registry, a.config.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	a.logger.Info("Pipeline declarations loaded.", "entities", len(pipeline.Entities))

	entityGraph, err := graph.BuildEntityGraph(ctx, pipeline.Entities)
	if err != nil {
		return fmt.Errorf("failed to build entity graph: %w", err)
	}
	a.logger.Debug("Entity graph built.", "entities", len(entityGraph.Nodes()))

	if a.config.Output == OutputEntityDot {
		_, err := a.outW.Write(dot.Marshal(entityGraph, "entities"))
		return err
	}

	attrGraph, err := graph.BuildAttributeGraph(ctx, entityGraph)
	if err != nil {
		return fmt.Errorf("failed to build attribute graph: %w", err)
	}
	a.logger.Debug("Attribute graph built.", "attributes", len(attrGraph.Nodes()))

	if a.config.Output == OutputAttributeDot {
		_, err := a.outW.Write(dot.Marshal(attrGraph, "attributes"))
		return err
	}

	order, err := plan.ExecutionOrder(ctx, attrGraph)
	if err != nil {
		return fmt.Errorf("failed to compute execution order: %w", err)
	}
	a.logger.Info("Execution order computed.", "levels", len(order))

	return a.printPlan(order)
}

// printPlan writes one line per level. Members are sorted for display only;
// within a level they carry no ordering.
func (a *App) printPlan(order plan.Plan) error {
	for i, level := range order {
		names := make([]string, 0, len(level))
		for name := range level {
			names = append(names, name)
		}
		sort.Strings(names)
		if _, err := fmt.Fprintf(a.outW, "level %d: %s\n", i, strings.Join(names, ", ")); err != nil {
			return err
		}
	}
	return nil
}
