package hcldecl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowplan/internal/ctxlog"
	"github.com/vk/flowplan/internal/entity"
	"github.com/vk/flowplan/internal/fsutil"
	"github.com/vk/flowplan/internal/schema"
)

// Pipeline is the loaded declaration set: the populated schema registry and
// every entity, sources first, in declaration order.
type Pipeline struct {
	Registry *schema.Registry
	Entities []entity.Entity
}

// Load finds and parses all .hcl files under path, registers their sources
// into reg (which may already hold YAML-loaded schemas), and constructs the
// declared entities.
func Load(ctx context.Context, reg *schema.Registry, path string) (*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("loading pipeline declarations", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("hcldecl: finding pipeline files in %s: %w", path, err)
	}
	if len(files) == 0 {
		logger.Warn("no .hcl pipeline files found in path", "path", path)
	}

	parser := hclparse.NewParser()
	var sources []*sourceBlock
	var entities []*entityBlock
	for _, file := range files {
		parsed, err := parseFile(parser, file)
		if err != nil {
			return nil, err
		}
		sources = append(sources, parsed.Sources...)
		entities = append(entities, parsed.Entities...)
	}
	logger.Debug("pipeline files decoded", "files", len(files),
		"sources", len(sources), "entities", len(entities))

	return translate(ctx, reg, sources, entities)
}

// parseFile parses and decodes a single pipeline declaration file.
func parseFile(parser *hclparse.Parser, filePath string) (*pipelineFile, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hcldecl: failed to parse %s: %w", filePath, diags)
	}

	var parsed pipelineFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hcldecl: failed to decode %s: %w", filePath, diags)
	}
	return &parsed, nil
}
