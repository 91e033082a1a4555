// Package hcldecl loads pipeline declarations from HCL files: `source` blocks
// populate the schema registry, `entity` blocks declare derived entities with
// their joins, attributes, input references, and opaque transforms.
package hcldecl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// pipelineFile is the top-level structure of a pipeline declaration file.
type pipelineFile struct {
	Sources  []*sourceBlock `hcl:"source,block"`
	Entities []*entityBlock `hcl:"entity,block"`
}

// sourceBlock registers the schema of one raw source.
type sourceBlock struct {
	Path       string             `hcl:"path,label"`
	Attributes []*schemaAttrBlock `hcl:"attribute,block"`
}

// schemaAttrBlock is one typed column of a source schema.
type schemaAttrBlock struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type"`
}

// entityBlock declares one derived entity.
type entityBlock struct {
	Name       string       `hcl:"name,label"`
	Joins      []*joinBlock `hcl:"join,block"`
	Attributes []*attrBlock `hcl:"attribute,block"`
}

// joinBlock declares a named relationship to another entity. match_target is
// the join key on the target; match_name is the key on the declaring entity
// and defaults to the match_target name.
type joinBlock struct {
	Alias       string `hcl:"alias,label"`
	Target      string `hcl:"target"`
	MatchTarget string `hcl:"match_target"`
	MatchName   string `hcl:"match_name,optional"`
}

// attrBlock declares one derived attribute. expr carries the transform source
// compiled into an opaque handle; value declares a typed constant instead and
// is only legal on attributes with no inputs.
type attrBlock struct {
	Name   string         `hcl:"name,label"`
	Type   hcl.Expression `hcl:"type"`
	Inputs []*inputBlock  `hcl:"input,block"`
	Expr   string         `hcl:"expr,optional"`
	Value  *cty.Value     `hcl:"value,optional"`
}

// inputBlock binds a formal transform parameter to a reference string.
type inputBlock struct {
	Param string `hcl:"param,label"`
	Ref   string `hcl:"ref"`
}
