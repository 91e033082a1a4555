// This file contains the logic for parsing HCL type keyword expressions
// (e.g. `int`, `timestamp`) into schema attribute types.

package hcldecl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/flowplan/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// attributeType converts an HCL type expression into its schema equivalent.
// Types are bare keywords, not strings: `type = int`.
func attributeType(expr hcl.Expression) (schema.AttributeType, error) {
	if expr == nil {
		return schema.TypeInvalid, fmt.Errorf("hcldecl: missing type expression")
	}

	traversal, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok {
		return schema.TypeInvalid, fmt.Errorf("hcldecl: unsupported expression for type definition: %T", expr)
	}
	if len(traversal.Traversal) != 1 {
		return schema.TypeInvalid, fmt.Errorf("hcldecl: invalid type keyword: traversal path is not a single identifier")
	}

	t, err := schema.ParseAttributeType(traversal.Traversal.RootName())
	if err != nil {
		return schema.TypeInvalid, err
	}
	return t, nil
}

// ctyTypeFor maps a schema attribute type to the cty type constant values are
// converted into.
func ctyTypeFor(t schema.AttributeType) cty.Type {
	switch t {
	case schema.TypeInt, schema.TypeDecimal:
		return cty.Number
	default:
		return cty.String
	}
}
