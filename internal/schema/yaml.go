package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML registers every source found in a YAML registry document:
//
//	sources:
//	  data/raw/orders:
//	    id: int
//	    shop_id: int
//
// The document is walked as a yaml.Node tree rather than decoded into a map
// so that the on-disk attribute order survives into the registry.
func LoadYAML(r *Registry, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("schema: parsing YAML registry: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("schema: YAML registry is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: YAML registry root must be a mapping")
	}

	sources := mappingValue(root, "sources")
	if sources == nil {
		return fmt.Errorf("schema: YAML registry has no 'sources' mapping")
	}
	if sources.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: 'sources' must be a mapping of source name to attributes")
	}

	for i := 0; i+1 < len(sources.Content); i += 2 {
		name := sources.Content[i]
		body := sources.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("schema: source %q must map attribute names to types (line %d)", name.Value, body.Line)
		}

		var attrs []Attribute
		for j := 0; j+1 < len(body.Content); j += 2 {
			attrName := body.Content[j]
			attrType := body.Content[j+1]
			t, err := ParseAttributeType(attrType.Value)
			if err != nil {
				return fmt.Errorf("schema: source %q attribute %q (line %d): %w", name.Value, attrName.Value, attrType.Line, err)
			}
			attrs = append(attrs, Attribute{Name: attrName.Value, Type: t})
		}
		if err := r.Register(name.Value, attrs); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAMLFile reads a YAML registry file and registers its sources.
func LoadYAMLFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("schema: reading YAML registry %s: %w", path, err)
	}
	if err := LoadYAML(r, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// mappingValue returns the value node paired with the given key in a mapping
// node, or nil when the key is absent.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
