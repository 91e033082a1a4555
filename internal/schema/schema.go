// Package schema holds the registry of raw source schemas: for every source
// name, an ordered list of attribute names and their declared types. The
// registry follows a populate-then-freeze lifecycle; once a source is
// registered its entry never changes, so concurrent lookups are safe.
package schema

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors.
var (
	// ErrDuplicateSchema is returned when a source name is registered twice.
	ErrDuplicateSchema = errors.New("schema: duplicate source")

	// ErrUnknownSource is returned when looking up a source that was never registered.
	ErrUnknownSource = errors.New("schema: unknown source")

	// ErrUnknownType is returned when an attribute type keyword is not recognized.
	ErrUnknownType = errors.New("schema: unknown attribute type")
)

// AttributeType tags the declared type of a source or derived attribute.
// The planner treats it as opaque; only the declaration loaders interpret it.
type AttributeType int

const (
	TypeInvalid AttributeType = iota
	TypeInt
	TypeString
	TypeDecimal
	TypeTimestamp
)

// String returns the declaration keyword for the type.
func (t AttributeType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeDecimal:
		return "decimal"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "invalid"
	}
}

// ParseAttributeType converts a declaration keyword into an AttributeType.
func ParseAttributeType(keyword string) (AttributeType, error) {
	switch keyword {
	case "int":
		return TypeInt, nil
	case "string":
		return TypeString, nil
	case "decimal":
		return TypeDecimal, nil
	case "timestamp":
		return TypeTimestamp, nil
	default:
		return TypeInvalid, fmt.Errorf("%w: %q", ErrUnknownType, keyword)
	}
}

// Attribute is one named, typed column of a source schema.
type Attribute struct {
	Name string
	Type AttributeType
}

// Entry is the immutable schema of a single registered source.
type Entry struct {
	source string
	attrs  []Attribute
	index  map[string]int
}

// Source returns the source name the entry was registered under.
func (e *Entry) Source() string { return e.source }

// Attributes returns the schema's attributes in declaration order.
func (e *Entry) Attributes() []Attribute {
	out := make([]Attribute, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Type returns the declared type of the named attribute.
func (e *Entry) Type(name string) (AttributeType, bool) {
	i, ok := e.index[name]
	if !ok {
		return TypeInvalid, false
	}
	return e.attrs[i].Type, true
}

// Registry maps source names to their schemas. It is an explicit instance
// passed by reference; there is no process-wide registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register stores the schema for a source. The attribute order is preserved.
// Registering the same source twice fails with ErrDuplicateSchema and leaves
// the first registration untouched.
func (r *Registry) Register(source string, attrs []Attribute) error {
	if source == "" {
		return fmt.Errorf("schema: source name must not be empty")
	}

	entry := &Entry{
		source: source,
		attrs:  make([]Attribute, len(attrs)),
		index:  make(map[string]int, len(attrs)),
	}
	copy(entry.attrs, attrs)
	for i, a := range entry.attrs {
		if a.Name == "" {
			return fmt.Errorf("schema: source %q declares an unnamed attribute", source)
		}
		if _, exists := entry.index[a.Name]; exists {
			return fmt.Errorf("schema: source %q declares attribute %q twice", source, a.Name)
		}
		entry.index[a.Name] = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[source]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSchema, source)
	}
	r.entries[source] = entry
	r.order = append(r.order, source)
	return nil
}

// Lookup returns the schema registered for the source.
func (r *Registry) Lookup(source string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return entry, nil
}

// Entries returns every registered schema in registration order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, 0, len(r.order))
	for _, source := range r.order {
		out = append(out, r.entries[source])
	}
	return out
}
