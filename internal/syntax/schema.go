package syntax

import "fmt"

// Kind identifies a node kind registered in a Schema.
type Kind uint16

// InvalidKind is the zero Kind; no schema registers it.
const InvalidKind Kind = 0

// PropertyKind distinguishes how a structural property stores its value.
type PropertyKind uint8

const (
	// PropertyChild holds at most one child node.
	PropertyChild PropertyKind = iota + 1
	// PropertyList holds an ordered sequence of child nodes.
	PropertyList
	// PropertyScalar holds a string such as an identifier or keyword.
	PropertyScalar
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyChild:
		return "child"
	case PropertyList:
		return "list"
	case PropertyScalar:
		return "scalar"
	default:
		return fmt.Sprintf("PropertyKind(%d)", k)
	}
}

// Property is one structural property in a kind's schema.
type Property struct {
	Name string
	Kind PropertyKind
}

// IsList reports whether the property holds an ordered child list.
func (p Property) IsList() bool { return p.Kind == PropertyList }

// Child declares a single-valued node property.
func Child(name string) Property { return Property{Name: name, Kind: PropertyChild} }

// List declares a list-valued property.
func List(name string) Property { return Property{Name: name, Kind: PropertyList} }

// Scalar declares a single-valued string property.
func Scalar(name string) Property { return Property{Name: name, Kind: PropertyScalar} }

// KindInfo describes one node kind.
type KindInfo struct {
	Name       string
	Properties []Property
}

// Schema is an immutable-after-construction table of node kinds and their
// ordered structural properties.
type Schema struct {
	name   string
	kinds  []KindInfo // index 0 is the InvalidKind sentinel
	byName map[string]Kind
}

// NewSchema creates an empty schema.
func NewSchema(name string) *Schema {
	return &Schema{
		name:   name,
		kinds:  []KindInfo{{Name: "<invalid>"}},
		byName: make(map[string]Kind),
	}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Define registers a kind and returns its tag. Defining the same name twice panics;
// schemas are built at package initialization.
func (s *Schema) Define(name string, props ...Property) Kind {
	if _, dup := s.byName[name]; dup {
		panic(fmt.Sprintf("syntax: kind %q defined twice in schema %q", name, s.name))
	}
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.Name]; dup {
			panic(fmt.Sprintf("syntax: property %s.%s defined twice", name, p.Name))
		}
		seen[p.Name] = struct{}{}
	}
	k := Kind(len(s.kinds))
	s.kinds = append(s.kinds, KindInfo{Name: name, Properties: props})
	s.byName[name] = k
	return k
}

// Info returns the description of k or nil when k is not registered.
func (s *Schema) Info(k Kind) *KindInfo {
	if s == nil || k == InvalidKind || int(k) >= len(s.kinds) {
		return nil
	}
	return &s.kinds[k]
}

// KindName returns the registered name of k.
func (s *Schema) KindName(k Kind) string {
	if info := s.Info(k); info != nil {
		return info.Name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Lookup resolves a kind by name.
func (s *Schema) Lookup(name string) (Kind, bool) {
	k, ok := s.byName[name]
	return k, ok
}

// Properties returns the ordered structural properties of k.
func (s *Schema) Properties(k Kind) []Property {
	if info := s.Info(k); info != nil {
		return info.Properties
	}
	return nil
}

// PropertyIndex returns the index of the named property of k.
func (s *Schema) PropertyIndex(k Kind, name string) (int, bool) {
	for i, p := range s.Properties(k) {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Kinds returns all registered kinds in definition order.
func (s *Schema) Kinds() []Kind {
	out := make([]Kind, 0, len(s.kinds)-1)
	for i := 1; i < len(s.kinds); i++ {
		out = append(out, Kind(i))
	}
	return out
}
