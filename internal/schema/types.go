// Package schema composes the metadata of typed graph entities.
//
// Node and relation schemas form single-inheritance chains. Each schema is
// registered once; its raw metadata is merged with the parent's already
// resolved metadata and the result is cached for the life of the process.
// Downstream code (graph population, prompt construction) reads the cache and
// never walks live ancestor chains.
//
// Import Path: ontoforge.io/ontoforge/internal/schema
package schema

import "slices"

// Kind distinguishes node schemas from relation schemas.
type Kind string

const (
	KindNode     Kind = "node"
	KindRelation Kind = "relation"
)

// Ref identifies a schema type.
type Ref struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// NodeRef returns the reference of a node schema.
func NodeRef(name string) Ref { return Ref{Kind: KindNode, Name: name} }

// RelationRef returns the reference of a relation schema.
func RelationRef(name string) Ref { return Ref{Kind: KindRelation, Name: name} }

func (r Ref) String() string {
	return string(r.Kind) + "/" + r.Name
}

// MetaFields are accepted as index targets on any schema even though no
// schema declares them. relation_type is the discriminator downstream stores
// write on every edge.
var MetaFields = map[string]struct{}{
	"relation_type": {},
}

// Field is one declared field of a schema.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// RawNodeMetadata is node metadata as authored. Nil pointers mean "not set"
// and are inherited from the parent.
type RawNodeMetadata struct {
	DisplayTag    string
	Description   string
	MultiValued   *bool
	AskOracle     *bool
	FieldIndexes  []FieldIndex
	AutoContainer *string
}

// NodeMetadata is resolved node metadata.
type NodeMetadata struct {
	DisplayTag  string `json:"display_tag"`
	Description string `json:"description"`
	// MultiValued reports whether a document may contain several instances.
	MultiValued bool `json:"multi_valued"`
	// AskOracle reports whether instances are extracted by the external oracle (LLM)
	// rather than derived.
	AskOracle    bool         `json:"ask_oracle"`
	FieldIndexes []FieldIndex `json:"field_indexes"`
	// AutoContainer names the holder node synthesized when at least one instance exists.
	AutoContainer string `json:"auto_container,omitempty"`
}

// IndexedFields returns the set of indexed field names.
func (m NodeMetadata) IndexedFields() map[string]struct{} {
	set := make(map[string]struct{}, len(m.FieldIndexes))
	for _, fi := range m.FieldIndexes {
		set[fi.Field] = struct{}{}
	}
	return set
}

func (m NodeMetadata) clone() NodeMetadata {
	m.FieldIndexes = slices.Clone(m.FieldIndexes)
	if m.FieldIndexes == nil {
		m.FieldIndexes = []FieldIndex{}
	}
	return m
}

// RawRelationMetadata is relation metadata as authored.
type RawRelationMetadata struct {
	EdgeType    string
	Description string
	Indexed     *bool
	AskOracle   *bool
}

// RelationMetadata is resolved relation metadata.
type RelationMetadata struct {
	EdgeType    string `json:"edge_type"`
	Description string `json:"description"`
	Indexed     bool   `json:"indexed"`
	// AskOracle is false when the relation is created automatically once both endpoints exist.
	AskOracle bool `json:"ask_oracle"`
}

// NodeDefinition is the authored declaration of a node schema.
type NodeDefinition struct {
	Name     string
	Parent   string
	Fields   []Field
	Metadata RawNodeMetadata
}

// RelationDefinition is the authored declaration of a relation schema.
// Source and Targets name node schemas; empty values are inherited.
type RelationDefinition struct {
	Name     string
	Parent   string
	Source   string
	Targets  []string
	Fields   []Field
	Metadata RawRelationMetadata
}

// NodeSchema is a registered node schema.
type NodeSchema struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
	// Fields lists inherited fields first, then own fields, in declaration order.
	Fields []Field `json:"fields"`
	// Ancestors lists parent first, root last.
	Ancestors []string     `json:"ancestors,omitempty"`
	Metadata  NodeMetadata `json:"metadata"`
}

// Ref returns the schema reference.
func (s NodeSchema) Ref() Ref { return NodeRef(s.Name) }

// HasField reports whether the schema declares (or inherits) name.
func (s NodeSchema) HasField(name string) bool {
	return slices.ContainsFunc(s.Fields, func(f Field) bool { return f.Name == name })
}

func (s NodeSchema) clone() NodeSchema {
	s.Fields = slices.Clone(s.Fields)
	s.Ancestors = slices.Clone(s.Ancestors)
	s.Metadata = s.Metadata.clone()
	return s
}

// RelationSchema is a registered relation schema.
type RelationSchema struct {
	Name      string           `json:"name"`
	Parent    string           `json:"parent,omitempty"`
	Source    string           `json:"source"`
	Targets   []string         `json:"targets"`
	Fields    []Field          `json:"fields"`
	Ancestors []string         `json:"ancestors,omitempty"`
	Metadata  RelationMetadata `json:"metadata"`
}

// Ref returns the schema reference.
func (s RelationSchema) Ref() Ref { return RelationRef(s.Name) }

// HasField reports whether the schema declares (or inherits) name.
func (s RelationSchema) HasField(name string) bool {
	return slices.ContainsFunc(s.Fields, func(f Field) bool { return f.Name == name })
}

func (s RelationSchema) clone() RelationSchema {
	s.Targets = slices.Clone(s.Targets)
	s.Fields = slices.Clone(s.Fields)
	s.Ancestors = slices.Clone(s.Ancestors)
	return s
}

// Bool returns a pointer to v, for populating optional raw metadata flags.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for populating RawNodeMetadata.AutoContainer.
func String(v string) *string { return &v }
