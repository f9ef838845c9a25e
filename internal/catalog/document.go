// Package catalog loads schema declarations from YAML documents and registers
// them with a schema.Registry.
//
// A document groups the node and relation schemas of one ontology inside a
// library. Declarations may appear in any order and across several files;
// Build registers every parent before its children.
//
// Import Path: ontoforge.io/ontoforge/internal/catalog
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"ontoforge.io/ontoforge/internal/schema"
)

//go:embed base.yaml
var baseYAML []byte

// Document is one catalog file.
type Document struct {
	Library   string         `yaml:"library" json:"library"`
	Ontology  string         `yaml:"ontology" json:"ontology"`
	Nodes     []NodeDecl     `yaml:"nodes" json:"nodes"`
	Relations []RelationDecl `yaml:"relations" json:"relations"`

	// Source is the file the document was read from, empty for readers.
	Source string `yaml:"-" json:"source,omitempty"`
}

// FieldDecl is a declared schema field.
type FieldDecl struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type,omitempty"`
}

// IndexDecl is a declared field index. Kind is parsed with schema.ParseIndexKind.
type IndexDecl struct {
	Field string `yaml:"field" json:"field"`
	Kind  string `yaml:"kind" json:"kind"`
}

// NodeDecl declares a node schema.
type NodeDecl struct {
	Name     string       `yaml:"name" json:"name"`
	Parent   string       `yaml:"parent" json:"parent,omitempty"`
	Fields   []FieldDecl  `yaml:"fields" json:"fields,omitempty"`
	Metadata NodeMetaDecl `yaml:"metadata" json:"metadata"`
}

// NodeMetaDecl is authored node metadata. Omitted flags are inherited.
type NodeMetaDecl struct {
	DisplayTag    string      `yaml:"display_tag" json:"display_tag,omitempty"`
	Description   string      `yaml:"description" json:"description,omitempty"`
	MultiValued   *bool       `yaml:"multi_valued" json:"multi_valued,omitempty"`
	AskOracle     *bool       `yaml:"ask_oracle" json:"ask_oracle,omitempty"`
	Indexes       []IndexDecl `yaml:"indexes" json:"indexes,omitempty"`
	AutoContainer *string     `yaml:"auto_container" json:"auto_container,omitempty"`
}

// RelationDecl declares a relation schema.
type RelationDecl struct {
	Name     string           `yaml:"name" json:"name"`
	Parent   string           `yaml:"parent" json:"parent,omitempty"`
	Source   string           `yaml:"source" json:"source,omitempty"`
	Targets  []string         `yaml:"targets" json:"targets,omitempty"`
	Fields   []FieldDecl      `yaml:"fields" json:"fields,omitempty"`
	Metadata RelationMetaDecl `yaml:"metadata" json:"metadata"`
}

// RelationMetaDecl is authored relation metadata.
type RelationMetaDecl struct {
	EdgeType    string `yaml:"edge_type" json:"edge_type,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
	Indexed     *bool  `yaml:"indexed" json:"indexed,omitempty"`
	AskOracle   *bool  `yaml:"ask_oracle" json:"ask_oracle,omitempty"`
}

// Parse decodes one document. Unknown keys are rejected. An empty input
// yields an empty document.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// LoadFiles reads every path in order and stops at the first error.
func LoadFiles(paths ...string) ([]*Document, error) {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Base returns the built-in root document declaring BaseNode and BaseRelation.
func Base() *Document {
	doc, err := Parse(bytes.NewReader(baseYAML))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded base document: %v", err))
	}
	doc.Source = "builtin:base"
	return doc
}

func (d *Document) origin() string {
	if d.Source != "" {
		return d.Source
	}
	if d.Library != "" || d.Ontology != "" {
		return d.Library + "/" + d.Ontology
	}
	return "<inline>"
}

func (n NodeDecl) definition() (schema.NodeDefinition, error) {
	indexes := make([]schema.FieldIndex, 0, len(n.Metadata.Indexes))
	for _, ix := range n.Metadata.Indexes {
		kind, err := schema.ParseIndexKind(ix.Kind)
		if err != nil {
			return schema.NodeDefinition{}, &schema.Error{Op: "parse", Schema: schema.NodeRef(n.Name), Field: ix.Field, Err: err}
		}
		indexes = append(indexes, schema.FieldIndex{Field: ix.Field, Kind: kind})
	}
	return schema.NodeDefinition{
		Name:   n.Name,
		Parent: n.Parent,
		Fields: fields(n.Fields),
		Metadata: schema.RawNodeMetadata{
			DisplayTag:    n.Metadata.DisplayTag,
			Description:   n.Metadata.Description,
			MultiValued:   n.Metadata.MultiValued,
			AskOracle:     n.Metadata.AskOracle,
			FieldIndexes:  indexes,
			AutoContainer: n.Metadata.AutoContainer,
		},
	}, nil
}

func (r RelationDecl) definition() schema.RelationDefinition {
	return schema.RelationDefinition{
		Name:    r.Name,
		Parent:  r.Parent,
		Source:  r.Source,
		Targets: r.Targets,
		Fields:  fields(r.Fields),
		Metadata: schema.RawRelationMetadata{
			EdgeType:    r.Metadata.EdgeType,
			Description: r.Metadata.Description,
			Indexed:     r.Metadata.Indexed,
			AskOracle:   r.Metadata.AskOracle,
		},
	}
}

func fields(decls []FieldDecl) []schema.Field {
	out := make([]schema.Field, 0, len(decls))
	for _, f := range decls {
		out = append(out, schema.Field{Name: f.Name, Type: f.Type})
	}
	return out
}
