// Package graph builds typed node and relation instances from registered
// schemas.
//
// Every entity gets its identifier exactly once, at construction, from an
// IDSource. Property keys are checked against the schema's declared fields.
//
// Import Path: ontoforge.io/ontoforge/internal/graph
package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"ontoforge.io/ontoforge/internal/schema"
)

var (
	ErrUnknownProperty  = errors.New("property is not a declared field of the schema")
	ErrEndpointMismatch = errors.New("relation endpoint type not allowed by the schema")
	ErrUnknownNodeKey   = errors.New("relation references an unknown node key")
	ErrDuplicateNodeKey = errors.New("node key used more than once")
)

// IDSource mints entity identifiers. *idgen.Generator satisfies it.
type IDSource interface {
	Generate() (int64, error)
}

// Node is a node instance.
type Node struct {
	ID         int64          `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Relation is a relation instance between two nodes.
type Relation struct {
	ID         int64          `json:"id"`
	Type       string         `json:"type"`
	SourceID   int64          `json:"source_id"`
	TargetID   int64          `json:"target_id"`
	Properties map[string]any `json:"properties"`
}

// Factory constructs entities of registered schemas.
type Factory struct {
	registry *schema.Registry
	ids      IDSource
}

// NewFactory creates a Factory.
func NewFactory(registry *schema.Registry, ids IDSource) *Factory {
	return &Factory{registry: registry, ids: ids}
}

// NewNode creates a node of type typ. Every key of props must be a field
// declared on (or inherited by) the schema.
func (f *Factory) NewNode(typ string, props map[string]any) (*Node, error) {
	s, err := f.registry.Node(typ)
	if err != nil {
		return nil, err
	}
	if err := checkProperties(s.Ref(), s.HasField, props); err != nil {
		return nil, err
	}
	id, err := f.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("mint id for %s: %w", s.Ref(), err)
	}
	return &Node{ID: id, Type: typ, Properties: copyProps(props)}, nil
}

// NewRelation creates a relation of type typ from src to dst. The source must
// be of the schema's source type or a descendant; the target likewise for one
// of the target types.
func (f *Factory) NewRelation(typ string, src, dst *Node, props map[string]any) (*Relation, error) {
	s, err := f.registry.Relation(typ)
	if err != nil {
		return nil, err
	}
	if src == nil || dst == nil {
		return nil, &schema.Error{Op: "build", Schema: s.Ref(), Err: fmt.Errorf("%w: missing endpoint node", ErrEndpointMismatch)}
	}
	if !f.registry.IsA(schema.NodeRef(src.Type), schema.NodeRef(s.Source)) {
		return nil, &schema.Error{Op: "build", Schema: s.Ref(), Field: "source",
			Err: fmt.Errorf("%w: %s is not a %s", ErrEndpointMismatch, src.Type, s.Source)}
	}
	if !slices.ContainsFunc(s.Targets, func(t string) bool {
		return f.registry.IsA(schema.NodeRef(dst.Type), schema.NodeRef(t))
	}) {
		return nil, &schema.Error{Op: "build", Schema: s.Ref(), Field: "target",
			Err: fmt.Errorf("%w: %s is not one of %v", ErrEndpointMismatch, dst.Type, s.Targets)}
	}
	if err := checkProperties(s.Ref(), s.HasField, props); err != nil {
		return nil, err
	}
	id, err := f.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("mint id for %s: %w", s.Ref(), err)
	}
	return &Relation{ID: id, Type: typ, SourceID: src.ID, TargetID: dst.ID, Properties: copyProps(props)}, nil
}

// SynthesizeContainers creates the holder nodes implied by nodes. For every
// distinct auto container named by the schemas of nodes, one holder without
// properties is created unless nodes already holds an instance of it.
// Holders are walked too, so a holder whose schema names a container of its
// own gets one. Holders are returned in the order they are created.
func (f *Factory) SynthesizeContainers(nodes []*Node) ([]*Node, error) {
	present := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.Type] = struct{}{}
	}

	var holders []*Node
	pending := slices.Clone(nodes)
	for i := 0; i < len(pending); i++ {
		n := pending[i]
		s, err := f.registry.Node(n.Type)
		if err != nil {
			return nil, err
		}
		container := s.Metadata.AutoContainer
		if container == "" {
			continue
		}
		if _, ok := present[container]; ok {
			continue
		}
		holder, err := f.NewNode(container, nil)
		if err != nil {
			return nil, err
		}
		present[container] = struct{}{}
		holders = append(holders, holder)
		pending = append(pending, holder)
	}
	return holders, nil
}

func checkProperties(ref schema.Ref, declared func(string) bool, props map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(props)) {
		if !declared(key) {
			return &schema.Error{Op: "build", Schema: ref, Field: key, Err: ErrUnknownProperty}
		}
	}
	return nil
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	maps.Copy(out, props)
	return out
}
