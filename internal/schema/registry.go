package schema

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the resolved metadata of every registered schema.
//
// Registration happens once per type during initialization. A failed
// registration leaves the registry unchanged. Reads may run concurrently
// once registration has finished.
type Registry struct {
	mu        sync.RWMutex
	nodes     map[string]*NodeSchema
	relations map[string]*RelationSchema
	order     []Ref
	log       *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		nodes:     map[string]*NodeSchema{},
		relations: map[string]*RelationSchema{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterNode resolves and stores a node schema. The parent, if any, must
// already be registered.
func (r *Registry) RegisterNode(def NodeDefinition) error {
	ref := NodeRef(strings.TrimSpace(def.Name))
	if err := checkDefinition(ref, def.Fields); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[ref.Name]; exists {
		return &Error{Op: "register", Schema: ref, Err: ErrSchemaAlreadyRegistered}
	}

	var (
		parentMeta *NodeMetadata
		inherited  []Field
		ancestors  []string
	)
	if def.Parent != "" {
		parent, ok := r.nodes[def.Parent]
		if !ok {
			return &Error{Op: "register", Schema: ref, Err: fmt.Errorf("%w: parent %s", ErrSchemaNotRegistered, NodeRef(def.Parent))}
		}
		parentMeta = &parent.Metadata
		inherited = parent.Fields
		ancestors = append([]string{parent.Name}, parent.Ancestors...)
	}

	fields := mergeFields(inherited, def.Fields)
	meta, err := MergeNode(parentMeta, def.Metadata, FieldSet(fields))
	if err != nil {
		return withSchema(err, ref, "register")
	}
	if meta.AutoContainer == ref.Name {
		return &Error{Op: "register", Schema: ref, Field: "auto_container", Err: fmt.Errorf("%w: schema cannot contain itself", ErrInvalidDefinition)}
	}

	r.nodes[ref.Name] = &NodeSchema{
		Name:      ref.Name,
		Parent:    def.Parent,
		Fields:    fields,
		Ancestors: ancestors,
		Metadata:  meta,
	}
	r.order = append(r.order, ref)

	r.log.Debug("schema registered",
		zap.String("schema", ref.String()),
		zap.String("parent", def.Parent),
		zap.Int("fields", len(fields)),
		zap.Int("indexes", len(meta.FieldIndexes)),
	)
	return nil
}

// RegisterRelation resolves and stores a relation schema. The parent and
// every endpoint node must already be registered. Missing endpoints are
// inherited from the parent.
func (r *Registry) RegisterRelation(def RelationDefinition) error {
	ref := RelationRef(strings.TrimSpace(def.Name))
	if err := checkDefinition(ref, def.Fields); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.relations[ref.Name]; exists {
		return &Error{Op: "register", Schema: ref, Err: ErrSchemaAlreadyRegistered}
	}

	var (
		parentMeta *RelationMetadata
		inherited  []Field
		ancestors  []string
		source     = def.Source
		targets    = slices.Clone(def.Targets)
	)
	if def.Parent != "" {
		parent, ok := r.relations[def.Parent]
		if !ok {
			return &Error{Op: "register", Schema: ref, Err: fmt.Errorf("%w: parent %s", ErrSchemaNotRegistered, RelationRef(def.Parent))}
		}
		parentMeta = &parent.Metadata
		inherited = parent.Fields
		ancestors = append([]string{parent.Name}, parent.Ancestors...)
		if source == "" {
			source = parent.Source
		}
		if len(targets) == 0 {
			targets = slices.Clone(parent.Targets)
		}
	}
	if source == "" {
		return &Error{Op: "register", Schema: ref, Field: "source", Err: ErrMissingEndpoint}
	}
	if len(targets) == 0 {
		return &Error{Op: "register", Schema: ref, Field: "targets", Err: ErrMissingEndpoint}
	}
	for _, endpoint := range append([]string{source}, targets...) {
		if _, ok := r.nodes[endpoint]; !ok {
			return &Error{Op: "register", Schema: ref, Field: endpoint, Err: ErrUnknownReference}
		}
	}

	r.relations[ref.Name] = &RelationSchema{
		Name:      ref.Name,
		Parent:    def.Parent,
		Source:    source,
		Targets:   targets,
		Fields:    mergeFields(inherited, def.Fields),
		Ancestors: ancestors,
		Metadata:  MergeRelation(parentMeta, def.Metadata),
	}
	r.order = append(r.order, ref)

	r.log.Debug("schema registered",
		zap.String("schema", ref.String()),
		zap.String("parent", def.Parent),
		zap.String("source", source),
		zap.Strings("targets", targets),
	)
	return nil
}

// MustRegisterNode is like RegisterNode but panics on error. Intended for
// schemas declared in Go at package init.
func (r *Registry) MustRegisterNode(def NodeDefinition) {
	if err := r.RegisterNode(def); err != nil {
		panic(err)
	}
}

// MustRegisterRelation is like RegisterRelation but panics on error.
func (r *Registry) MustRegisterRelation(def RelationDefinition) {
	if err := r.RegisterRelation(def); err != nil {
		panic(err)
	}
}

// CheckReferences verifies that every auto container names a registered
// node schema. Containers may be declared after the schemas that name them,
// so this runs once all registrations are done.
func (r *Registry) CheckReferences() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ref := range r.order {
		if ref.Kind != KindNode {
			continue
		}
		container := r.nodes[ref.Name].Metadata.AutoContainer
		if container == "" {
			continue
		}
		if _, ok := r.nodes[container]; !ok {
			return &Error{Op: "check", Schema: ref, Field: "auto_container", Err: fmt.Errorf("%w: %s", ErrUnknownReference, container)}
		}
	}
	return nil
}

// Node returns a copy of the registered node schema.
func (r *Registry) Node(name string) (NodeSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.nodes[name]
	if !ok {
		return NodeSchema{}, &Error{Op: "lookup", Schema: NodeRef(name), Err: ErrSchemaNotRegistered}
	}
	return s.clone(), nil
}

// Relation returns a copy of the registered relation schema.
func (r *Registry) Relation(name string) (RelationSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.relations[name]
	if !ok {
		return RelationSchema{}, &Error{Op: "lookup", Schema: RelationRef(name), Err: ErrSchemaNotRegistered}
	}
	return s.clone(), nil
}

// Resolved is a registered schema of either kind.
type Resolved struct {
	Ref      Ref             `json:"ref"`
	Node     *NodeSchema     `json:"node,omitempty"`
	Relation *RelationSchema `json:"relation,omitempty"`
}

// Resolved returns the registered schema for ref.
func (r *Registry) Resolved(ref Ref) (Resolved, error) {
	switch ref.Kind {
	case KindNode:
		s, err := r.Node(ref.Name)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Ref: ref, Node: &s}, nil
	case KindRelation:
		s, err := r.Relation(ref.Name)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Ref: ref, Relation: &s}, nil
	default:
		return Resolved{}, &Error{Op: "lookup", Schema: ref, Err: fmt.Errorf("%w: unknown kind %q", ErrSchemaNotRegistered, ref.Kind)}
	}
}

// Has reports whether ref is registered.
func (r *Registry) Has(ref Ref) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch ref.Kind {
	case KindNode:
		_, ok := r.nodes[ref.Name]
		return ok
	case KindRelation:
		_, ok := r.relations[ref.Name]
		return ok
	}
	return false
}

// IsA reports whether ref is ancestor or one of its descendants.
// Both must be of the same kind; unregistered schemas are never related.
func (r *Registry) IsA(ref, ancestor Ref) bool {
	if ref.Kind != ancestor.Kind {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ancestors []string
	switch ref.Kind {
	case KindNode:
		s, ok := r.nodes[ref.Name]
		if !ok {
			return false
		}
		ancestors = s.Ancestors
	case KindRelation:
		s, ok := r.relations[ref.Name]
		if !ok {
			return false
		}
		ancestors = s.Ancestors
	default:
		return false
	}
	return ref.Name == ancestor.Name || slices.Contains(ancestors, ancestor.Name)
}

// Refs lists all registrations in registration order.
func (r *Registry) Refs() []Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Nodes lists registered node schema names in registration order.
func (r *Registry) Nodes() []string {
	return r.namesOf(KindNode)
}

// Relations lists registered relation schema names in registration order.
func (r *Registry) Relations() []string {
	return r.namesOf(KindRelation)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) namesOf(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := []string{}
	for _, ref := range r.order {
		if ref.Kind == kind {
			names = append(names, ref.Name)
		}
	}
	return names
}

func checkDefinition(ref Ref, fields []Field) error {
	if ref.Name == "" {
		return &Error{Op: "register", Schema: ref, Err: fmt.Errorf("%w: empty name", ErrInvalidDefinition)}
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return &Error{Op: "register", Schema: ref, Err: fmt.Errorf("%w: empty field name", ErrInvalidDefinition)}
		}
		if _, dup := seen[name]; dup {
			return &Error{Op: "register", Schema: ref, Field: name, Err: fmt.Errorf("%w: field declared twice", ErrInvalidDefinition)}
		}
		seen[name] = struct{}{}
	}
	return nil
}
