package catalog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ontoforge.io/ontoforge/internal/pkg/logger"
	"ontoforge.io/ontoforge/internal/schema"
)

// ErrParentCycle is returned when parent links among declarations form a loop.
var ErrParentCycle = errors.New("schema parent chain forms a cycle")

// Stats summarizes a successful Build.
type Stats struct {
	Documents int `json:"documents"`
	Nodes     int `json:"nodes"`
	Relations int `json:"relations"`
}

// Build registers the schemas declared in docs.
//
// All nodes are registered before any relation, and within each kind every
// parent declared in docs is registered before its children regardless of
// file order. Parents not declared in docs must already be in reg. Once
// everything is registered, auto container references are checked.
//
// Build stops at the first error. Schemas registered before the failure
// stay in reg; callers treat any error as fatal to initialization.
func Build(reg *schema.Registry, docs ...*Document) (Stats, error) {
	log := logger.Named("catalog")

	nodes, err := collect(docs, func(d *Document) []NodeDecl { return d.Nodes },
		func(n NodeDecl) string { return n.Name }, schema.NodeRef)
	if err != nil {
		return Stats{}, err
	}
	relations, err := collect(docs, func(d *Document) []RelationDecl { return d.Relations },
		func(r RelationDecl) string { return r.Name }, schema.RelationRef)
	if err != nil {
		return Stats{}, err
	}

	orderedNodes, err := topoSort(nodes, func(n NodeDecl) (string, string) { return n.Name, n.Parent }, schema.NodeRef)
	if err != nil {
		return Stats{}, err
	}
	orderedRelations, err := topoSort(relations, func(r RelationDecl) (string, string) { return r.Name, r.Parent }, schema.RelationRef)
	if err != nil {
		return Stats{}, err
	}

	for _, n := range orderedNodes {
		def, err := n.decl.definition()
		if err != nil {
			return Stats{}, fmt.Errorf("%s: %w", n.origin, err)
		}
		if err := reg.RegisterNode(def); err != nil {
			return Stats{}, fmt.Errorf("%s: %w", n.origin, err)
		}
		log.Debug("node schema loaded", zap.String("name", n.decl.Name), zap.String("source", n.origin))
	}
	for _, r := range orderedRelations {
		if err := reg.RegisterRelation(r.decl.definition()); err != nil {
			return Stats{}, fmt.Errorf("%s: %w", r.origin, err)
		}
		log.Debug("relation schema loaded", zap.String("name", r.decl.Name), zap.String("source", r.origin))
	}

	if err := reg.CheckReferences(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Documents: len(docs), Nodes: len(orderedNodes), Relations: len(orderedRelations)}
	log.Info("catalog built",
		zap.Int("documents", stats.Documents),
		zap.Int("nodes", stats.Nodes),
		zap.Int("relations", stats.Relations),
	)
	return stats, nil
}

type sourced[T any] struct {
	decl   T
	origin string
}

// collect flattens the declarations of one kind across docs, rejecting a name
// declared twice.
func collect[T any](docs []*Document, items func(*Document) []T, name func(T) string, ref func(string) schema.Ref) ([]sourced[T], error) {
	var out []sourced[T]
	seen := map[string]string{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, item := range items(d) {
			n := name(item)
			if prev, dup := seen[n]; dup {
				return nil, fmt.Errorf("%s: %w", d.origin(), &schema.Error{
					Op:     "load",
					Schema: ref(n),
					Err:    fmt.Errorf("%w: first declared in %s", schema.ErrSchemaAlreadyRegistered, prev),
				})
			}
			seen[n] = d.origin()
			out = append(out, sourced[T]{decl: item, origin: d.origin()})
		}
	}
	return out, nil
}

// topoSort orders declarations so that each parent declared in the set comes
// before its children. Declaration order is kept otherwise.
func topoSort[T any](items []sourced[T], link func(T) (name, parent string), ref func(string) schema.Ref) ([]sourced[T], error) {
	const (
		unvisited = iota
		visiting
		done
	)
	index := make(map[string]int, len(items))
	for i, it := range items {
		n, _ := link(it.decl)
		index[n] = i
	}

	state := make([]int, len(items))
	out := make([]sourced[T], 0, len(items))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			n, _ := link(items[i].decl)
			return fmt.Errorf("%s: %w", items[i].origin, &schema.Error{Op: "load", Schema: ref(n), Err: ErrParentCycle})
		}
		state[i] = visiting
		if _, parent := link(items[i].decl); parent != "" {
			if p, ok := index[parent]; ok {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		state[i] = done
		out = append(out, items[i])
		return nil
	}

	for i := range items {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
