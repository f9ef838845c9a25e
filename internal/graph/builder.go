package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontoforge.io/ontoforge/internal/pkg/logger"
	"ontoforge.io/ontoforge/internal/pkg/worker"
)

// NodeDraft is an extracted node awaiting an identifier. Key is local to one
// Extraction and lets relation drafts refer to the node.
type NodeDraft struct {
	Key        string         `json:"key"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// RelationDraft is an extracted relation between two drafted nodes.
type RelationDraft struct {
	Type       string         `json:"type"`
	SourceKey  string         `json:"source_key"`
	TargetKey  string         `json:"target_key"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Extraction is the raw output of one extraction pass over a document.
type Extraction struct {
	Nodes     []NodeDraft     `json:"nodes"`
	Relations []RelationDraft `json:"relations"`
}

// Graph is a built batch of entities.
type Graph struct {
	BatchID   uuid.UUID   `json:"batch_id"`
	Nodes     []*Node     `json:"nodes"`
	Relations []*Relation `json:"relations"`
}

// Runner fans out indexed tasks. *worker.Pool satisfies it.
type Runner interface {
	Run(ctx context.Context, n int, task worker.IndexedTask) error
}

// Builder turns extractions into graphs.
type Builder struct {
	factory *Factory
	runner  Runner
}

// NewBuilder creates a Builder that constructs entities on runner.
func NewBuilder(factory *Factory, runner Runner) *Builder {
	return &Builder{factory: factory, runner: runner}
}

// Build constructs every drafted node, then every drafted relation, then the
// implied auto containers. Node and relation order follows the drafts;
// containers are appended after the drafted nodes. The first error aborts
// the build and nothing is returned.
func (b *Builder) Build(ctx context.Context, ext Extraction) (*Graph, error) {
	start := time.Now()

	keys := make(map[string]int, len(ext.Nodes))
	for i, d := range ext.Nodes {
		if d.Key == "" {
			continue
		}
		if _, dup := keys[d.Key]; dup {
			return nil, fmt.Errorf("node draft %d: %w: %q", i, ErrDuplicateNodeKey, d.Key)
		}
		keys[d.Key] = i
	}

	type endpoints struct{ src, dst int }
	links := make([]endpoints, len(ext.Relations))
	for i, d := range ext.Relations {
		src, ok := keys[d.SourceKey]
		if !ok {
			return nil, fmt.Errorf("relation draft %d: %w: %q", i, ErrUnknownNodeKey, d.SourceKey)
		}
		dst, ok := keys[d.TargetKey]
		if !ok {
			return nil, fmt.Errorf("relation draft %d: %w: %q", i, ErrUnknownNodeKey, d.TargetKey)
		}
		links[i] = endpoints{src: src, dst: dst}
	}

	nodes := make([]*Node, len(ext.Nodes))
	err := b.runner.Run(ctx, len(ext.Nodes), func(_ context.Context, i int) error {
		d := ext.Nodes[i]
		n, err := b.factory.NewNode(d.Type, d.Properties)
		if err != nil {
			return fmt.Errorf("node draft %d (%s): %w", i, d.Key, err)
		}
		nodes[i] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	relations := make([]*Relation, len(ext.Relations))
	err = b.runner.Run(ctx, len(ext.Relations), func(_ context.Context, i int) error {
		d := ext.Relations[i]
		r, err := b.factory.NewRelation(d.Type, nodes[links[i].src], nodes[links[i].dst], d.Properties)
		if err != nil {
			return fmt.Errorf("relation draft %d (%s): %w", i, d.Type, err)
		}
		relations[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	holders, err := b.factory.SynthesizeContainers(nodes)
	if err != nil {
		return nil, err
	}

	batchID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate batch id: %w", err)
	}

	g := &Graph{
		BatchID:   batchID,
		Nodes:     append(nodes, holders...),
		Relations: relations,
	}
	logger.Named("graph").Debug("graph built",
		zap.String("batch_id", batchID.String()),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("containers", len(holders)),
		zap.Int("relations", len(g.Relations)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return g, nil
}
