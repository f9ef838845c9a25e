// Package handlers implements the HTTP API of ontoforge.
//
// Handlers read the schema registry, mint identifiers and build graphs.
// Route registration is handled by the app package; handlers do NOT
// register their own routes.
//
// Import Path: ontoforge.io/ontoforge/internal/api/handlers
package handlers

import (
	"ontoforge.io/ontoforge/internal/graph"
	"ontoforge.io/ontoforge/internal/idgen"
	"ontoforge.io/ontoforge/internal/pkg/worker"
	"ontoforge.io/ontoforge/internal/schema"
)

// Server implements all API handlers.
type Server struct {
	registry     *schema.Registry
	generator    *idgen.Generator
	builder      *graph.Builder
	pools        *worker.Pools
	maxMintBatch int
}

// ServerDeps holds all dependencies for creating a Server.
// Manual DI.
type ServerDeps struct {
	Registry     *schema.Registry
	Generator    *idgen.Generator
	Builder      *graph.Builder
	Pools        *worker.Pools // Optional: worker metrics on /health/ready
	MaxMintBatch int
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	maxMint := deps.MaxMintBatch
	if maxMint <= 0 {
		maxMint = 1000
	}
	return &Server{
		registry:     deps.Registry,
		generator:    deps.Generator,
		builder:      deps.Builder,
		pools:        deps.Pools,
		maxMintBatch: maxMint,
	}
}
