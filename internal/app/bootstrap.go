// Package app is the composition root. Bootstrap stays orchestration-only.
//
// Import Path: ontoforge.io/ontoforge/internal/app
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ontoforge.io/ontoforge/internal/api/handlers"
	"ontoforge.io/ontoforge/internal/catalog"
	"ontoforge.io/ontoforge/internal/config"
	"ontoforge.io/ontoforge/internal/graph"
	"ontoforge.io/ontoforge/internal/idgen"
	"ontoforge.io/ontoforge/internal/pkg/logger"
	"ontoforge.io/ontoforge/internal/pkg/worker"
	"ontoforge.io/ontoforge/internal/schema"
)

// Application holds composed application dependencies.
type Application struct {
	Config    *config.Config
	Router    *gin.Engine
	Registry  *schema.Registry
	Generator *idgen.Generator
	Pools     *worker.Pools
}

// Bootstrap initializes all dependencies using manual DI. Schema
// registration completes here, before any entity can be constructed.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		ExtractPoolSize: cfg.Worker.ExtractPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	registry, err := loadRegistry(ctx, cfg.Catalog, pools.General)
	if err != nil {
		pools.Shutdown()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	if cfg.IDGen.MachineID < 0 || cfg.IDGen.MachineID > idgen.MaxMachineID {
		pools.Shutdown()
		return nil, fmt.Errorf("init id generator: %w: %d", idgen.ErrInvalidMachineID, cfg.IDGen.MachineID)
	}
	generator, err := idgen.New(uint16(cfg.IDGen.MachineID), idgen.WithEpoch(cfg.IDGen.Epoch))
	if err != nil {
		pools.Shutdown()
		return nil, fmt.Errorf("init id generator: %w", err)
	}

	builder := graph.NewBuilder(graph.NewFactory(registry, generator), pools.Extract)
	server := handlers.NewServer(handlers.ServerDeps{
		Registry:     registry,
		Generator:    generator,
		Builder:      builder,
		Pools:        pools,
		MaxMintBatch: cfg.API.MaxMintBatch,
	})

	logger.Info("Application bootstrapped",
		zap.Int("schemas", registry.Len()),
		zap.Uint16("machine_id", generator.MachineID()),
		zap.Int64("epoch", generator.Epoch()),
	)

	return &Application{
		Config:    cfg,
		Router:    newRouter(cfg, server),
		Registry:  registry,
		Generator: generator,
		Pools:     pools,
	}, nil
}

// loadRegistry reads the configured catalog files in parallel and registers
// their schemas in a fresh registry.
func loadRegistry(ctx context.Context, cfg config.CatalogConfig, pool *worker.Pool) (*schema.Registry, error) {
	docs := make([]*catalog.Document, len(cfg.Paths))
	err := pool.Run(ctx, len(cfg.Paths), func(_ context.Context, i int) error {
		doc, err := catalog.LoadFile(cfg.Paths[i])
		if err != nil {
			return err
		}
		docs[i] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cfg.IncludeBase {
		docs = append([]*catalog.Document{catalog.Base()}, docs...)
	}

	registry := schema.NewRegistry(schema.WithLogger(logger.Named("registry")))
	if _, err := catalog.Build(registry, docs...); err != nil {
		return nil, err
	}
	return registry, nil
}
