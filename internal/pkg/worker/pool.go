// Package worker provides goroutine pool management.
//
// Naked goroutines are avoided in service code: concurrent entity
// construction goes through a Pool with context propagation.
//
// Import Path: ontoforge.io/ontoforge/internal/pkg/worker
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"ontoforge.io/ontoforge/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// IndexedTask is one unit of a fan-out started by Pool.Run.
type IndexedTask func(ctx context.Context, i int) error

// Pool wraps ants.Pool with context-aware fan-out.
type Pool struct {
	pool *ants.Pool
	name string
	// done is closed when the owning Pools shuts down.
	done context.Context
}

// Pools is the worker pool collection.
type Pools struct {
	General *Pool
	Extract *Pool

	// serviceCancel ends the service lifecycle context shared by the pools.
	serviceCancel context.CancelFunc
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	GeneralPoolSize int
	ExtractPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		GeneralPoolSize: 32,
		ExtractPoolSize: 64,
	}
}

// NewPools creates the worker pool collection.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	panicHandler := func(p interface{}) {
		logger.Error("Worker panic recovered",
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	generalAnts, err := ants.NewPool(cfg.GeneralPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	// Extraction batches are short and bursty; idle workers expire quickly.
	extractAnts, err := ants.NewPool(cfg.ExtractPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(5*time.Second),
	)
	if err != nil {
		generalAnts.Release()
		serviceCancel()
		return nil, err
	}

	return &Pools{
		General:       &Pool{pool: generalAnts, name: "general", done: serviceCtx},
		Extract:       &Pool{pool: extractAnts, name: "extract", done: serviceCtx},
		serviceCancel: serviceCancel,
	}, nil
}

// Name returns the pool name used in logs.
func (p *Pool) Name() string {
	return p.name
}

// Run fans out n indexed tasks on the pool and waits for all of them.
// The first task error cancels the remaining tasks and is returned.
// Tasks skipped because of cancellation are reported as ctx.Err(). Shutting
// down the owning Pools cancels a fan-out in flight.
func (p *Pool) Run(ctx context.Context, n int, task IndexedTask) error {
	if n == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.done, cancel)
	defer stop()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < n; i++ {
		if err := runCtx.Err(); err != nil {
			fail(err)
			break
		}
		idx := i
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := runCtx.Err(); err != nil {
				logger.Debug("Task skipped: context cancelled",
					zap.String("pool", p.name),
					zap.Error(err),
				)
				fail(err)
				return
			}
			if err := task(runCtx, idx); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrPoolClosed
			}
			fail(err)
			break
		}
	}

	wg.Wait()
	return firstErr
}

// Shutdown cancels running fan-outs and waits for their tasks (max 30s).
func (p *Pools) Shutdown() {
	p.serviceCancel()

	const shutdownTimeout = 30 * time.Second
	if err := p.General.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("General pool shutdown timeout", zap.Error(err))
	}
	if err := p.Extract.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("Extract pool shutdown timeout", zap.Error(err))
	}
}

// Metrics returns pool metrics for observability.
func (p *Pools) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"general": map[string]int{
			"running": p.General.pool.Running(),
			"free":    p.General.pool.Free(),
			"cap":     p.General.pool.Cap(),
		},
		"extract": map[string]int{
			"running": p.Extract.pool.Running(),
			"free":    p.Extract.pool.Free(),
			"cap":     p.Extract.pool.Cap(),
		},
	}
}
