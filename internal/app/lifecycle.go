package app

import (
	"ontoforge.io/ontoforge/internal/pkg/logger"
)

// Shutdown gracefully shuts down all application components.
// Running entity builds finish before the pools are released.
func (a *Application) Shutdown() {
	if a.Pools != nil {
		a.Pools.Shutdown()
		logger.Info("Worker pools released")
	}
}
