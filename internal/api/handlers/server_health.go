package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is the probe response body.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Stats  map[string]any    `json:"stats,omitempty"`
}

// GetLiveness handles GET /health/live. Liveness probe.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: "ok"})
}

// GetReadiness handles GET /health/ready. Readiness probe.
// The service is ready once at least one schema is registered.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	stats := make(map[string]any)
	allHealthy := true

	if n := s.registry.Len(); n == 0 {
		checks["registry"] = "empty"
		allHealthy = false
	} else {
		checks["registry"] = "ok"
		stats["schemas"] = n
	}

	if s.pools != nil {
		stats["workers"] = s.pools.Metrics()
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, Health{
		Status: status,
		Checks: checks,
		Stats:  stats,
	})
}
