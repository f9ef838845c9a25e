package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ontoforge.io/ontoforge/internal/api/middleware"
	"ontoforge.io/ontoforge/internal/graph"
	apperrors "ontoforge.io/ontoforge/internal/pkg/errors"
	"ontoforge.io/ontoforge/internal/pkg/logger"
)

// BuildGraph handles POST /graphs. The body is an extraction; the response
// is the built graph with minted identifiers and synthesized containers.
func (s *Server) BuildGraph(c *gin.Context) {
	var ext graph.Extraction
	if err := c.ShouldBindJSON(&ext); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}

	g, err := s.builder.Build(c.Request.Context(), ext)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	logger.Info("Graph built",
		zap.String("request_id", middleware.GetRequestID(c.Request.Context())),
		zap.String("batch_id", g.BatchID.String()),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("relations", len(g.Relations)),
	)
	c.JSON(http.StatusCreated, g)
}
