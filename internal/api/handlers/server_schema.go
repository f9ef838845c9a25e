package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ontoforge.io/ontoforge/internal/pkg/errors"
	"ontoforge.io/ontoforge/internal/schema"
)

// SchemaList is the body of GET /schemas.
type SchemaList struct {
	Nodes     []string `json:"nodes"`
	Relations []string `json:"relations"`
}

// ListSchemas handles GET /schemas.
func (s *Server) ListSchemas(c *gin.Context) {
	c.JSON(http.StatusOK, SchemaList{
		Nodes:     s.registry.Nodes(),
		Relations: s.registry.Relations(),
	})
}

// GetNodeSchema handles GET /schemas/nodes/{name}.
func (s *Server) GetNodeSchema(c *gin.Context) {
	ns, err := s.registry.Node(c.Param("name"))
	if err != nil {
		_ = c.Error(schemaLookupError(schema.NodeRef(c.Param("name")), err))
		return
	}
	c.JSON(http.StatusOK, ns)
}

// GetRelationSchema handles GET /schemas/relations/{name}.
func (s *Server) GetRelationSchema(c *gin.Context) {
	rs, err := s.registry.Relation(c.Param("name"))
	if err != nil {
		_ = c.Error(schemaLookupError(schema.RelationRef(c.Param("name")), err))
		return
	}
	c.JSON(http.StatusOK, rs)
}

func schemaLookupError(ref schema.Ref, err error) error {
	if errors.Is(err, schema.ErrSchemaNotRegistered) {
		return apperrors.ErrSchemaNotFoundf(ref.String())
	}
	return toAppError(err)
}
