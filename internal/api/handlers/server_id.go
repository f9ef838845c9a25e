package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ontoforge.io/ontoforge/internal/pkg/errors"
)

// MintRequest is the body of POST /ids.
type MintRequest struct {
	Count int `json:"count" binding:"required"`
}

// MintResponse is the body returned by POST /ids.
type MintResponse struct {
	MachineID uint16  `json:"machine_id"`
	IDs       []int64 `json:"ids"`
}

// DecodedID is the body returned by GET /ids/{id}.
type DecodedID struct {
	ID        int64     `json:"id"`
	UnixMilli int64     `json:"unix_milli"`
	Time      time.Time `json:"time"`
	MachineID uint16    `json:"machine_id"`
	Sequence  uint16    `json:"sequence"`
}

// MintIDs handles POST /ids.
func (s *Server) MintIDs(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}
	if req.Count < 1 || req.Count > s.maxMintBatch {
		_ = c.Error(apperrors.ErrInvalidRequestFieldf("count").WithParams(map[string]interface{}{
			"field": "count",
			"min":   1,
			"max":   s.maxMintBatch,
		}))
		return
	}

	ids, err := s.generator.GenerateN(req.Count)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusCreated, MintResponse{MachineID: s.generator.MachineID(), IDs: ids})
}

// DecodeID handles GET /ids/{id}.
func (s *Server) DecodeID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidID, "id must be a positive 64-bit integer").
			WithParams(map[string]interface{}{"id": c.Param("id")}))
		return
	}

	p := s.generator.Decompose(id)
	c.JSON(http.StatusOK, DecodedID{
		ID:        id,
		UnixMilli: p.UnixMilli,
		Time:      p.Time(),
		MachineID: p.MachineID,
		Sequence:  p.Sequence,
	})
}
