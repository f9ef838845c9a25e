package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge.io/ontoforge/internal/api/middleware"
	"ontoforge.io/ontoforge/internal/graph"
	"ontoforge.io/ontoforge/internal/idgen"
	apperrors "ontoforge.io/ontoforge/internal/pkg/errors"
	"ontoforge.io/ontoforge/internal/pkg/logger"
	"ontoforge.io/ontoforge/internal/pkg/worker"
	"ontoforge.io/ontoforge/internal/schema"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	reg := schema.NewRegistry()
	reg.MustRegisterNode(schema.NodeDefinition{
		Name:     "Party",
		Fields:   []schema.Field{{Name: "name"}, {Name: "tax_id"}},
		Metadata: schema.RawNodeMetadata{DisplayTag: "Party", FieldIndexes: []schema.FieldIndex{{Field: "tax_id", Kind: schema.IndexExact}}},
	})
	reg.MustRegisterNode(schema.NodeDefinition{Name: "Lease", Fields: []schema.Field{{Name: "start_date"}}})
	reg.MustRegisterRelation(schema.RelationDefinition{Name: "HasTenant", Source: "Lease", Targets: []string{"Party"}})

	gen, err := idgen.New(42)
	require.NoError(t, err)

	pools, err := worker.NewPools(context.Background(), worker.PoolConfig{GeneralPoolSize: 2, ExtractPoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(pools.Shutdown)

	s := NewServer(ServerDeps{
		Registry:     reg,
		Generator:    gen,
		Builder:      graph.NewBuilder(graph.NewFactory(reg, gen), pools.Extract),
		Pools:        pools,
		MaxMintBatch: 10,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	v1 := r.Group("/api/v1")
	v1.GET("/health/live", s.GetLiveness)
	v1.GET("/health/ready", s.GetReadiness)
	v1.GET("/schemas", s.ListSchemas)
	v1.GET("/schemas/nodes/:name", s.GetNodeSchema)
	v1.GET("/schemas/relations/:name", s.GetRelationSchema)
	v1.POST("/ids", s.MintIDs)
	v1.GET("/ids/:id", s.DecodeID)
	v1.POST("/graphs", s.BuildGraph)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code   string         `json:"code"`
	Params map[string]any `json:"params"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	h := decode[Health](t, w)
	assert.Equal(t, "ok", h.Checks["registry"])
	assert.EqualValues(t, 3, h.Stats["schemas"])
}

func TestReadiness_EmptyRegistry(t *testing.T) {
	s := NewServer(ServerDeps{Registry: schema.NewRegistry()})
	r := gin.New()
	r.GET("/ready", s.GetReadiness)

	w := do(t, r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSchemas(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SchemaList{Nodes: []string{"Party", "Lease"}, Relations: []string{"HasTenant"}}, decode[SchemaList](t, w))

	w = do(t, r, http.MethodGet, "/api/v1/schemas/nodes/Party", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ns := decode[schema.NodeSchema](t, w)
	assert.Equal(t, "Party", ns.Metadata.DisplayTag)
	assert.Equal(t, []schema.FieldIndex{{Field: "tax_id", Kind: schema.IndexExact}}, ns.Metadata.FieldIndexes)

	w = do(t, r, http.MethodGet, "/api/v1/schemas/relations/HasTenant", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lease", decode[schema.RelationSchema](t, w).Source)

	w = do(t, r, http.MethodGet, "/api/v1/schemas/nodes/Ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, apperrors.CodeSchemaNotFound, body.Code)
	assert.Equal(t, "node/Ghost", body.Params["schema"])

	w = do(t, r, http.MethodGet, "/api/v1/schemas/relations/Party", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMintAndDecode(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/ids", MintRequest{Count: 5})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[MintResponse](t, w)
	assert.Equal(t, uint16(42), resp.MachineID)
	require.Len(t, resp.IDs, 5)
	for i := 1; i < len(resp.IDs); i++ {
		assert.Greater(t, resp.IDs[i], resp.IDs[i-1])
	}

	w = do(t, r, http.MethodGet, "/api/v1/ids/"+strconv.FormatInt(resp.IDs[0], 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	dec := decode[DecodedID](t, w)
	assert.Equal(t, resp.IDs[0], dec.ID)
	assert.Equal(t, uint16(42), dec.MachineID)
	assert.Equal(t, dec.UnixMilli, dec.Time.UnixMilli())
}

func TestMint_InvalidCount(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"too many", MintRequest{Count: 11}, apperrors.CodeInvalidRequestField},
		{"negative", MintRequest{Count: -1}, apperrors.CodeInvalidRequestField},
		{"missing", map[string]any{}, apperrors.CodeValidationFailed},
		{"malformed", "{", apperrors.CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/ids", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[errorBody](t, w).Code)
		})
	}
}

func TestDecode_InvalidID(t *testing.T) {
	r := newTestRouter(t)
	for _, id := range []string{"abc", "0", "-5", "99999999999999999999"} {
		w := do(t, r, http.MethodGet, "/api/v1/ids/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.Equal(t, apperrors.CodeInvalidID, decode[errorBody](t, w).Code)
	}
}

func TestBuildGraph(t *testing.T) {
	r := newTestRouter(t)

	ext := graph.Extraction{
		Nodes: []graph.NodeDraft{
			{Key: "lease", Type: "Lease", Properties: map[string]any{"start_date": "2024-01-01"}},
			{Key: "acme", Type: "Party", Properties: map[string]any{"name": "Acme"}},
		},
		Relations: []graph.RelationDraft{{Type: "HasTenant", SourceKey: "lease", TargetKey: "acme"}},
	}
	w := do(t, r, http.MethodPost, "/api/v1/graphs", ext)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	g := decode[graph.Graph](t, w)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Relations, 1)
	assert.Equal(t, g.Nodes[0].ID, g.Relations[0].SourceID)
	assert.Equal(t, "Acme", g.Nodes[1].Properties["name"])
}

func TestBuildGraph_Errors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name  string
		ext   graph.Extraction
		code  string
		field string
	}{
		{
			name:  "undeclared property",
			ext:   graph.Extraction{Nodes: []graph.NodeDraft{{Key: "a", Type: "Lease", Properties: map[string]any{"rent": 1}}}},
			code:  apperrors.CodeUnknownProperty,
			field: "rent",
		},
		{
			name: "unknown schema",
			ext:  graph.Extraction{Nodes: []graph.NodeDraft{{Key: "a", Type: "Ghost"}}},
			code: apperrors.CodeSchemaNotFound,
		},
		{
			name: "endpoint mismatch",
			ext: graph.Extraction{
				Nodes:     []graph.NodeDraft{{Key: "a", Type: "Lease"}, {Key: "b", Type: "Lease"}},
				Relations: []graph.RelationDraft{{Type: "HasTenant", SourceKey: "a", TargetKey: "b"}},
			},
			code:  apperrors.CodeEndpointMismatch,
			field: "target",
		},
		{
			name: "unknown key",
			ext: graph.Extraction{
				Relations: []graph.RelationDraft{{Type: "HasTenant", SourceKey: "a", TargetKey: "b"}},
			},
			code: apperrors.CodeUnknownNodeKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/graphs", tt.ext)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[errorBody](t, w)
			assert.Equal(t, tt.code, body.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, body.Params["field"])
			}
		})
	}
}
