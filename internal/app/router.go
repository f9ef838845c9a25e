package app

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ontoforge.io/ontoforge/internal/api/handlers"
	"ontoforge.io/ontoforge/internal/api/middleware"
	"ontoforge.io/ontoforge/internal/config"
)

// defaultAllowedOrigins apply when no origins are configured.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	router.Use(cors.New(buildCORSConfig(cfg)))
	router.Use(middleware.ErrorHandler())

	registerRoutes(router.Group("/api/v1"), server)
	return router
}

func registerRoutes(v1 *gin.RouterGroup, s *handlers.Server) {
	v1.GET("/health/live", s.GetLiveness)
	v1.GET("/health/ready", s.GetReadiness)

	v1.GET("/schemas", s.ListSchemas)
	v1.GET("/schemas/nodes/:name", s.GetNodeSchema)
	v1.GET("/schemas/relations/:name", s.GetRelationSchema)

	v1.POST("/ids", s.MintIDs)
	v1.GET("/ids/:id", s.DecodeID)

	v1.POST("/graphs", s.BuildGraph)
}

// buildCORSConfig derives the CORS policy. A "*" origin is honoured only
// with server.unsafe_allow_all_origins, which also disables credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
		return cc
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = slices.Clone(defaultAllowedOrigins)
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = cfg.Server.AllowCredentials
	return cc
}
