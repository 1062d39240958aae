// Package v1 registers the /v1 API routes.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/handlers"
)

// Routes holds the v1 route configuration.
type Routes struct {
	handlers *handlers.Provider
}

// NewRoutes creates a new v1 routes instance.
func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{
		handlers: handlerProvider,
	}
}

// Register registers all v1 routes on the engine. When authMiddleware is
// non-nil it guards the whole group.
func (r *Routes) Register(engine *gin.Engine, authMiddleware gin.HandlerFunc) {
	v1 := engine.Group("/v1")
	if authMiddleware != nil {
		v1.Use(authMiddleware)
	}
	RegisterGenerationRoutes(v1, r.handlers.Generation)
	RegisterModelRoutes(v1, r.handlers.Models, r.handlers.Backends)
}
