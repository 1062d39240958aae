// Package routes wires the versioned API route groups onto the engine.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pixelforge-ai/generation-api/internal/infrastructure/auth"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/handlers"
	v1 "github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/routes/v1"
)

// Provider holds all route providers.
type Provider struct {
	V1            *v1.Routes
	authValidator *auth.Validator
}

// NewProvider creates a new route provider.
func NewProvider(handlerProvider *handlers.Provider, authValidator *auth.Validator) *Provider {
	return &Provider{
		V1:            v1.NewRoutes(handlerProvider),
		authValidator: authValidator,
	}
}

// Register registers all routes on the engine. Auth applies to the API
// groups only; core probe routes stay public.
func (p *Provider) Register(engine *gin.Engine) {
	if p.authValidator != nil {
		p.V1.Register(engine, p.authValidator.Middleware())
	} else {
		p.V1.Register(engine, nil)
	}
}
