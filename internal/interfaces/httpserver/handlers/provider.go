package handlers

import (
	"github.com/google/wire"

	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Generation *GenerationHandler
	Models     *ModelHandler
	Backends   *BackendHandler
}

// NewProvider creates a new handler provider.
func NewProvider(service *generation.Service, registry *catalog.Registry) *Provider {
	return &Provider{
		Generation: NewGenerationHandler(service),
		Models:     NewModelHandler(registry),
		Backends:   NewBackendHandler(registry),
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewGenerationHandler,
	NewModelHandler,
	NewBackendHandler,
	NewProvider,
)
