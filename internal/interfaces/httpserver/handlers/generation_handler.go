// Package handlers holds the HTTP handlers bridging routes to the domain.
package handlers

import (
	"context"

	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
)

// GenerationHandler handles generation requests.
type GenerationHandler struct {
	service *generation.Service
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(service *generation.Service) *GenerationHandler {
	return &GenerationHandler{service: service}
}

// Generate runs the fallback chain for one generation request.
func (h *GenerationHandler) Generate(ctx context.Context, req generation.Request) (*generation.Record, error) {
	return h.service.Generate(ctx, req)
}

// Recent looks up a finished generation from the history buffer.
func (h *GenerationHandler) Recent(id string) (*generation.Record, bool) {
	return h.service.Recent(id)
}
