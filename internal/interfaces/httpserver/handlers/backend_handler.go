package handlers

import (
	"context"

	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

// BackendHandler serves backend reachability for the dashboard status card.
type BackendHandler struct {
	registry *catalog.Registry
}

// NewBackendHandler creates a new backend handler.
func NewBackendHandler(registry *catalog.Registry) *BackendHandler {
	return &BackendHandler{registry: registry}
}

// Status returns the current snapshot's backend reachability view.
func (h *BackendHandler) Status(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := h.registry.EnsureFresh(ctx, 0)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler,
			platformerrors.ErrorTypeProbe, "capability refresh failed", err, "")
	}
	return snap, nil
}
