package handlers

import (
	"context"

	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

// ModelHandler serves the model catalog from the capability registry.
type ModelHandler struct {
	registry *catalog.Registry
}

// NewModelHandler creates a new model handler.
func NewModelHandler(registry *catalog.Registry) *ModelHandler {
	return &ModelHandler{registry: registry}
}

// Snapshot returns a fresh-enough capability snapshot, probing lazily when
// the current one has aged out.
func (h *ModelHandler) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := h.registry.EnsureFresh(ctx, 0)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler,
			platformerrors.ErrorTypeProbe, "capability refresh failed", err, "")
	}
	return snap, nil
}

// Refresh forces a probe round and returns the published snapshot.
func (h *ModelHandler) Refresh(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := h.registry.Refresh(ctx, catalog.TriggerManual)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler,
			platformerrors.ErrorTypeProbe, "capability refresh failed", err, "")
	}
	return snap, nil
}

// Invalidate marks the current snapshot stale without probing.
func (h *ModelHandler) Invalidate() {
	h.registry.Invalidate()
}
