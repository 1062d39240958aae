// Package responses contains HTTP response DTOs for the generation API.
package responses

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
)

// GenerationResponse is the API view of one completed generation: the
// outcome, the winning artifact when there is one, and the full attempt
// trail either way.
type GenerationResponse struct {
	ID            string          `json:"id"`
	Object        string          `json:"object"`
	Task          string          `json:"task"`
	Success       bool            `json:"success"`
	ProviderID    string          `json:"provider_id,omitempty"`
	Credits       decimal.Decimal `json:"credits"`
	Artifact      *ArtifactDetail `json:"artifact,omitempty"`
	Attempts      []AttemptDetail `json:"attempts"`
	FinalError    string          `json:"final_error,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ArtifactDetail carries the generated media: a hosted URL from cloud
// backends, or inline bytes (base64 in JSON) with a mime type from the
// local worker.
type ArtifactDetail struct {
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// AttemptDetail is one entry of the attempt trail.
type AttemptDetail struct {
	ProviderID string    `json:"provider_id"`
	BackendID  string    `json:"backend_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// ModelResponse is the API view of one configured model.
type ModelResponse struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	DisplayName string          `json:"display_name,omitempty"`
	BackendID   string          `json:"backend_id"`
	BackendKind string          `json:"backend_kind"`
	Tasks       []string        `json:"tasks"`
	Available   bool            `json:"available"`
	Priority    int             `json:"priority"`
	CreditCost  decimal.Decimal `json:"credit_cost"`
}

// ListModelsResponse lists models from one capability snapshot.
type ListModelsResponse struct {
	Object      string          `json:"object"`
	Data        []ModelResponse `json:"data"`
	LastRefresh time.Time       `json:"last_refresh"`
}

// RegistryStatusResponse summarizes a capability snapshot: per-backend
// reachability and model counts. Served by GET /v1/backends and as the
// refresh result.
type RegistryStatusResponse struct {
	Object          string          `json:"object"`
	Backends        map[string]bool `json:"backends"`
	ModelsTotal     int             `json:"models_total"`
	ModelsAvailable int             `json:"models_available"`
	LastRefresh     time.Time       `json:"last_refresh"`
}

// InvalidateResponse acknowledges a snapshot invalidation.
type InvalidateResponse struct {
	Object      string `json:"object"`
	Invalidated bool   `json:"invalidated"`
}

// NewGenerationResponse maps a generation record into its API shape.
func NewGenerationResponse(rec *generation.Record) *GenerationResponse {
	resp := &GenerationResponse{
		ID:        rec.ID,
		Object:    "generation",
		Task:      rec.Kind.String(),
		CreatedAt: rec.CreatedAt,
		Attempts:  []AttemptDetail{},
	}

	res := rec.Result
	if res == nil {
		return resp
	}

	resp.Success = res.Success
	resp.ProviderID = res.ProviderID
	resp.Credits = res.Credits
	resp.FinalError = res.FinalError
	resp.FailureReason = string(res.FailureReason)
	for _, a := range res.Attempts {
		resp.Attempts = append(resp.Attempts, AttemptDetail{
			ProviderID: a.ProviderID,
			BackendID:  a.BackendID,
			StartedAt:  a.StartedAt,
			DurationMS: a.Duration.Milliseconds(),
			Outcome:    a.Outcome.String(),
			Error:      a.ErrorMessage,
		})
	}
	if res.Artifact != nil {
		resp.Artifact = &ArtifactDetail{
			URL:      res.Artifact.URL,
			Data:     res.Artifact.Data,
			MimeType: res.Artifact.MimeType,
		}
	}
	return resp
}

// NewModelResponse maps a catalog model into its API shape.
func NewModelResponse(m catalog.ModelInfo) ModelResponse {
	tasks := make([]string, len(m.Tasks))
	for i, t := range m.Tasks {
		tasks[i] = t.String()
	}
	return ModelResponse{
		ID:          m.ID,
		Object:      "model",
		DisplayName: m.DisplayName,
		BackendID:   m.BackendID,
		BackendKind: string(m.Backend),
		Tasks:       tasks,
		Available:   m.Available,
		Priority:    m.Priority,
		CreditCost:  m.CreditCost,
	}
}

// NewListModelsResponse maps a ranked model list into its API shape.
func NewListModelsResponse(models []catalog.ModelInfo, lastRefresh time.Time) ListModelsResponse {
	data := make([]ModelResponse, len(models))
	for i, m := range models {
		data[i] = NewModelResponse(m)
	}
	return ListModelsResponse{
		Object:      "list",
		Data:        data,
		LastRefresh: lastRefresh,
	}
}

// NewRegistryStatusResponse summarizes a snapshot for the dashboard
// status card.
func NewRegistryStatusResponse(snap *catalog.Snapshot) RegistryStatusResponse {
	models := snap.Models()
	available := 0
	for _, m := range models {
		if m.Available {
			available++
		}
	}
	return RegistryStatusResponse{
		Object:          "registry.status",
		Backends:        snap.BackendsOnline(),
		ModelsTotal:     len(models),
		ModelsAvailable: available,
		LastRefresh:     snap.LastRefresh(),
	}
}

// NewInvalidateResponse acknowledges an invalidation request.
func NewInvalidateResponse() InvalidateResponse {
	return InvalidateResponse{
		Object:      "registry.invalidated",
		Invalidated: true,
	}
}
