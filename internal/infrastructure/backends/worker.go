package backends

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/utils/httpclients"
)

// WorkerAdapter speaks to our own GPU worker processes. Workers report
// loaded models on /health and serve every task kind through one /generate
// endpoint that answers with raw media bytes or a stored-artifact URL.
type WorkerAdapter struct {
	client *resty.Client
	log    zerolog.Logger
}

func NewWorkerAdapter(log zerolog.Logger) *WorkerAdapter {
	return &WorkerAdapter{
		client: httpclients.NewClient("gpu-worker"),
		log:    log.With().Str("component", "worker-adapter").Logger(),
	}
}

type workerHealthResponse struct {
	Status       string          `json:"status"`
	ModelsLoaded map[string]bool `json:"models_loaded"`
	Features     []string        `json:"features"`
}

type workerGenerateRequest struct {
	Model          string            `json:"model"`
	Task           string            `json:"task"`
	Prompt         string            `json:"prompt,omitempty"`
	NegativePrompt string            `json:"negative_prompt,omitempty"`
	SourceImageURL string            `json:"source_image_url,omitempty"`
	SourceAudioURL string            `json:"source_audio_url,omitempty"`
	Width          int               `json:"width,omitempty"`
	Height         int               `json:"height,omitempty"`
	Seed           int64             `json:"seed,omitempty"`
	Steps          int               `json:"steps,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
}

type workerGenerateResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Probe checks the worker's /health endpoint. A model counts as exposed only
// while the worker reports it loaded.
func (a *WorkerAdapter) Probe(ctx context.Context, backend config.Backend) catalog.ProbeResult {
	req := a.client.R().SetContext(ctx)
	if backend.APIKey != "" {
		req.SetHeader("Authorization", "Bearer "+backend.APIKey)
	}
	resp, err := req.Get(joinEndpoint(backend.BaseURL, "/health"))
	if err != nil {
		a.log.Debug().Err(err).Str("backend", backend.ID).Msg("worker health check failed")
		return catalog.ProbeResult{}
	}
	if resp.StatusCode() >= 400 {
		a.log.Debug().Int("status", resp.StatusCode()).Str("backend", backend.ID).Msg("worker health check rejected")
		return catalog.ProbeResult{}
	}

	var health workerHealthResponse
	if err := json.Unmarshal(resp.Bytes(), &health); err != nil {
		a.log.Warn().Err(err).Str("backend", backend.ID).Msg("unparseable worker health response")
		return catalog.ProbeResult{}
	}

	models := make([]string, 0, len(health.ModelsLoaded))
	for id, loaded := range health.ModelsLoaded {
		if loaded {
			models = append(models, id)
		}
	}
	return catalog.ProbeResult{
		Reachable: true,
		Models:    models,
		Features:  health.Features,
	}
}

// Attempt runs one generation on the worker. Connection failures and 5xx
// answers are transient; a worker still loading its model answers 503 and
// falls in the same bucket.
func (a *WorkerAdapter) Attempt(ctx context.Context, kind task.Kind, payload task.Payload, model catalog.ModelInfo) chain.Outcome {
	body := workerGenerateRequest{
		Model:          modelName(model),
		Task:           kind.String(),
		Prompt:         payload.Prompt,
		NegativePrompt: payload.NegativePrompt,
		SourceImageURL: payload.SourceImageURL,
		SourceAudioURL: payload.SourceAudioURL,
		Width:          payload.Width,
		Height:         payload.Height,
		Seed:           payload.Seed,
		Steps:          payload.Steps,
		Params:         payload.Params,
	}

	req := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if key := model.Config[catalog.ConfigKeyAPIKey]; key != "" {
		req.SetHeader("Authorization", "Bearer "+key)
	}

	resp, err := req.Post(joinEndpoint(model.Config[catalog.ConfigKeyBaseURL], "/generate"))
	if err != nil {
		return chain.Transient(fmt.Errorf("worker request failed: %w", err), 0)
	}
	if resp.StatusCode() >= 400 {
		return outcomeFromStatus("worker "+model.BackendID, resp.StatusCode(), resp.Bytes(), resp.Header())
	}

	return a.artifactFromResponse(model, resp)
}

// artifactFromResponse maps a 2xx worker answer to an artifact. Workers
// either stream the media bytes directly or answer with JSON naming a stored
// artifact URL.
func (a *WorkerAdapter) artifactFromResponse(model catalog.ModelInfo, resp *resty.Response) chain.Outcome {
	data := resp.Bytes()
	contentType := mediaType(resp.Header().Get("Content-Type"))

	if strings.HasPrefix(contentType, "application/json") {
		var result workerGenerateResponse
		if err := json.Unmarshal(data, &result); err != nil || result.URL == "" {
			return chain.Permanent(fmt.Errorf("worker %s returned malformed generate response", model.BackendID))
		}
		return chain.Succeeded(&task.Artifact{URL: result.URL, MimeType: result.MimeType})
	}

	if len(data) == 0 {
		return chain.Permanent(fmt.Errorf("worker %s returned an empty body", model.BackendID))
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return chain.Succeeded(&task.Artifact{Data: data, MimeType: contentType})
}

// mediaType strips parameters like charset from a Content-Type value.
func mediaType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}
