package backends

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
)

// OpenAIAdapter speaks the OpenAI image API. It only serves prompt-driven
// image kinds; everything else is rejected as permanent so the chain moves
// on immediately.
type OpenAIAdapter struct {
	httpClient *http.Client
	log        zerolog.Logger
}

func NewOpenAIAdapter(log zerolog.Logger) *OpenAIAdapter {
	return &OpenAIAdapter{
		httpClient: &http.Client{},
		log:        log.With().Str("component", "openai-adapter").Logger(),
	}
}

// clientFor builds a client for one backend. The pooled http.Client is
// shared across backends; the SDK client itself is cheap.
func (a *OpenAIAdapter) clientFor(baseURL, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	cfg.HTTPClient = a.httpClient
	return openai.NewClientWithConfig(cfg)
}

// Probe lists the account's models. A backend that answers the listing is
// online; configured models become available when their probe id shows up.
func (a *OpenAIAdapter) Probe(ctx context.Context, backend config.Backend) catalog.ProbeResult {
	client := a.clientFor(backend.BaseURL, backend.APIKey)
	list, err := client.ListModels(ctx)
	if err != nil {
		a.log.Debug().Err(err).Str("backend", backend.ID).Msg("model listing failed")
		return catalog.ProbeResult{}
	}

	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	return catalog.ProbeResult{Reachable: true, Models: models}
}

// Attempt generates one image. Width and height map onto the provider's
// size parameter; quality can be pinned per model in the backend config.
func (a *OpenAIAdapter) Attempt(ctx context.Context, kind task.Kind, payload task.Payload, model catalog.ModelInfo) chain.Outcome {
	switch kind {
	case task.KindTextToImage, task.KindLogo:
	default:
		return chain.Permanent(fmt.Errorf("openai adapter does not support task %q", kind))
	}

	client := a.clientFor(model.Config[catalog.ConfigKeyBaseURL], model.Config[catalog.ConfigKeyAPIKey])
	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt:  payload.Prompt,
		Model:   modelName(model),
		N:       1,
		Size:    imageSize(payload),
		Quality: model.Config["quality"],
	})
	if err != nil {
		return classifyOpenAIError(err)
	}
	if len(resp.Data) == 0 {
		return chain.Permanent(errors.New("openai returned no images"))
	}

	item := resp.Data[0]
	if item.URL != "" {
		return chain.Succeeded(&task.Artifact{URL: item.URL, MimeType: "image/png"})
	}
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return chain.Permanent(fmt.Errorf("decode openai image payload: %w", err))
		}
		return chain.Succeeded(&task.Artifact{Data: data, MimeType: mimetype.Detect(data).String()})
	}
	return chain.Permanent(errors.New("openai returned an empty image entry"))
}

// classifyOpenAIError splits SDK errors on HTTP status. Transport failures
// carry no status and stay retryable.
func classifyOpenAIError(err error) chain.Outcome {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, fmt.Errorf("openai: %s", apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return classifyStatus(reqErr.HTTPStatusCode, fmt.Errorf("openai request rejected: %w", err))
		}
	}
	return chain.Transient(fmt.Errorf("openai request failed: %w", err), 0)
}

// imageSize maps requested dimensions onto the provider's size parameter.
func imageSize(payload task.Payload) string {
	if payload.Width > 0 && payload.Height > 0 {
		return fmt.Sprintf("%dx%d", payload.Width, payload.Height)
	}
	return openai.CreateImageSize1024x1024
}
