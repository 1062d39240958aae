package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/utils/httpclients"
)

// ReplicateAdapter runs predictions on Replicate. Predictions are
// asynchronous: the adapter creates one and polls it until a terminal
// status or until the attempt context runs out.
type ReplicateAdapter struct {
	client *resty.Client
	log    zerolog.Logger
}

const defaultPollInterval = 2 * time.Second

func NewReplicateAdapter(log zerolog.Logger) *ReplicateAdapter {
	return &ReplicateAdapter{
		client: httpclients.NewClient("replicate"),
		log:    log.With().Str("component", "replicate-adapter").Logger(),
	}
}

type replicatePredictionRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Prediction statuses as Replicate reports them.
const (
	predictionSucceeded = "succeeded"
	predictionFailed    = "failed"
	predictionCanceled  = "canceled"
)

// Probe verifies the API token against /account. Hosted predictions expose
// no listing scoped to our catalog, so an authenticated answer marks every
// configured probe id as exposed.
func (a *ReplicateAdapter) Probe(ctx context.Context, backend config.Backend) catalog.ProbeResult {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+backend.APIKey).
		Get(joinEndpoint(backend.BaseURL, "/account"))
	if err != nil {
		a.log.Debug().Err(err).Str("backend", backend.ID).Msg("account check failed")
		return catalog.ProbeResult{}
	}
	if resp.StatusCode() >= 400 {
		a.log.Debug().Int("status", resp.StatusCode()).Str("backend", backend.ID).Msg("account check rejected")
		return catalog.ProbeResult{}
	}

	models := make([]string, 0, len(backend.Models))
	for _, m := range backend.Models {
		models = append(models, m.ProbeID)
	}
	return catalog.ProbeResult{Reachable: true, Models: models}
}

// Attempt creates one prediction and waits for it. The Prefer header asks
// for a synchronous answer; slower models fall back to polling.
func (a *ReplicateAdapter) Attempt(ctx context.Context, kind task.Kind, payload task.Payload, model catalog.ModelInfo) chain.Outcome {
	endpoint, body, err := predictionRequest(payload, model)
	if err != nil {
		return chain.Permanent(err)
	}

	auth := "Bearer " + model.Config[catalog.ConfigKeyAPIKey]
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "wait").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return chain.Transient(fmt.Errorf("replicate request failed: %w", err), 0)
	}
	if resp.StatusCode() >= 400 {
		return outcomeFromStatus("replicate", resp.StatusCode(), resp.Bytes(), resp.Header())
	}

	var pred replicatePrediction
	if err := json.Unmarshal(resp.Bytes(), &pred); err != nil {
		return chain.Permanent(fmt.Errorf("unparseable replicate prediction: %w", err))
	}
	return a.awaitPrediction(ctx, auth, model, pred)
}

// awaitPrediction polls until the prediction reaches a terminal status. The
// attempt context bounds the wait; running out of it surfaces as transient
// and the executor decides whether the chain goes on.
func (a *ReplicateAdapter) awaitPrediction(ctx context.Context, auth string, model catalog.ModelInfo, pred replicatePrediction) chain.Outcome {
	interval := pollInterval(model)
	pollURL := pred.URLs.Get
	if pollURL == "" {
		pollURL = joinEndpoint(model.Config[catalog.ConfigKeyBaseURL], "/predictions/"+pred.ID)
	}

	for {
		switch pred.Status {
		case predictionSucceeded:
			return artifactFromOutput(pred.Output)
		case predictionFailed:
			// Capacity and cold-start problems surface as failed predictions.
			return chain.Transient(fmt.Errorf("replicate prediction failed: %s", predictionError(pred)), 0)
		case predictionCanceled:
			return chain.Permanent(fmt.Errorf("replicate prediction %s was canceled", pred.ID))
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return chain.Transient(fmt.Errorf("prediction %s still %s: %w", pred.ID, pred.Status, ctx.Err()), 0)
		case <-timer.C:
		}

		resp, err := a.client.R().
			SetContext(ctx).
			SetHeader("Authorization", auth).
			Get(pollURL)
		if err != nil {
			return chain.Transient(fmt.Errorf("replicate poll failed: %w", err), 0)
		}
		if resp.StatusCode() >= 400 {
			return outcomeFromStatus("replicate", resp.StatusCode(), resp.Bytes(), resp.Header())
		}
		if err := json.Unmarshal(resp.Bytes(), &pred); err != nil {
			return chain.Permanent(fmt.Errorf("unparseable replicate prediction: %w", err))
		}
	}
}

// predictionRequest picks the API shape for the model: pinned versions go
// through /predictions, official models through their scoped endpoint.
func predictionRequest(payload task.Payload, model catalog.ModelInfo) (string, replicatePredictionRequest, error) {
	base := model.Config[catalog.ConfigKeyBaseURL]
	input := predictionInput(payload)

	if version := model.Config["version"]; version != "" {
		return joinEndpoint(base, "/predictions"), replicatePredictionRequest{Version: version, Input: input}, nil
	}
	owner, name := model.Config["owner"], model.Config["name"]
	if owner == "" || name == "" {
		return "", replicatePredictionRequest{}, fmt.Errorf("model %q config needs a version or an owner and name", model.ID)
	}
	return joinEndpoint(base, fmt.Sprintf("/models/%s/%s/predictions", owner, name)), replicatePredictionRequest{Input: input}, nil
}

// predictionInput maps the payload onto the input names Replicate models
// conventionally use. Params pass through last so a model config can
// override any of them.
func predictionInput(payload task.Payload) map[string]any {
	input := make(map[string]any)
	if payload.Prompt != "" {
		input["prompt"] = payload.Prompt
	}
	if payload.NegativePrompt != "" {
		input["negative_prompt"] = payload.NegativePrompt
	}
	if payload.SourceImageURL != "" {
		input["image"] = payload.SourceImageURL
	}
	if payload.SourceAudioURL != "" {
		input["audio"] = payload.SourceAudioURL
	}
	if payload.Width > 0 {
		input["width"] = payload.Width
	}
	if payload.Height > 0 {
		input["height"] = payload.Height
	}
	if payload.Seed != 0 {
		input["seed"] = payload.Seed
	}
	if payload.Steps > 0 {
		input["num_inference_steps"] = payload.Steps
	}
	for k, v := range payload.Params {
		input[k] = v
	}
	return input
}

// artifactFromOutput pulls the first artifact URL out of a prediction
// output, which is either one URL or a list of them.
func artifactFromOutput(output json.RawMessage) chain.Outcome {
	var single string
	if err := json.Unmarshal(output, &single); err == nil && single != "" {
		return chain.Succeeded(&task.Artifact{URL: single})
	}
	var many []string
	if err := json.Unmarshal(output, &many); err == nil && len(many) > 0 && many[0] != "" {
		return chain.Succeeded(&task.Artifact{URL: many[0]})
	}
	return chain.Permanent(errors.New("replicate prediction succeeded without output"))
}

func predictionError(pred replicatePrediction) string {
	if pred.Error == "" {
		return "no error detail"
	}
	return pred.Error
}

// pollInterval reads the per-model poll cadence, tunable in the backend
// config for fast models.
func pollInterval(model catalog.ModelInfo) time.Duration {
	if raw := model.Config["poll_interval"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return defaultPollInterval
}
