package backends_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/backends"
)

func openaiBackend(baseURL string) config.Backend {
	return config.Backend{
		ID:      "openai",
		Kind:    config.BackendKindCloud,
		Flavor:  config.FlavorOpenAI,
		BaseURL: baseURL,
		APIKey:  "sk-test",
	}
}

func openaiModel(baseURL string, extra map[string]string) catalog.ModelInfo {
	cfg := map[string]string{
		catalog.ConfigKeyBaseURL: baseURL,
		catalog.ConfigKeyFlavor:  config.FlavorOpenAI,
		catalog.ConfigKeyAPIKey:  "sk-test",
	}
	for k, v := range extra {
		cfg[k] = v
	}
	return catalog.ModelInfo{
		ID:        "gpt-image-1",
		BackendID: "openai",
		Backend:   catalog.BackendCloud,
		Tasks:     []task.Kind{task.KindTextToImage, task.KindLogo},
		Config:    cfg,
	}
}

func TestOpenAIAdapter_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("probe path = %q, want /v1/models", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": [{"id": "gpt-image-1"}, {"id": "dall-e-3"}]}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	result := adapter.Probe(context.Background(), openaiBackend(srv.URL+"/v1"))

	if !result.Reachable {
		t.Fatal("Reachable = false, want true")
	}
	if len(result.Models) != 2 || result.Models[0] != "gpt-image-1" || result.Models[1] != "dall-e-3" {
		t.Errorf("Models = %v", result.Models)
	}
}

func TestOpenAIAdapter_ProbeAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	if result := adapter.Probe(context.Background(), openaiBackend(srv.URL+"/v1")); result.Reachable {
		t.Error("Reachable = true for a rejected key")
	}
}

func TestOpenAIAdapter_AttemptURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("attempt path = %q, want /v1/images/generations", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1700000000, "data": [{"url": "https://oaidalle.blob/img.png"}]}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	payload := task.Payload{Prompt: "minimal fox logo", Width: 1024, Height: 1024}
	outcome := adapter.Attempt(context.Background(), task.KindLogo, payload, openaiModel(srv.URL+"/v1", nil))

	if outcome.Kind != chain.OutcomeSuccess {
		t.Fatalf("outcome = %s (%s), want success", outcome.Kind, outcome.ErrorMessage())
	}
	if outcome.Artifact.URL != "https://oaidalle.blob/img.png" {
		t.Errorf("URL = %q", outcome.Artifact.URL)
	}
	if got["prompt"] != "minimal fox logo" || got["model"] != "gpt-image-1" {
		t.Errorf("request prompt/model = %v/%v", got["prompt"], got["model"])
	}
	if got["size"] != "1024x1024" {
		t.Errorf("request size = %v, want 1024x1024", got["size"])
	}
}

func TestOpenAIAdapter_AttemptB64Payload(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1700000000, "data": [{"b64_json": "` + encoded + `"}]}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, openaiModel(srv.URL+"/v1", nil))

	if outcome.Kind != chain.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", outcome.Kind)
	}
	if len(outcome.Artifact.Data) != len(pngBytes) {
		t.Errorf("Data length = %d, want %d", len(outcome.Artifact.Data), len(pngBytes))
	}
	if outcome.Artifact.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", outcome.Artifact.MimeType)
	}
}

func TestOpenAIAdapter_AttemptRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, openaiModel(srv.URL+"/v1", nil))

	if outcome.Kind != chain.OutcomeTransient {
		t.Fatalf("outcome = %s, want transient", outcome.Kind)
	}
	if !strings.Contains(outcome.ErrorMessage(), "Rate limit reached") {
		t.Errorf("error = %q", outcome.ErrorMessage())
	}
}

func TestOpenAIAdapter_AttemptContentRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "Your request was rejected by the safety system", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, openaiModel(srv.URL+"/v1", nil))

	if outcome.Kind != chain.OutcomePermanent {
		t.Fatalf("outcome = %s, want permanent", outcome.Kind)
	}
	if !strings.Contains(outcome.ErrorMessage(), "safety system") {
		t.Errorf("error = %q", outcome.ErrorMessage())
	}
}

func TestOpenAIAdapter_AttemptServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream error", "type": "server_error"}}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, openaiModel(srv.URL+"/v1", nil))

	if outcome.Kind != chain.OutcomeTransient {
		t.Errorf("outcome = %s, want transient for a 502", outcome.Kind)
	}
}

func TestOpenAIAdapter_AttemptUnsupportedKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("adapter called the API for an unsupported kind")
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToVideo, task.Payload{Prompt: "x"}, openaiModel(srv.URL+"/v1", nil))

	if outcome.Kind != chain.OutcomePermanent {
		t.Fatalf("outcome = %s, want permanent", outcome.Kind)
	}
	if !strings.Contains(outcome.ErrorMessage(), "text-to-video") {
		t.Errorf("error = %q, want the task kind named", outcome.ErrorMessage())
	}
}

func TestOpenAIAdapter_AttemptModelOverride(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1700000000, "data": [{"url": "https://oai/img.png"}]}`))
	}))
	defer srv.Close()

	adapter := backends.NewOpenAIAdapter(zerolog.Nop())
	model := openaiModel(srv.URL+"/v1", map[string]string{"model": "dall-e-3", "quality": "hd"})
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, model)

	if outcome.Kind != chain.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", outcome.Kind)
	}
	if got["model"] != "dall-e-3" {
		t.Errorf("request model = %v, want dall-e-3", got["model"])
	}
	if got["quality"] != "hd" {
		t.Errorf("request quality = %v, want hd", got["quality"])
	}
}
