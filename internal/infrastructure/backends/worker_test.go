package backends_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/backends"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00}

func workerBackend(baseURL string) config.Backend {
	return config.Backend{
		ID:      "gpu-worker",
		Kind:    config.BackendKindLocal,
		Flavor:  config.FlavorWorker,
		BaseURL: baseURL,
	}
}

func workerModel(baseURL string) catalog.ModelInfo {
	return catalog.ModelInfo{
		ID:        "sdxl-turbo",
		BackendID: "gpu-worker",
		Backend:   catalog.BackendLocal,
		Tasks:     []task.Kind{task.KindTextToImage},
		Config: map[string]string{
			catalog.ConfigKeyBaseURL: baseURL,
			catalog.ConfigKeyFlavor:  config.FlavorWorker,
		},
	}
}

func TestWorkerAdapter_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("probe path = %q, want /health", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "healthy",
			"gpu": {"device": "RTX 4090"},
			"models_loaded": {"sdxl-turbo": true, "realesrgan": false},
			"features": ["upscale"]
		}`))
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	result := adapter.Probe(context.Background(), workerBackend(srv.URL))

	if !result.Reachable {
		t.Fatal("Reachable = false, want true")
	}
	if len(result.Models) != 1 || result.Models[0] != "sdxl-turbo" {
		t.Errorf("Models = %v, want [sdxl-turbo]", result.Models)
	}
	if len(result.Features) != 1 || result.Features[0] != "upscale" {
		t.Errorf("Features = %v, want [upscale]", result.Features)
	}
}

func TestWorkerAdapter_ProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	result := adapter.Probe(context.Background(), workerBackend(srv.URL))

	if result.Reachable {
		t.Error("Reachable = true for a closed server")
	}
	if len(result.Models) != 0 {
		t.Errorf("Models = %v, want none", result.Models)
	}
}

func TestWorkerAdapter_ProbeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	if result := adapter.Probe(context.Background(), workerBackend(srv.URL)); result.Reachable {
		t.Error("Reachable = true for a 500 health answer")
	}
}

func TestWorkerAdapter_AttemptRawBytes(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("attempt path = %q, want /generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	payload := task.Payload{Prompt: "a lighthouse at dusk", Width: 512, Height: 512}
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, payload, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomeSuccess {
		t.Fatalf("outcome = %s (%s), want success", outcome.Kind, outcome.ErrorMessage())
	}
	if outcome.Artifact == nil || len(outcome.Artifact.Data) == 0 {
		t.Fatal("artifact carries no data")
	}
	if outcome.Artifact.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", outcome.Artifact.MimeType)
	}
	if got["model"] != "sdxl-turbo" || got["task"] != "text-to-image" {
		t.Errorf("request model/task = %v/%v", got["model"], got["task"])
	}
	if got["prompt"] != "a lighthouse at dusk" {
		t.Errorf("request prompt = %v", got["prompt"])
	}
}

func TestWorkerAdapter_AttemptStoredArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url": "https://artifacts.local/out.mp4", "mime_type": "video/mp4"}`))
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", outcome.Kind)
	}
	if outcome.Artifact.URL != "https://artifacts.local/out.mp4" {
		t.Errorf("URL = %q", outcome.Artifact.URL)
	}
	if outcome.Artifact.MimeType != "video/mp4" {
		t.Errorf("MimeType = %q, want video/mp4", outcome.Artifact.MimeType)
	}
}

func TestWorkerAdapter_AttemptSniffsMimeType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", outcome.Kind)
	}
	if outcome.Artifact.MimeType != "image/png" {
		t.Errorf("sniffed MimeType = %q, want image/png", outcome.Artifact.MimeType)
	}
}

func TestWorkerAdapter_AttemptLoadingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail": "model sdxl-turbo is still loading"}`))
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomeTransient {
		t.Fatalf("outcome = %s, want transient", outcome.Kind)
	}
	if !strings.Contains(outcome.ErrorMessage(), "still loading") {
		t.Errorf("error = %q, want the worker's detail in it", outcome.ErrorMessage())
	}
}

func TestWorkerAdapter_AttemptRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomeTransient {
		t.Fatalf("outcome = %s, want transient", outcome.Kind)
	}
	if outcome.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", outcome.RetryAfter)
	}
}

func TestWorkerAdapter_AttemptRejectedInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "width must be a multiple of 8"}`))
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x", Width: 513}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomePermanent {
		t.Fatalf("outcome = %s, want permanent", outcome.Kind)
	}
	if !strings.Contains(outcome.ErrorMessage(), "multiple of 8") {
		t.Errorf("error = %q, want the worker's detail in it", outcome.ErrorMessage())
	}
}

func TestWorkerAdapter_AttemptConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomeTransient {
		t.Errorf("outcome = %s, want transient for a refused connection", outcome.Kind)
	}
}

func TestWorkerAdapter_AttemptMalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	}))
	defer srv.Close()

	adapter := backends.NewWorkerAdapter(zerolog.Nop())
	outcome := adapter.Attempt(context.Background(), task.KindTextToImage, task.Payload{Prompt: "x"}, workerModel(srv.URL))

	if outcome.Kind != chain.OutcomePermanent {
		t.Errorf("outcome = %s, want permanent for a malformed success body", outcome.Kind)
	}
}
