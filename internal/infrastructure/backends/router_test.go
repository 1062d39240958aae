package backends_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/backends"
)

func TestRouter_ProbeDispatchesByFlavor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want the worker prober to handle this flavor", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "healthy", "models_loaded": {"sdxl-turbo": true}}`))
	}))
	defer srv.Close()

	router := backends.NewRouter(zerolog.Nop())
	result := router.Probe(context.Background(), workerBackend(srv.URL))

	if !result.Reachable {
		t.Error("Reachable = false, want true")
	}
}

func TestRouter_ProbeUnknownFlavor(t *testing.T) {
	router := backends.NewRouter(zerolog.Nop())
	backend := config.Backend{ID: "mystery", Flavor: "telepathy", BaseURL: "http://localhost:1"}

	if result := router.Probe(context.Background(), backend); result.Reachable {
		t.Error("Reachable = true for a flavor without a prober")
	}
}

func TestRouter_Resolve(t *testing.T) {
	router := backends.NewRouter(zerolog.Nop())

	tests := []struct {
		name   string
		flavor string
	}{
		{name: "worker", flavor: config.FlavorWorker},
		{name: "openai", flavor: config.FlavorOpenAI},
		{name: "replicate", flavor: config.FlavorReplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := catalog.ModelInfo{
				ID:     "m",
				Config: map[string]string{catalog.ConfigKeyFlavor: tt.flavor},
			}
			adapter, err := router.Resolve(model)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if adapter == nil {
				t.Fatal("Resolve() returned a nil adapter")
			}
		})
	}
}

func TestRouter_ResolveUnknownFlavor(t *testing.T) {
	router := backends.NewRouter(zerolog.Nop())
	model := catalog.ModelInfo{ID: "m", Config: map[string]string{catalog.ConfigKeyFlavor: "telepathy"}}

	if _, err := router.Resolve(model); err == nil {
		t.Error("Resolve() error = nil for an unknown flavor")
	}
}

func TestRouter_ResolveMissingFlavor(t *testing.T) {
	router := backends.NewRouter(zerolog.Nop())

	if _, err := router.Resolve(catalog.ModelInfo{ID: "m"}); err == nil {
		t.Error("Resolve() error = nil for a model without flavor config")
	}
}
