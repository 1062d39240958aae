package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const DefaultBackendsFile = "config/backends.yml"

// Backend kinds. Local backends are GPU workers we operate ourselves;
// cloud backends are hosted inference APIs.
const (
	BackendKindLocal = "local"
	BackendKindCloud = "cloud"
)

// Adapter flavors select which client implementation talks to the backend.
const (
	FlavorWorker    = "worker"
	FlavorOpenAI    = "openai"
	FlavorReplicate = "replicate"
)

// Backend describes one configured generation backend and its model catalog.
type Backend struct {
	ID      string
	Kind    string
	Flavor  string
	BaseURL string
	APIKey  string
	Config  map[string]string
	Models  []BackendModel
}

// BackendModel describes one model the backend is expected to expose.
// A model only becomes available when a probe confirms its ProbeID (and all
// required features) are actually exposed by the backend.
type BackendModel struct {
	ID          string
	DisplayName string
	Tasks       []string
	Priority    int
	CreditCost  decimal.Decimal
	ProbeID     string
	Features    []string
	Config      map[string]string
}

// LoadBackends parses the yaml file at the provided path.
func LoadBackends(path string) ([]Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("backends config path is empty")
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read backends config %q: %w", cleanPath, err)
	}

	return ParseBackends(data)
}

// ParseBackends decodes and normalizes a backends document.
func ParseBackends(data []byte) ([]Backend, error) {
	var doc backendsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse backends config: %w", err)
	}

	if len(doc.Backends) == 0 {
		return nil, errors.New("backends config has no backends defined")
	}

	seen := make(map[string]bool, len(doc.Backends))
	seenModels := make(map[string]bool)
	result := make([]Backend, 0, len(doc.Backends))
	for idx, entry := range doc.Backends {
		enabled, err := parseEnabled(entry.EnableRaw)
		if err != nil {
			return nil, fmt.Errorf("backends[%d]: %w", idx, err)
		}
		if !enabled {
			continue
		}
		backend, err := normalizeBackendEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("backends[%d]: %w", idx, err)
		}
		if seen[backend.ID] {
			return nil, fmt.Errorf("backends[%d]: duplicate backend id %q", idx, backend.ID)
		}
		seen[backend.ID] = true
		for _, m := range backend.Models {
			if seenModels[m.ID] {
				return nil, fmt.Errorf("backends[%d]: duplicate model id %q", idx, m.ID)
			}
			seenModels[m.ID] = true
		}
		result = append(result, backend)
	}

	if len(result) == 0 {
		return nil, errors.New("backends config has no enabled backends")
	}

	return result, nil
}

type backendsDocument struct {
	Backends []backendEntry `yaml:"backends"`
}

type backendEntry struct {
	EnableRaw string             `yaml:"enable"`
	ID        string             `yaml:"id"`
	Kind      string             `yaml:"kind"`
	Flavor    string             `yaml:"flavor"`
	URL       string             `yaml:"url"`
	BaseURL   string             `yaml:"base_url"`
	APIKey    string             `yaml:"api_key"`
	Config    map[string]string  `yaml:"config"`
	Models    []backendModelSpec `yaml:"models"`
}

type backendModelSpec struct {
	ID          string            `yaml:"id"`
	DisplayName string            `yaml:"display_name"`
	Tasks       []string          `yaml:"tasks"`
	Priority    *int              `yaml:"priority"`
	CreditCost  string            `yaml:"credit_cost"`
	ProbeID     string            `yaml:"probe_id"`
	Features    []string          `yaml:"features"`
	Config      map[string]string `yaml:"config"`
}

func normalizeBackendEntry(entry backendEntry) (Backend, error) {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return Backend{}, errors.New("backend id is required")
	}

	kind := strings.TrimSpace(strings.ToLower(entry.Kind))
	switch kind {
	case BackendKindLocal, BackendKindCloud:
	case "":
		return Backend{}, errors.New("backend kind is required")
	default:
		return Backend{}, fmt.Errorf("backend kind %q must be %q or %q", kind, BackendKindLocal, BackendKindCloud)
	}

	flavor := strings.TrimSpace(strings.ToLower(entry.Flavor))
	if flavor == "" {
		if kind == BackendKindLocal {
			flavor = FlavorWorker
		} else {
			flavor = FlavorOpenAI
		}
	}
	switch flavor {
	case FlavorWorker, FlavorOpenAI, FlavorReplicate:
	default:
		return Backend{}, fmt.Errorf("backend flavor %q is not supported", flavor)
	}

	baseURL := firstNonEmpty(entry.URL, entry.BaseURL)
	baseURL = strings.TrimSpace(os.ExpandEnv(baseURL))
	if baseURL == "" {
		return Backend{}, errors.New("backend url is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	apiKey := strings.TrimSpace(entry.APIKey)
	if apiKey != "" {
		apiKey = os.ExpandEnv(apiKey)
	}

	if len(entry.Models) == 0 {
		return Backend{}, errors.New("backend has no models defined")
	}

	models := make([]BackendModel, 0, len(entry.Models))
	for idx, spec := range entry.Models {
		model, err := normalizeModelSpec(spec)
		if err != nil {
			return Backend{}, fmt.Errorf("models[%d]: %w", idx, err)
		}
		models = append(models, model)
	}

	return Backend{
		ID:      id,
		Kind:    kind,
		Flavor:  flavor,
		BaseURL: baseURL,
		APIKey:  apiKey,
		Config:  cloneStringMap(entry.Config),
		Models:  models,
	}, nil
}

func normalizeModelSpec(spec backendModelSpec) (BackendModel, error) {
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		return BackendModel{}, errors.New("model id is required")
	}

	displayName := strings.TrimSpace(spec.DisplayName)
	if displayName == "" {
		displayName = id
	}

	if len(spec.Tasks) == 0 {
		return BackendModel{}, errors.New("model has no tasks defined")
	}
	tasks := make([]string, 0, len(spec.Tasks))
	for _, t := range spec.Tasks {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			continue
		}
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return BackendModel{}, errors.New("model has no tasks defined")
	}

	priority := 100
	if spec.Priority != nil {
		priority = *spec.Priority
	}
	if priority < 0 {
		return BackendModel{}, fmt.Errorf("model priority %d must not be negative", priority)
	}

	creditCost := decimal.Zero
	if raw := strings.TrimSpace(spec.CreditCost); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return BackendModel{}, fmt.Errorf("credit_cost: %w", err)
		}
		if parsed.IsNegative() {
			return BackendModel{}, fmt.Errorf("credit_cost %s must not be negative", parsed)
		}
		creditCost = parsed
	}

	probeID := strings.TrimSpace(spec.ProbeID)
	if probeID == "" {
		probeID = id
	}

	features := make([]string, 0, len(spec.Features))
	for _, f := range spec.Features {
		f = strings.TrimSpace(strings.ToLower(f))
		if f == "" {
			continue
		}
		features = append(features, f)
	}

	return BackendModel{
		ID:          id,
		DisplayName: displayName,
		Tasks:       tasks,
		Priority:    priority,
		CreditCost:  creditCost,
		ProbeID:     probeID,
		Features:    features,
		Config:      cloneStringMap(spec.Config),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(os.ExpandEnv(v))
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseEnabled(raw string) (bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return true, nil
	}

	resolved := strings.TrimSpace(expandWithDefault(value))
	if resolved == "" {
		return true, nil
	}

	parsed, err := strconv.ParseBool(resolved)
	if err != nil {
		return false, fmt.Errorf("enable: %w", err)
	}
	return parsed, nil
}

// expandWithDefault expands ${VAR} and ${VAR:-default} syntax using os envs.
func expandWithDefault(raw string) string {
	if !strings.Contains(raw, "${") {
		return os.ExpandEnv(raw)
	}
	start := strings.Index(raw, "${")
	end := strings.Index(raw[start:], "}")
	if start == -1 || end == -1 {
		return os.ExpandEnv(raw)
	}
	end = start + end
	expr := raw[start+2 : end]
	defaultVal := ""
	varName := expr
	if strings.Contains(expr, ":-") {
		parts := strings.SplitN(expr, ":-", 2)
		varName = parts[0]
		defaultVal = parts[1]
	}
	val := os.Getenv(varName)
	if val == "" {
		val = defaultVal
	}
	resolved := raw[:start] + val + raw[end+1:]
	return os.ExpandEnv(resolved)
}
