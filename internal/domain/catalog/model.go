package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pixelforge-ai/generation-api/internal/domain/task"
)

// BackendKind distinguishes locally operated GPU workers from hosted
// inference APIs.
type BackendKind string

const (
	BackendLocal BackendKind = "local"
	BackendCloud BackendKind = "cloud"
)

// RankingPolicy breaks priority ties between local and cloud models.
// Priority remains the primary ranking key under every policy.
type RankingPolicy string

const (
	RankNone       RankingPolicy = "none"
	RankLocalFirst RankingPolicy = "local-first"
	RankCloudFirst RankingPolicy = "cloud-first"
)

// ParseRankingPolicy converts a configuration string into a RankingPolicy.
func ParseRankingPolicy(value string) (RankingPolicy, error) {
	switch p := RankingPolicy(strings.TrimSpace(strings.ToLower(value))); p {
	case RankNone, RankLocalFirst, RankCloudFirst:
		return p, nil
	case "":
		return RankNone, nil
	default:
		return "", fmt.Errorf("unknown ranking policy %q", value)
	}
}

// ModelInfo describes one generation model as seen by the rest of the
// service. Config is opaque to the registry and executor; only the backend
// adapter interprets it.
type ModelInfo struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	BackendID   string            `json:"backend_id"`
	Backend     BackendKind       `json:"backend_kind"`
	Tasks       []task.Kind       `json:"tasks"`
	Available   bool              `json:"available"`
	Priority    int               `json:"priority"`
	CreditCost  decimal.Decimal   `json:"credit_cost"`
	Config      map[string]string `json:"-"`
}

// SupportsTask reports whether the model supports the given task kind.
func (m ModelInfo) SupportsTask(kind task.Kind) bool {
	for _, t := range m.Tasks {
		if t == kind {
			return true
		}
	}
	return false
}

// clone returns a deep copy so snapshot holders cannot mutate shared state.
func (m ModelInfo) clone() ModelInfo {
	out := m
	out.Tasks = make([]task.Kind, len(m.Tasks))
	copy(out.Tasks, m.Tasks)
	if m.Config != nil {
		out.Config = make(map[string]string, len(m.Config))
		for k, v := range m.Config {
			out.Config[k] = v
		}
	}
	return out
}

// Snapshot is an immutable view of backend capabilities at one refresh.
// The registry publishes snapshots with an atomic pointer swap; readers
// never see a partially updated view.
type Snapshot struct {
	models         []ModelInfo
	backendsOnline map[string]bool
	lastRefresh    time.Time
}

// NewSnapshot builds a ranked snapshot. Models are stable-sorted by priority
// ascending; the ranking policy only breaks exact priority ties, so the
// configured order decides ties under RankNone.
func NewSnapshot(models []ModelInfo, backendsOnline map[string]bool, lastRefresh time.Time, policy RankingPolicy) *Snapshot {
	ranked := make([]ModelInfo, len(models))
	for i, m := range models {
		ranked[i] = m.clone()
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority < ranked[j].Priority
		}
		switch policy {
		case RankLocalFirst:
			return ranked[i].Backend == BackendLocal && ranked[j].Backend == BackendCloud
		case RankCloudFirst:
			return ranked[i].Backend == BackendCloud && ranked[j].Backend == BackendLocal
		default:
			return false
		}
	})

	online := make(map[string]bool, len(backendsOnline))
	for k, v := range backendsOnline {
		online[k] = v
	}

	return &Snapshot{
		models:         ranked,
		backendsOnline: online,
		lastRefresh:    lastRefresh,
	}
}

// emptySnapshot is what Snapshot() returns before the first refresh.
func emptySnapshot() *Snapshot {
	return &Snapshot{
		models:         nil,
		backendsOnline: map[string]bool{},
	}
}

// Models returns a copy of every configured model, ranked, including
// currently unavailable ones.
func (s *Snapshot) Models() []ModelInfo {
	out := make([]ModelInfo, len(s.models))
	for i, m := range s.models {
		out[i] = m.clone()
	}
	return out
}

// Model looks up a model by id.
func (s *Snapshot) Model(id string) (ModelInfo, bool) {
	for _, m := range s.models {
		if m.ID == id {
			return m.clone(), true
		}
	}
	return ModelInfo{}, false
}

// ModelsForTask returns the available models supporting the task kind,
// ranked by priority ascending with stable ties.
func (s *Snapshot) ModelsForTask(kind task.Kind) []ModelInfo {
	var out []ModelInfo
	for _, m := range s.models {
		if m.Available && m.SupportsTask(kind) {
			out = append(out, m.clone())
		}
	}
	return out
}

// BackendsOnline returns a copy of the per-backend reachability map.
func (s *Snapshot) BackendsOnline() map[string]bool {
	out := make(map[string]bool, len(s.backendsOnline))
	for k, v := range s.backendsOnline {
		out[k] = v
	}
	return out
}

// BackendOnline reports whether the backend answered its last probe.
func (s *Snapshot) BackendOnline(id string) bool {
	return s.backendsOnline[id]
}

// LastRefresh returns when the snapshot was published. Zero before the
// first refresh.
func (s *Snapshot) LastRefresh() time.Time {
	return s.lastRefresh
}
