package chain_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
)

func TestOutcome_Constructors(t *testing.T) {
	success := chain.Succeeded(&task.Artifact{URL: "https://cdn.test/x.png"})
	if success.Kind != chain.OutcomeSuccess || success.Artifact == nil || success.Err != nil {
		t.Errorf("Succeeded() = %+v, want success with artifact", success)
	}

	transient := chain.Transient(errors.New("busy"), 2*time.Second)
	if transient.Kind != chain.OutcomeTransient || transient.RetryAfter != 2*time.Second {
		t.Errorf("Transient() = %+v, want transient with hint", transient)
	}
	if transient.ErrorMessage() != "busy" {
		t.Errorf("ErrorMessage() = %q, want %q", transient.ErrorMessage(), "busy")
	}

	permanent := chain.Permanent(errors.New("nope"))
	if permanent.Kind != chain.OutcomePermanent || permanent.Artifact != nil {
		t.Errorf("Permanent() = %+v, want permanent without artifact", permanent)
	}

	if got := chain.Succeeded(nil).ErrorMessage(); got != "" {
		t.Errorf("success ErrorMessage() = %q, want empty", got)
	}
}

func TestAttemptRecord_MarshalJSON(t *testing.T) {
	rec := chain.AttemptRecord{
		ProviderID:   "sdxl-turbo",
		BackendID:    "gpu-worker",
		StartedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
		Outcome:      chain.OutcomeTransient,
		ErrorMessage: "connect timeout",
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(data)

	if !strings.Contains(body, `"duration_ms":1500`) {
		t.Errorf("marshaled record = %s, want duration in milliseconds", body)
	}
	if !strings.Contains(body, `"provider_id":"sdxl-turbo"`) {
		t.Errorf("marshaled record = %s, missing provider id", body)
	}
	if strings.Contains(body, "1500000000") {
		t.Errorf("marshaled record = %s, leaked nanosecond duration", body)
	}
}
