// Package chain runs a generation request against an ordered candidate
// chain with per-provider retry, classified failure handling, and fallback.
package chain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pixelforge-ai/generation-api/internal/domain/task"
)

// OutcomeKind classifies the result of a single provider attempt.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeTransient OutcomeKind = "transient_failure"
	OutcomePermanent OutcomeKind = "permanent_failure"
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome is the tagged result of one adapter attempt. Adapters own the
// transient/permanent classification; the executor only consumes the tag.
type Outcome struct {
	Kind     OutcomeKind
	Artifact *task.Artifact // set iff Kind == OutcomeSuccess
	Err      error          // set on failures

	// RetryAfter is an optional rate-limit hint on transient failures.
	// The executor never waits less than this before the next attempt.
	RetryAfter time.Duration
}

// Succeeded builds a terminal success outcome.
func Succeeded(artifact *task.Artifact) Outcome {
	return Outcome{Kind: OutcomeSuccess, Artifact: artifact}
}

// Transient builds a retryable failure outcome. retryAfter may be zero;
// rate-limited backends pass their Retry-After hint through it.
func Transient(err error, retryAfter time.Duration) Outcome {
	return Outcome{Kind: OutcomeTransient, Err: err, RetryAfter: retryAfter}
}

// Permanent builds a failure outcome that must not be retried against the
// same provider: validation rejections, auth failures, policy refusals.
func Permanent(err error) Outcome {
	return Outcome{Kind: OutcomePermanent, Err: err}
}

// ErrorMessage returns the failure message, empty on success.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// AttemptRecord is one ledger entry: a single attempt against a single
// provider, successful or not.
type AttemptRecord struct {
	ProviderID   string        `json:"provider_id"`
	BackendID    string        `json:"backend_id,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"-"`
	Outcome      OutcomeKind   `json:"outcome"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// MarshalJSON emits the attempt duration as integer milliseconds.
func (r AttemptRecord) MarshalJSON() ([]byte, error) {
	type plain AttemptRecord
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(r), r.Duration.Milliseconds()})
}

// FailureReason classifies why a chain execution returned no artifact.
// Empty on success. The HTTP boundary maps it to a status code and the
// chain metrics use it as the result label.
type FailureReason string

const (
	FailureNone         FailureReason = ""
	FailureNoCandidates FailureReason = "no_candidates"
	FailureExhausted    FailureReason = "exhausted"
	FailureDeadline     FailureReason = "deadline"
	FailureInternal     FailureReason = "internal"
)

// Result is the outcome of a full chain execution. It is always
// well-formed: Success with an artifact and the winning provider, or
// failure with an aggregate error, and the complete attempt ledger
// either way.
type Result struct {
	Success       bool            `json:"success"`
	Artifact      *task.Artifact  `json:"artifact,omitempty"`
	Attempts      []AttemptRecord `json:"attempts"`
	FinalError    string          `json:"final_error,omitempty"`
	FailureReason FailureReason   `json:"failure_reason,omitempty"`
	ProviderID    string          `json:"provider_id,omitempty"`
	Credits       decimal.Decimal `json:"credits"`
}
