package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/metrics"
)

// Adapter performs one network attempt against one provider. Implementations
// never return a Go error and never panic: every failure is folded into the
// returned Outcome, and the adapter owns its transient/permanent split.
type Adapter interface {
	Attempt(ctx context.Context, kind task.Kind, payload task.Payload, model catalog.ModelInfo) Outcome
}

// AdapterResolver maps a candidate to the adapter speaking its backend's
// wire format.
type AdapterResolver func(model catalog.ModelInfo) (Adapter, error)

// Executor walks an ordered candidate chain until one provider succeeds or
// every candidate is exhausted.
type Executor struct {
	policy Policy
	log    zerolog.Logger
}

// NewExecutor creates an executor with the given retry policy. Zero policy
// fields fall back to DefaultPolicy values.
func NewExecutor(policy Policy, log zerolog.Logger) *Executor {
	return &Executor{
		policy: policy.normalized(),
		log:    log.With().Str("component", "chain-executor").Logger(),
	}
}

// Policy returns the executor's normalized retry policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute runs the payload against the candidates in order. It always
// returns a well-formed Result carrying the full attempt ledger, never
// panics and never returns nil. Cancellation is honored at attempt
// boundaries and during backoff waits; an expired context yields the
// partial ledger with a deadline error.
func (e *Executor) Execute(ctx context.Context, kind task.Kind, payload task.Payload, candidates []catalog.ModelInfo, resolve AdapterResolver) *Result {
	start := time.Now()
	state := StateRunning
	ledger := NewLedger()

	if len(candidates) == 0 {
		state = e.finishChain(state, StateFailed)
		metrics.RecordChain(kind.String(), string(FailureNoCandidates), time.Since(start))
		e.log.Warn().Str("task", kind.String()).Str("state", state.String()).Msg("no candidates for task")
		return &Result{
			Attempts:      ledger.Records(),
			FinalError:    fmt.Sprintf("no candidates available for task %q", kind),
			FailureReason: FailureNoCandidates,
		}
	}
	if resolve == nil {
		state = e.finishChain(state, StateFailed)
		metrics.RecordChain(kind.String(), string(FailureInternal), time.Since(start))
		e.log.Error().Str("task", kind.String()).Str("state", state.String()).Msg("nil adapter resolver")
		return &Result{
			Attempts:      ledger.Records(),
			FinalError:    "no adapter resolver provided",
			FailureReason: FailureInternal,
		}
	}

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			return e.abort(ctx, kind, state, ledger, start)
		}
		if i > 0 {
			metrics.RecordFallback(kind.String())
			e.log.Info().
				Str("task", kind.String()).
				Str("provider", candidate.ID).
				Int("position", i+1).
				Msg("falling back to next candidate")
		}

		outcome, aborted := e.runCandidate(ctx, kind, payload, candidate, resolve, ledger)
		if aborted {
			return e.abort(ctx, kind, state, ledger, start)
		}
		if outcome.Kind == OutcomeSuccess {
			state = e.finishChain(state, StateDone)
			metrics.RecordChain(kind.String(), "success", time.Since(start))
			e.log.Info().
				Str("task", kind.String()).
				Str("provider", candidate.ID).
				Str("state", state.String()).
				Int("attempts", ledger.Len()).
				Dur("took", time.Since(start)).
				Msg("chain completed")
			return &Result{
				Success:    true,
				Artifact:   outcome.Artifact,
				Attempts:   ledger.Records(),
				ProviderID: candidate.ID,
				Credits:    candidate.CreditCost,
			}
		}
	}

	state = e.finishChain(state, StateFailed)
	metrics.RecordChain(kind.String(), string(FailureExhausted), time.Since(start))
	e.log.Warn().
		Str("task", kind.String()).
		Str("state", state.String()).
		Int("attempts", ledger.Len()).
		Dur("took", time.Since(start)).
		Msg("all candidates exhausted")
	return &Result{
		Attempts:      ledger.Records(),
		FinalError:    "all candidates failed: " + ledger.Summarize(),
		FailureReason: FailureExhausted,
	}
}

// runCandidate spends the retry budget on one candidate. The returned
// outcome is the candidate's last one; aborted reports that the context
// died and the whole chain must stop.
func (e *Executor) runCandidate(ctx context.Context, kind task.Kind, payload task.Payload, candidate catalog.ModelInfo, resolve AdapterResolver, ledger *Ledger) (Outcome, bool) {
	cstate := CandidatePending
	log := e.log.With().
		Str("task", kind.String()).
		Str("provider", candidate.ID).
		Str("backend", candidate.BackendID).
		Logger()

	adapter, err := resolve(candidate)
	if err != nil {
		outcome := Permanent(fmt.Errorf("resolve adapter: %w", err))
		ledger.Append(AttemptRecord{
			ProviderID:   candidate.ID,
			BackendID:    candidate.BackendID,
			StartedAt:    time.Now(),
			Outcome:      outcome.Kind,
			ErrorMessage: outcome.ErrorMessage(),
		})
		metrics.RecordAttempt(candidate.ID, outcome.Kind.String())
		cstate = e.advanceCandidate(cstate, CandidateExhausted, candidate.ID)
		log.Error().Err(err).Str("candidate_state", cstate.String()).Msg("no adapter for candidate")
		return outcome, false
	}

	var outcome Outcome
	for attempt := 1; attempt <= e.policy.MaxRetriesPerProvider; attempt++ {
		if ctx.Err() != nil {
			e.advanceCandidate(cstate, CandidateExhausted, candidate.ID)
			return outcome, true
		}

		attemptStart := time.Now()
		outcome = e.attemptOnce(ctx, adapter, kind, payload, candidate)
		record := AttemptRecord{
			ProviderID:   candidate.ID,
			BackendID:    candidate.BackendID,
			StartedAt:    attemptStart,
			Duration:     time.Since(attemptStart),
			Outcome:      outcome.Kind,
			ErrorMessage: outcome.ErrorMessage(),
		}
		ledger.Append(record)
		metrics.RecordAttempt(candidate.ID, outcome.Kind.String())

		switch outcome.Kind {
		case OutcomeSuccess:
			cstate = e.advanceCandidate(cstate, CandidateSucceeded, candidate.ID)
			log.Info().
				Int("attempt", attempt).
				Dur("took", record.Duration).
				Str("candidate_state", cstate.String()).
				Msg("attempt succeeded")
			return outcome, false

		case OutcomePermanent:
			cstate = e.advanceCandidate(cstate, CandidateExhausted, candidate.ID)
			log.Warn().
				Int("attempt", attempt).
				Err(outcome.Err).
				Str("candidate_state", cstate.String()).
				Msg("permanent failure, abandoning candidate")
			return outcome, false

		case OutcomeTransient:
			if attempt == e.policy.MaxRetriesPerProvider {
				cstate = e.advanceCandidate(cstate, CandidateExhausted, candidate.ID)
				log.Warn().
					Int("attempt", attempt).
					Err(outcome.Err).
					Str("candidate_state", cstate.String()).
					Msg("retry budget spent")
				return outcome, false
			}

			cstate = e.advanceCandidate(cstate, CandidateRetryWait, candidate.ID)
			delay := e.policy.DelayWithHint(attempt, outcome.RetryAfter)
			log.Debug().
				Int("attempt", attempt).
				Dur("backoff", delay).
				Err(outcome.Err).
				Str("candidate_state", cstate.String()).
				Msg("transient failure, backing off")
			if err := sleepCtx(ctx, delay); err != nil {
				e.advanceCandidate(cstate, CandidateExhausted, candidate.ID)
				return outcome, true
			}
			cstate = e.advanceCandidate(cstate, CandidatePending, candidate.ID)

		default:
			outcome = Permanent(fmt.Errorf("adapter returned unclassified outcome %q", outcome.Kind))
			cstate = e.advanceCandidate(cstate, CandidateExhausted, candidate.ID)
			log.Error().Str("candidate_state", cstate.String()).Msg("unclassified adapter outcome")
			return outcome, false
		}
	}
	return outcome, false
}

// attemptOnce invokes the adapter. A panicking adapter is folded into a
// permanent failure so the chain itself never unwinds.
func (e *Executor) attemptOnce(ctx context.Context, adapter Adapter, kind task.Kind, payload task.Payload, model catalog.ModelInfo) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("provider", model.ID).Interface("panic", r).Msg("adapter panicked")
			out = Permanent(fmt.Errorf("adapter panic: %v", r))
		}
	}()
	return adapter.Attempt(ctx, kind, payload, model)
}

// abort ends the chain on a dead context, returning the partial ledger.
func (e *Executor) abort(ctx context.Context, kind task.Kind, state State, ledger *Ledger, start time.Time) *Result {
	state = e.finishChain(state, StateFailed)
	metrics.RecordChain(kind.String(), string(FailureDeadline), time.Since(start))

	finalError := fmt.Sprintf("chain aborted: %v", ctx.Err())
	if ledger.Len() > 0 {
		finalError = fmt.Sprintf("%s; %s", finalError, ledger.Summarize())
	}
	e.log.Warn().
		Str("task", kind.String()).
		Str("state", state.String()).
		Int("attempts", ledger.Len()).
		Err(ctx.Err()).
		Msg("chain aborted by context")
	return &Result{
		Attempts:      ledger.Records(),
		FinalError:    finalError,
		FailureReason: FailureDeadline,
	}
}

func (e *Executor) advanceCandidate(from, to CandidateState, provider string) CandidateState {
	next, err := from.TransitionTo(to)
	if err != nil {
		e.log.Error().
			Str("provider", provider).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("invalid candidate state transition")
		return to
	}
	return next
}

func (e *Executor) finishChain(from, to State) State {
	next, err := from.TransitionTo(to)
	if err != nil {
		e.log.Error().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("invalid chain state transition")
		return to
	}
	return next
}

// sleepCtx waits for d or until the context dies, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
