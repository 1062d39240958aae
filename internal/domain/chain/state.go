package chain

import "errors"

// ErrInvalidTransition is returned when a state transition is not allowed.
var ErrInvalidTransition = errors.New("invalid state transition")

// CandidateState is the lifecycle state of one candidate while the
// executor works through its retry budget.
type CandidateState string

const (
	CandidatePending   CandidateState = "pending"    // Next attempt may start
	CandidateRetryWait CandidateState = "retry_wait" // Backing off after a transient failure

	// Terminal states
	CandidateSucceeded CandidateState = "succeeded" // Attempt produced an artifact
	CandidateExhausted CandidateState = "exhausted" // Retry budget spent or permanent failure
)

// CandidateTransitions defines the allowed candidate state transitions.
var CandidateTransitions = map[CandidateState][]CandidateState{
	CandidatePending:   {CandidateRetryWait, CandidateSucceeded, CandidateExhausted},
	CandidateRetryWait: {CandidatePending, CandidateExhausted},
	// Terminal states have no valid transitions
	CandidateSucceeded: {},
	CandidateExhausted: {},
}

// IsTerminal returns true if the candidate state is terminal.
func (s CandidateState) IsTerminal() bool {
	return s == CandidateSucceeded || s == CandidateExhausted
}

// String returns the string representation of the candidate state.
func (s CandidateState) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition to the target state is valid.
func (s CandidateState) CanTransitionTo(target CandidateState) bool {
	for _, t := range CandidateTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts the transition and returns an error if invalid.
func (s CandidateState) TransitionTo(target CandidateState) (CandidateState, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// State is the lifecycle state of a whole chain execution.
type State string

const (
	StateRunning State = "running"

	// Terminal states
	StateDone   State = "done"   // A candidate succeeded
	StateFailed State = "failed" // Exhausted, no candidates, or deadline hit
)

// StateTransitions defines the allowed chain state transitions.
var StateTransitions = map[State][]State{
	StateRunning: {StateDone, StateFailed},
	StateDone:    {},
	StateFailed:  {},
}

// IsTerminal returns true if the chain state is terminal.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// String returns the string representation of the chain state.
func (s State) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition to the target state is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range StateTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts the transition and returns an error if invalid.
func (s State) TransitionTo(target State) (State, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}
