package chain

import (
	"fmt"
	"strings"
)

// Ledger is the append-only attempt log of a single chain execution.
// It lives and dies with the execution; nothing aggregates across requests.
type Ledger struct {
	records []AttemptRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{records: make([]AttemptRecord, 0, 4)}
}

// Append adds one attempt record.
func (l *Ledger) Append(r AttemptRecord) {
	l.records = append(l.records, r)
}

// Records returns a copy of all attempt records in append order.
func (l *Ledger) Records() []AttemptRecord {
	out := make([]AttemptRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of recorded attempts.
func (l *Ledger) Len() int {
	return len(l.records)
}

// ProviderSummary aggregates the ledger entries of one provider.
type ProviderSummary struct {
	ProviderID  string      `json:"provider_id"`
	Attempts    int         `json:"attempts"`
	LastOutcome OutcomeKind `json:"last_outcome"`
	LastError   string      `json:"last_error,omitempty"`
}

// PerProvider groups the ledger by provider, in order of first attempt.
func (l *Ledger) PerProvider() []ProviderSummary {
	index := make(map[string]int, len(l.records))
	out := make([]ProviderSummary, 0, len(l.records))

	for _, r := range l.records {
		i, seen := index[r.ProviderID]
		if !seen {
			i = len(out)
			index[r.ProviderID] = i
			out = append(out, ProviderSummary{ProviderID: r.ProviderID})
		}
		out[i].Attempts++
		out[i].LastOutcome = r.Outcome
		out[i].LastError = r.ErrorMessage
	}
	return out
}

// Summarize renders a compact per-provider account of the execution,
// naming every attempted provider and its final error.
func (l *Ledger) Summarize() string {
	summaries := l.PerProvider()
	if len(summaries) == 0 {
		return "no attempts"
	}

	parts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.LastOutcome == OutcomeSuccess {
			parts = append(parts, fmt.Sprintf("%s: %s after %d attempt(s)", s.ProviderID, s.LastOutcome, s.Attempts))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d attempt(s), last error: %s", s.ProviderID, s.Attempts, s.LastError))
	}
	return strings.Join(parts, "; ")
}
