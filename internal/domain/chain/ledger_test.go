package chain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
)

func record(provider string, outcome chain.OutcomeKind, errMsg string) chain.AttemptRecord {
	return chain.AttemptRecord{
		ProviderID:   provider,
		BackendID:    provider + "-backend",
		StartedAt:    time.Now(),
		Duration:     10 * time.Millisecond,
		Outcome:      outcome,
		ErrorMessage: errMsg,
	}
}

func TestLedger_AppendAndLen(t *testing.T) {
	ledger := chain.NewLedger()
	if ledger.Len() != 0 {
		t.Fatalf("new ledger Len() = %d, want 0", ledger.Len())
	}

	ledger.Append(record("a", chain.OutcomeTransient, "timeout"))
	ledger.Append(record("a", chain.OutcomeSuccess, ""))
	if ledger.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ledger.Len())
	}
}

func TestLedger_RecordsReturnsCopy(t *testing.T) {
	ledger := chain.NewLedger()
	ledger.Append(record("a", chain.OutcomeTransient, "timeout"))

	records := ledger.Records()
	records[0].ProviderID = "mutated"

	if got := ledger.Records()[0].ProviderID; got != "a" {
		t.Errorf("ledger mutated through returned copy: %q", got)
	}
}

func TestLedger_PerProvider(t *testing.T) {
	ledger := chain.NewLedger()
	ledger.Append(record("a", chain.OutcomeTransient, "connect timeout"))
	ledger.Append(record("a", chain.OutcomeTransient, "gateway error"))
	ledger.Append(record("b", chain.OutcomePermanent, "invalid prompt"))
	ledger.Append(record("a", chain.OutcomeTransient, "still down"))

	summaries := ledger.PerProvider()
	if len(summaries) != 2 {
		t.Fatalf("PerProvider() = %d entries, want 2", len(summaries))
	}

	// First-attempt order, not alphabetical.
	if summaries[0].ProviderID != "a" || summaries[1].ProviderID != "b" {
		t.Errorf("provider order = [%s, %s], want [a, b]", summaries[0].ProviderID, summaries[1].ProviderID)
	}
	if summaries[0].Attempts != 3 {
		t.Errorf("provider a attempts = %d, want 3", summaries[0].Attempts)
	}
	if summaries[0].LastError != "still down" {
		t.Errorf("provider a last error = %q, want latest", summaries[0].LastError)
	}
	if summaries[1].LastOutcome != chain.OutcomePermanent {
		t.Errorf("provider b outcome = %v, want permanent", summaries[1].LastOutcome)
	}
}

func TestLedger_Summarize(t *testing.T) {
	ledger := chain.NewLedger()
	ledger.Append(record("sdxl-turbo", chain.OutcomeTransient, "connect timeout"))
	ledger.Append(record("sdxl-turbo", chain.OutcomeTransient, "connect timeout"))
	ledger.Append(record("flux-schnell", chain.OutcomePermanent, "content policy refusal"))

	summary := ledger.Summarize()
	for _, want := range []string{"sdxl-turbo", "flux-schnell", "connect timeout", "content policy refusal"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summarize() = %q, missing %q", summary, want)
		}
	}
}

func TestLedger_SummarizeEmpty(t *testing.T) {
	if got := chain.NewLedger().Summarize(); got != "no attempts" {
		t.Errorf("empty Summarize() = %q, want %q", got, "no attempts")
	}
}
