package backends

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
)

func TestOutcomeFromStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers http.Header
		want    chain.OutcomeKind
		hint    time.Duration
	}{
		{name: "rate limited with hint", status: 429, headers: http.Header{"Retry-After": []string{"5"}}, want: chain.OutcomeTransient, hint: 5 * time.Second},
		{name: "rate limited without hint", status: 429, want: chain.OutcomeTransient},
		{name: "service unavailable", status: 503, want: chain.OutcomeTransient},
		{name: "gateway timeout", status: 504, want: chain.OutcomeTransient},
		{name: "request timeout", status: 408, want: chain.OutcomeTransient},
		{name: "bad request", status: 400, want: chain.OutcomePermanent},
		{name: "unauthorized", status: 401, want: chain.OutcomePermanent},
		{name: "unprocessable", status: 422, want: chain.OutcomePermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := tt.headers
			if headers == nil {
				headers = http.Header{}
			}
			got := outcomeFromStatus("test", tt.status, nil, headers)
			if got.Kind != tt.want {
				t.Errorf("outcomeFromStatus(%d) = %s, want %s", tt.status, got.Kind, tt.want)
			}
			if got.RetryAfter != tt.hint {
				t.Errorf("RetryAfter = %v, want %v", got.RetryAfter, tt.hint)
			}
		})
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "fastapi detail", body: `{"detail": "model is still loading"}`, want: "model is still loading"},
		{name: "nested error message", body: `{"error": {"message": "safety rejection"}}`, want: "safety rejection"},
		{name: "flat error string", body: `{"error": "boom"}`, want: "boom"},
		{name: "problem title", body: `{"title": "Invalid version"}`, want: "Invalid version"},
		{name: "plain text", body: "upstream exploded", want: "upstream exploded"},
		{name: "empty body", body: "", want: "no error detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("errorDetail(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestErrorDetail_TruncatesLongBodies(t *testing.T) {
	body := strings.Repeat("x", 2*maxErrorDetailLen)
	if got := errorDetail([]byte(body)); len(got) != maxErrorDetailLen {
		t.Errorf("len = %d, want %d", len(got), maxErrorDetailLen)
	}
}

func TestRetryAfterHint(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "seconds", value: "7", want: 7 * time.Second},
		{name: "missing", value: "", want: 0},
		{name: "not a number", value: "soon", want: 0},
		{name: "negative", value: "-1", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.value != "" {
				headers.Set("Retry-After", tt.value)
			}
			if got := retryAfterHint(headers); got != tt.want {
				t.Errorf("retryAfterHint(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "image/png", want: "image/png"},
		{in: "Image/PNG; charset=binary", want: "image/png"},
		{in: " application/json ", want: "application/json"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := mediaType(tt.in); got != tt.want {
			t.Errorf("mediaType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinEndpoint(t *testing.T) {
	if got := joinEndpoint("http://host:8600/", "/health"); got != "http://host:8600/health" {
		t.Errorf("joinEndpoint() = %q", got)
	}
	if got := joinEndpoint("http://host:8600", "/health"); got != "http://host:8600/health" {
		t.Errorf("joinEndpoint() = %q", got)
	}
}
