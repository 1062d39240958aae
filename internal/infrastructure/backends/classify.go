package backends

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
)

// maxErrorDetailLen bounds how much of an unstructured error body ends up in
// attempt records.
const maxErrorDetailLen = 256

// outcomeFromStatus folds an HTTP error response into a chain outcome,
// carrying the Retry-After hint through on rate limits.
func outcomeFromStatus(provider string, status int, body []byte, headers http.Header) chain.Outcome {
	err := fmt.Errorf("%s returned status %d: %s", provider, status, errorDetail(body))
	if status == http.StatusTooManyRequests {
		return chain.Transient(err, retryAfterHint(headers))
	}
	return classifyStatus(status, err)
}

// classifyStatus splits an HTTP status into the retry buckets: 408, 429 and
// the 5xx range are retryable, any other 4xx is a provider rejection that
// retrying against the same provider cannot fix.
func classifyStatus(status int, err error) chain.Outcome {
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return chain.Transient(err, 0)
	default:
		return chain.Permanent(err)
	}
}

// errorDetail digs the human-readable message out of the error body shapes
// the backends actually send: FastAPI's {"detail": ...}, OpenAI-style
// {"error": {"message": ...}} and Replicate's flat {"detail"/"title": ...}.
// Unparseable bodies fall back to a trimmed snippet.
func errorDetail(body []byte) string {
	var envelope struct {
		Detail string          `json:"detail"`
		Title  string          `json:"title"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if envelope.Title != "" {
			return envelope.Title
		}
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
				return flat
			}
		}
	}

	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return "no error detail"
	}
	if len(detail) > maxErrorDetailLen {
		detail = detail[:maxErrorDetailLen]
	}
	return detail
}

// retryAfterHint parses a Retry-After header in delay-seconds form. The
// HTTP-date form does not show up on inference APIs and is ignored.
func retryAfterHint(headers http.Header) time.Duration {
	raw := strings.TrimSpace(headers.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
