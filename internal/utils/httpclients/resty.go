// Package httpclients builds the resty clients used by backend adapters,
// with debug logging of every outbound call.
package httpclients

import (
	"context"
	"time"

	"resty.dev/v3"

	"github.com/pixelforge-ai/generation-api/internal/infrastructure/logger"
)

type startedAtKey struct{}

// NewClient returns a resty client named for log correlation. Retries stay
// disabled; the chain executor owns retry policy.
func NewClient(clientName string) *resty.Client {
	client := resty.New()
	client.SetRetryCount(0)
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), startedAtKey{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		startedAt, _ := r.Request.Context().Value(startedAtKey{}).(time.Time)

		log.Debug().
			Str("client", clientName).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(startedAt)).
			Msg("HTTP client request")
		return nil
	})
	return client
}
