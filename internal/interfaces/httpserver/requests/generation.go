// Package requests contains HTTP request DTOs and their binding validators.
package requests

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
)

// GenerateRequest is the body of POST /v1/generations.
type GenerateRequest struct {
	// Task selects the generation task kind, e.g. "text-to-image".
	Task string `json:"task" binding:"required,taskkind"`

	// Prompt is required for prompt-driven tasks; upscale, enhance and
	// lipsync take their input from the source media instead.
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`

	// SourceImageURL feeds image-conditioned tasks; SourceAudioURL feeds
	// lipsync.
	SourceImageURL string `json:"source_image_url,omitempty"`
	SourceAudioURL string `json:"source_audio_url,omitempty"`

	Width  int               `json:"width,omitempty" binding:"omitempty,min=0"`
	Height int               `json:"height,omitempty" binding:"omitempty,min=0"`
	Seed   int64             `json:"seed,omitempty"`
	Steps  int               `json:"steps,omitempty" binding:"omitempty,min=0"`
	Params map[string]string `json:"params,omitempty"`

	// Models restricts the fallback chain to these model ids, in order.
	// Unknown or unavailable ids are dropped.
	Models []string `json:"models,omitempty"`

	// TimeoutSeconds overrides the default execution deadline. Values above
	// the configured cap are clamped.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" binding:"omitempty,min=0"`
}

// ToDomain converts the request body into a generation.Request.
func (r *GenerateRequest) ToDomain() generation.Request {
	return generation.Request{
		Kind: r.Task,
		Payload: task.Payload{
			Prompt:         r.Prompt,
			NegativePrompt: r.NegativePrompt,
			SourceImageURL: r.SourceImageURL,
			SourceAudioURL: r.SourceAudioURL,
			Width:          r.Width,
			Height:         r.Height,
			Seed:           r.Seed,
			Steps:          r.Steps,
			Params:         r.Params,
		},
		Models:  r.Models,
		Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
	}
}

// RegisterValidators installs the custom binding validators the request
// DTOs use. Call once during engine setup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("taskkind", func(fl validator.FieldLevel) bool {
			return task.Kind(fl.Field().String()).Valid()
		})
	}
}
