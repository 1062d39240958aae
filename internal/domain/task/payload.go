package task

import (
	"errors"
	"fmt"
	"strings"
)

// Payload carries the normalized parameters of one generation request.
// It is the uniform shape every backend adapter maps onto its own wire
// format; the registry and executor pass it through untouched.
type Payload struct {
	Prompt         string            `json:"prompt,omitempty"`
	NegativePrompt string            `json:"negative_prompt,omitempty"`
	SourceImageURL string            `json:"source_image_url,omitempty"`
	SourceAudioURL string            `json:"source_audio_url,omitempty"`
	Width          int               `json:"width,omitempty"`
	Height         int               `json:"height,omitempty"`
	Seed           int64             `json:"seed,omitempty"`
	Steps          int               `json:"steps,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
}

// Artifact is the product of a successful generation: a hosted URL from a
// cloud backend, or raw bytes with a mime type from a local worker.
type Artifact struct {
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Validate checks that the payload carries what the task kind needs.
func (p Payload) Validate(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown task kind %q", kind)
	}
	switch kind {
	case KindUpscale, KindEnhance, KindLipsync:
		// Prompt-free kinds: the source media is the input.
	default:
		if strings.TrimSpace(p.Prompt) == "" {
			return fmt.Errorf("prompt is required for task %q", kind)
		}
	}
	if kind.RequiresSourceImage() && strings.TrimSpace(p.SourceImageURL) == "" {
		return fmt.Errorf("source_image_url is required for task %q", kind)
	}
	if kind.RequiresSourceAudio() && strings.TrimSpace(p.SourceAudioURL) == "" {
		return fmt.Errorf("source_audio_url is required for task %q", kind)
	}
	if p.Width < 0 || p.Height < 0 {
		return errors.New("width and height must not be negative")
	}
	if p.Steps < 0 {
		return errors.New("steps must not be negative")
	}
	return nil
}

// Empty reports whether the artifact carries neither a URL nor data.
func (a *Artifact) Empty() bool {
	return a == nil || (a.URL == "" && len(a.Data) == 0)
}
