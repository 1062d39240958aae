package task

import "fmt"

// Kind identifies one generation task offered by the dashboard.
type Kind string

const (
	KindTextToImage  Kind = "text-to-image"
	KindImageToImage Kind = "image-to-image"
	KindTextToVideo  Kind = "text-to-video"
	KindImageToVideo Kind = "image-to-video"
	KindUpscale      Kind = "upscale"
	KindEnhance      Kind = "enhance"
	KindLogo         Kind = "logo"
	KindLipsync      Kind = "lipsync"
)

// kinds holds every valid Kind in declaration order.
var kinds = []Kind{
	KindTextToImage,
	KindImageToImage,
	KindTextToVideo,
	KindImageToVideo,
	KindUpscale,
	KindEnhance,
	KindLogo,
	KindLipsync,
}

// Kinds returns all valid task kinds in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Parse converts a string into a Kind, rejecting unknown values.
func Parse(value string) (Kind, error) {
	k := Kind(value)
	if !k.Valid() {
		return "", fmt.Errorf("unknown task kind %q", value)
	}
	return k, nil
}

// Valid reports whether the kind is one of the supported task kinds.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// RequiresSourceImage reports whether the task consumes an input image.
func (k Kind) RequiresSourceImage() bool {
	switch k {
	case KindImageToImage, KindImageToVideo, KindUpscale, KindEnhance, KindLipsync:
		return true
	default:
		return false
	}
}

// RequiresSourceAudio reports whether the task consumes an input audio track.
func (k Kind) RequiresSourceAudio() bool {
	return k == KindLipsync
}
