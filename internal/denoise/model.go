package denoise

import (
	"fmt"

	"github.com/soniclab/denoise/internal/audio"
)

// Model is the inference capability the pipeline requires: one forward
// call mapping a noisy waveform to an enhanced waveform of the same
// shape. Implementations must be safe to call repeatedly from a single
// goroutine; they are not required to be safe for concurrent use.
type Model interface {
	Process(noisy *audio.Buffer) (*audio.Buffer, error)
}

// Resolve returns the named model. An empty name selects the default
// spectral-gate denoiser.
func Resolve(name string) (Model, error) {
	switch name {
	case "", "spectral":
		return NewSpectralGate(), nil
	case "passthrough":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("unknown model %q (available: spectral, passthrough)", name)
	}
}

// Passthrough returns the input unchanged. Useful for checking the
// pipeline plumbing end to end without touching the audio.
type Passthrough struct{}

// Process returns a copy of the input
func (Passthrough) Process(noisy *audio.Buffer) (*audio.Buffer, error) {
	return noisy.Clone(), nil
}
