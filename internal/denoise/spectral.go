package denoise

import (
	"fmt"
	"math"
	"sort"

	"github.com/argusdusty/gofft"

	"github.com/soniclab/denoise/internal/audio"
)

// Spectral gate parameters
const (
	fftSize = 512 // STFT frame length (power of 2 for gofft)
	hopSize = 256 // 50% overlap - periodic Hann sums to unity

	overSubtraction = 1.5 // noise floor multiplier in the gain rule
	gainFloor       = 0.1 // minimum per-bin gain, keeps residual natural
	noisePercentile = 10  // percentile of per-bin magnitudes taken as noise floor
)

// SpectralGate is a short-time spectral-subtraction denoiser. Each
// channel is framed with a Hann window, the per-bin noise floor is
// estimated from the quietest frames of the signal itself, and bins
// close to that floor are attenuated before overlap-add resynthesis.
// Output shape always equals input shape.
type SpectralGate struct {
	window []float64
}

// NewSpectralGate creates the denoiser with default parameters
func NewSpectralGate() *SpectralGate {
	// Periodic Hann: 50% overlap-add reconstructs the interior exactly
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/fftSize))
	}
	gofft.Prepare(fftSize)
	return &SpectralGate{window: window}
}

// Process denoises every channel independently
func (g *SpectralGate) Process(noisy *audio.Buffer) (*audio.Buffer, error) {
	out := audio.NewBuffer(noisy.Channels(), noisy.Frames(), noisy.SampleRate)
	for c, ch := range noisy.Data {
		if err := g.processChannel(ch, out.Data[c]); err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
	}
	return out, nil
}

func (g *SpectralGate) processChannel(in, out []float64) error {
	n := len(in)
	if n == 0 {
		return nil
	}

	numFrames := 1
	if n > fftSize {
		numFrames = 1 + (n-fftSize+hopSize-1)/hopSize
	}

	// Forward STFT over zero-padded frames
	spectra := make([][]complex128, numFrames)
	mags := make([][]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * hopSize
		frame := make([]complex128, fftSize)
		for i := 0; i < fftSize; i++ {
			if idx := start + i; idx < n {
				frame[i] = complex(in[idx]*g.window[i], 0)
			}
		}
		if err := gofft.FFT(frame); err != nil {
			return fmt.Errorf("FFT failed: %w", err)
		}
		mag := make([]float64, fftSize)
		for i, v := range frame {
			mag[i] = math.Hypot(real(v), imag(v))
		}
		spectra[f] = frame
		mags[f] = mag
	}

	noise := noiseFloor(mags)

	// Attenuate bins near the noise floor. Gains depend only on bin
	// magnitudes, which are conjugate-symmetric for real input, so the
	// resynthesized frames stay real.
	for f := 0; f < numFrames; f++ {
		for i := range spectra[f] {
			gain := 1.0
			if mags[f][i] > 0 {
				gain = 1 - overSubtraction*noise[i]/mags[f][i]
			}
			if gain < gainFloor {
				gain = gainFloor
			}
			spectra[f][i] *= complex(gain, 0)
		}
		if err := gofft.IFFT(spectra[f]); err != nil {
			return fmt.Errorf("IFFT failed: %w", err)
		}
	}

	// Overlap-add back to the time domain
	for f := 0; f < numFrames; f++ {
		start := f * hopSize
		for i := 0; i < fftSize; i++ {
			if idx := start + i; idx < n {
				out[idx] += real(spectra[f][i])
			}
		}
	}
	return nil
}

// noiseFloor estimates per-bin noise magnitude as a low percentile of
// the bin's magnitude across all frames
func noiseFloor(mags [][]float64) []float64 {
	numFrames := len(mags)
	noise := make([]float64, fftSize)
	column := make([]float64, numFrames)

	for i := 0; i < fftSize; i++ {
		for f := 0; f < numFrames; f++ {
			column[f] = mags[f][i]
		}
		sort.Float64s(column)
		noise[i] = column[numFrames*noisePercentile/100]
	}
	return noise
}
