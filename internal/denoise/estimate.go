package denoise

import (
	"fmt"

	"github.com/soniclab/denoise/internal/audio"
)

// Estimate produces the enhanced waveform for one full signal, same
// shape as the input.
//
// Batch mode runs the model in a single forward call and then applies
// the dry/wet blend: (1-dry)*enhanced + dry*noisy. Streaming mode
// pushes the whole signal through a fresh Streamer, which chunks it
// causally and applies the blend internally per emitted chunk.
// dry is in [0, 1]: 0 is pure model output, 1 returns the input
// unchanged.
func Estimate(model Model, noisy *audio.Buffer, dry float64, streaming bool) (*audio.Buffer, error) {
	if dry < 0 || dry > 1 {
		return nil, fmt.Errorf("dry coefficient %v out of range [0, 1]", dry)
	}

	if streaming {
		streamer := NewStreamer(model, dry)
		head, err := streamer.Feed(noisy)
		if err != nil {
			return nil, fmt.Errorf("streaming feed: %w", err)
		}
		tail, err := streamer.Flush()
		if err != nil {
			return nil, fmt.Errorf("streaming flush: %w", err)
		}
		return audio.Concat(head, tail), nil
	}

	enhanced, err := model.Process(noisy)
	if err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}
	if enhanced.Frames() != noisy.Frames() || enhanced.Channels() != noisy.Channels() {
		return nil, fmt.Errorf("model changed signal shape: got [%d, %d], want [%d, %d]",
			enhanced.Channels(), enhanced.Frames(), noisy.Channels(), noisy.Frames())
	}

	out := audio.NewBuffer(noisy.Channels(), noisy.Frames(), noisy.SampleRate)
	for c := range out.Data {
		for i := range out.Data[c] {
			out.Data[c][i] = (1-dry)*enhanced.Data[c][i] + dry*noisy.Data[c][i]
		}
	}
	return out, nil
}
