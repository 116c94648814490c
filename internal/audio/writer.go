package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const writeBitDepth = 16

// WriteWAV persists the buffer as 16-bit PCM WAV at the given sample
// rate. When the peak absolute amplitude exceeds 1.0 the whole signal
// is scaled down so the new peak is exactly 1.0; quiet audio is never
// amplified.
func WriteWAV(filename string, buf *Buffer, sampleRate int) error {
	scale := 1.0
	if peak := buf.Peak(); peak > 1.0 {
		scale = 1.0 / peak
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}

	channels := buf.Channels()
	frames := buf.Frames()
	maxVal := float64(goaudio.IntMaxSignedValue(writeBitDepth))

	intBuf := &goaudio.IntBuffer{
		Data: make([]int, frames*channels),
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: writeBitDepth,
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			s := buf.Data[c][i] * scale
			// Clamp: normalization leaves s in [-1, 1] but rounding
			// at +1.0 would overflow int16
			v := int(math.Round(s * maxVal))
			if v > int(maxVal) {
				v = int(maxVal)
			} else if v < -int(maxVal)-1 {
				v = -int(maxVal) - 1
			}
			intBuf.Data[i*channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, sampleRate, writeBitDepth, channels, 1)
	if err := enc.Write(intBuf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write PCM data to %s: %w", filename, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize %s: %w", filename, err)
	}
	return f.Close()
}
