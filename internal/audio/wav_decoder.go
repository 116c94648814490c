package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder implements Decoder for WAV files
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	numChans   int
	numFrames  int64
}

// NewWAVDecoder creates a new WAV decoder
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", filename)
	}

	// Position at the PCM chunk so PCMLen reflects the payload size
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	bytesPerSample := int64(decoder.BitDepth / 8)
	numChannels := int64(decoder.NumChans)
	numFrames := decoder.PCMLen() / (bytesPerSample * numChannels)

	return &WAVDecoder{
		decoder:    decoder,
		file:       f,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   int(decoder.BitDepth),
		numChans:   int(decoder.NumChans),
		numFrames:  numFrames,
	}, nil
}

// ReadAll decodes the full file, de-interleaving into per-channel data
func (d *WAVDecoder) ReadAll() (*Buffer, error) {
	intBuf := &audio.IntBuffer{
		Data: make([]int, int(d.numFrames)*d.numChans),
		Format: &audio.Format{
			NumChannels: d.numChans,
			SampleRate:  d.sampleRate,
		},
	}

	n, err := d.decoder.PCMBuffer(intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}

	frames := n / d.numChans
	buf := NewBuffer(d.numChans, frames, d.sampleRate)
	maxVal := float64(audio.IntMaxSignedValue(d.bitDepth))

	for i := 0; i < frames; i++ {
		for c := 0; c < d.numChans; c++ {
			buf.Data[c][i] = float64(intBuf.Data[i*d.numChans+c]) / maxVal
		}
	}

	return buf, nil
}

// SampleRate returns the sample rate
func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *WAVDecoder) NumChannels() int {
	return d.numChans
}

// NumFrames returns the per-channel sample count
func (d *WAVDecoder) NumFrames() int64 {
	return d.numFrames
}

// Close closes the decoder and releases resources
func (d *WAVDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
