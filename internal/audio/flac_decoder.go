package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	numChannels int
	numFrames   int64
}

// NewFLACDecoder creates a new FLAC decoder
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	// Parse FLAC stream - reads signature and StreamInfo block
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	// A StreamInfo sample count of 0 means the encoder did not record
	// the total, not that the stream is empty
	numFrames := int64(stream.Info.NSamples)
	if numFrames == 0 {
		numFrames = -1
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		numChannels: int(stream.Info.NChannels),
		numFrames:   numFrames,
	}, nil
}

// ReadAll decodes every FLAC frame into a channel-separated buffer
func (d *FLACDecoder) ReadAll() (*Buffer, error) {
	capacity := d.numFrames
	if capacity < 0 {
		capacity = 0
	}
	data := make([][]float64, d.numChannels)
	for c := range data {
		data[c] = make([]float64, 0, capacity)
	}

	for {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// Normalize to [-1.0, 1.0]; FLAC supports 4-32 bits per sample
		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		for c, subframe := range frame.Subframes {
			if c >= d.numChannels {
				break
			}
			for _, s := range subframe.Samples {
				data[c] = append(data[c], float64(s)/maxVal)
			}
		}
	}

	return &Buffer{Data: data, SampleRate: d.sampleRate}, nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// NumFrames returns the per-channel sample count from StreamInfo, or
// -1 when the encoder did not record a total
func (d *FLACDecoder) NumFrames() int64 {
	return d.numFrames
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
