package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder implements Decoder for MP3 files
type MP3Decoder struct {
	decoder     *mp3.Decoder
	file        *os.File
	sampleRate  int
	numChannels int
}

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder:     decoder,
		file:        f,
		sampleRate:  decoder.SampleRate(),
		numChannels: 2, // go-mp3 always outputs stereo
	}, nil
}

// ReadAll decodes the full file, de-interleaving stereo into two channels
func (d *MP3Decoder) ReadAll() (*Buffer, error) {
	// go-mp3 outputs interleaved 16-bit stereo: L0 R0 L1 R1 ...
	raw, err := io.ReadAll(d.decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	frames := len(raw) / 4
	buf := NewBuffer(2, frames, d.sampleRate)

	for i := 0; i < frames; i++ {
		left := int16(raw[i*4]) | (int16(raw[i*4+1]) << 8)
		right := int16(raw[i*4+2]) | (int16(raw[i*4+3]) << 8)
		buf.Data[0][i] = float64(left) / 32768.0
		buf.Data[1][i] = float64(right) / 32768.0
	}

	return buf, nil
}

// SampleRate returns the sample rate
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *MP3Decoder) NumChannels() int {
	return d.numChannels
}

// NumFrames returns the per-channel sample count. go-mp3 reports the
// decoded byte length for seekable inputs; 4 bytes per stereo frame.
// Unseekable or length-less inputs report -1.
func (d *MP3Decoder) NumFrames() int64 {
	n := d.decoder.Length()
	if n <= 0 {
		return -1
	}
	return n / 4
}

// Close closes the decoder and releases resources
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
