package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decoder defines the interface for all audio format decoders
type Decoder interface {
	// ReadAll decodes the full file into a channel-separated buffer
	ReadAll() (*Buffer, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumChannels returns the number of audio channels (1=mono, 2=stereo)
	NumChannels() int

	// NumFrames returns the per-channel sample count of the file, which
	// may legitimately be 0 for an empty file. Returns -1 if the length
	// cannot be determined from the header.
	NumFrames() int64

	// Close closes the decoder and releases resources
	Close() error
}

// Open creates a decoder for the given file based on its extension
func Open(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return NewWAVDecoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filename)
	}
}

// ProbeFrames reads the file header and returns the per-channel sample
// count without decoding the audio payload (MP3 falls back to a decode
// scan when the header does not carry a length).
func ProbeFrames(filename string) (int64, error) {
	d, err := Open(filename)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	frames := d.NumFrames()
	if frames < 0 {
		return 0, fmt.Errorf("cannot determine frame count of %s", filename)
	}
	return frames, nil
}
