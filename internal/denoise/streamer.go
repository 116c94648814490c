package denoise

import (
	"fmt"

	"github.com/soniclab/denoise/internal/audio"
)

// Streaming layout: every model call sees streamFrameLength samples,
// of which the first streamStride are emitted; the remainder is
// look-ahead context carried forward to the next call.
const (
	streamFrameLength = 4096
	streamStride      = 1024
)

// sampleFIFO buffers pending per-channel samples between model calls
type sampleFIFO struct {
	buffer [][]float64
}

// push appends one chunk of per-channel samples
func (f *sampleFIFO) push(chunk *audio.Buffer) {
	if f.buffer == nil {
		f.buffer = make([][]float64, chunk.Channels())
	}
	for c, ch := range chunk.Data {
		f.buffer[c] = append(f.buffer[c], ch...)
	}
}

// frames returns the buffered per-channel sample count
func (f *sampleFIFO) frames() int {
	if len(f.buffer) == 0 {
		return 0
	}
	return len(f.buffer[0])
}

// window copies the first n buffered samples, zero-padded to n when
// fewer are buffered
func (f *sampleFIFO) window(n, sampleRate int) *audio.Buffer {
	out := audio.NewBuffer(len(f.buffer), n, sampleRate)
	for c, ch := range f.buffer {
		copy(out.Data[c], ch)
	}
	return out
}

// drop discards the first n buffered samples of every channel
func (f *sampleFIFO) drop(n int) {
	for c, ch := range f.buffer {
		if n >= len(ch) {
			f.buffer[c] = ch[:0]
			continue
		}
		copy(ch, ch[n:])
		f.buffer[c] = ch[:len(ch)-n]
	}
}

// Streamer adapts a one-shot model into a causal, chunked processor.
// It is constructed once per enhancement call, fed input sequentially,
// flushed exactly once to drain the trailing look-ahead, and then
// discarded. Output is deterministic: the state transition is a pure
// function of the buffered samples and the new input, so feeding the
// same signal twice reproduces the same emissions.
type Streamer struct {
	model       Model
	dry         float64
	frameLength int
	stride      int
	pending     sampleFIFO
	sampleRate  int
	flushed     bool
}

// NewStreamer binds a streamer to a model and a dry/wet coefficient.
// The dry/wet blend is applied internally to every emitted chunk.
func NewStreamer(model Model, dry float64) *Streamer {
	return &Streamer{
		model:       model,
		dry:         dry,
		frameLength: streamFrameLength,
		stride:      streamStride,
	}
}

// Feed pushes a chunk of input and returns whatever output can be
// emitted without future context. The returned buffer may hold zero
// frames while the look-ahead window is still filling.
func (s *Streamer) Feed(chunk *audio.Buffer) (*audio.Buffer, error) {
	if s.flushed {
		return nil, fmt.Errorf("streamer already flushed")
	}
	s.sampleRate = chunk.SampleRate
	s.pending.push(chunk)

	var emitted []*audio.Buffer
	for s.pending.frames() >= s.frameLength {
		out, err := s.processWindow(s.stride)
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, out)
		s.pending.drop(s.stride)
	}

	if len(emitted) == 0 {
		return audio.NewBuffer(chunk.Channels(), 0, s.sampleRate), nil
	}
	return audio.Concat(emitted...), nil
}

// Flush drains the buffered tail that could not be emitted without
// violating causality, zero-padding the final model call. The streamer
// must not be fed afterwards.
func (s *Streamer) Flush() (*audio.Buffer, error) {
	if s.flushed {
		return nil, fmt.Errorf("streamer already flushed")
	}
	s.flushed = true

	remaining := s.pending.frames()
	if remaining == 0 {
		return audio.NewBuffer(len(s.pending.buffer), 0, s.sampleRate), nil
	}

	// Emit the full tail from zero-padded windows, stride by stride,
	// so the last samples see the same framing a longer signal would
	var emitted []*audio.Buffer
	for s.pending.frames() > 0 {
		n := s.stride
		if left := s.pending.frames(); left < n {
			n = left
		}
		out, err := s.processWindow(n)
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, out)
		s.pending.drop(n)
	}
	return audio.Concat(emitted...), nil
}

// processWindow runs the model over one frame-length window and
// returns the first n output samples, blended with the dry signal
func (s *Streamer) processWindow(n int) (*audio.Buffer, error) {
	window := s.pending.window(s.frameLength, s.sampleRate)
	enhanced, err := s.model.Process(window)
	if err != nil {
		return nil, err
	}
	if enhanced.Frames() != window.Frames() {
		return nil, fmt.Errorf("model returned %d frames for a %d frame window", enhanced.Frames(), window.Frames())
	}

	out := audio.NewBuffer(window.Channels(), n, s.sampleRate)
	for c := range out.Data {
		for i := 0; i < n; i++ {
			out.Data[c][i] = (1-s.dry)*enhanced.Data[c][i] + s.dry*window.Data[c][i]
		}
	}
	return out, nil
}
