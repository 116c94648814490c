package audio

// Buffer holds decoded PCM audio as per-channel float64 samples in the
// range [-1.0, 1.0]. Data[c][i] is sample i of channel c; every channel
// carries the same number of frames.
type Buffer struct {
	Data       [][]float64
	SampleRate int
}

// NewBuffer allocates a zeroed buffer with the given shape
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	return &Buffer{Data: data, SampleRate: sampleRate}
}

// Channels returns the number of audio channels
func (b *Buffer) Channels() int {
	return len(b.Data)
}

// Frames returns the per-channel sample count
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Peak returns the largest absolute sample value across all channels
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, ch := range b.Data {
		for _, s := range ch {
			if s > peak {
				peak = s
			} else if -s > peak {
				peak = -s
			}
		}
	}
	return peak
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Data:       make([][]float64, len(b.Data)),
		SampleRate: b.SampleRate,
	}
	for c, ch := range b.Data {
		out.Data[c] = make([]float64, len(ch))
		copy(out.Data[c], ch)
	}
	return out
}

// Scale multiplies every sample by factor, in place
func (b *Buffer) Scale(factor float64) {
	for _, ch := range b.Data {
		for i := range ch {
			ch[i] *= factor
		}
	}
}

// Concat joins buffers along the time axis. All inputs must share the
// same channel count; zero-frame buffers are allowed and contribute
// nothing.
func Concat(bufs ...*Buffer) *Buffer {
	var channels, frames, rate int
	for _, b := range bufs {
		if b == nil || b.Channels() == 0 {
			continue
		}
		channels = b.Channels()
		rate = b.SampleRate
		frames += b.Frames()
	}

	out := NewBuffer(channels, frames, rate)
	pos := 0
	for _, b := range bufs {
		if b == nil || b.Channels() == 0 {
			continue
		}
		for c := 0; c < channels; c++ {
			copy(out.Data[c][pos:], b.Data[c])
		}
		pos += b.Frames()
	}
	return out
}
