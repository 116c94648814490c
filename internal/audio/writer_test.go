package audio

import (
	"math"
	"path/filepath"
	"testing"
)

// quantStep is the worst-case error of a 16-bit round trip
const quantStep = 2.0 / 32768.0

func sineBuffer(channels, frames, sampleRate int, amplitude float64) *Buffer {
	buf := NewBuffer(channels, frames, sampleRate)
	for c := range buf.Data {
		for i := range buf.Data[c] {
			buf.Data[c][i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		}
	}
	return buf
}

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	buf := sineBuffer(2, 1600, 16000, 0.5)

	if err := WriteWAV(path, buf, 16000); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}

	dec, err := NewWAVDecoder(path)
	if err != nil {
		t.Fatalf("Failed to open written WAV: %v", err)
	}
	defer dec.Close()

	if dec.SampleRate() != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", dec.SampleRate())
	}
	if dec.NumChannels() != 2 {
		t.Errorf("Expected 2 channels, got %d", dec.NumChannels())
	}
	if dec.NumFrames() != 1600 {
		t.Errorf("Expected 1600 frames, got %d", dec.NumFrames())
	}

	got, err := dec.ReadAll()
	if err != nil {
		t.Fatalf("Failed to decode written WAV: %v", err)
	}
	for c := range buf.Data {
		for i := range buf.Data[c] {
			if diff := math.Abs(got.Data[c][i] - buf.Data[c][i]); diff > quantStep {
				t.Fatalf("Sample [%d][%d] drifted by %v", c, i, diff)
			}
		}
	}
}

func TestWriteWAVNormalizesClipping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	buf := NewBuffer(1, 4, 16000)
	buf.Data[0] = []float64{2.0, -1.0, 0.5, 0.0}

	if err := WriteWAV(path, buf, 16000); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}

	dec, err := NewWAVDecoder(path)
	if err != nil {
		t.Fatalf("Failed to open written WAV: %v", err)
	}
	defer dec.Close()

	got, err := dec.ReadAll()
	if err != nil {
		t.Fatalf("Failed to decode written WAV: %v", err)
	}

	// Peak 2.0 scaled down to exactly 1.0, ratios preserved
	want := []float64{1.0, -0.5, 0.25, 0.0}
	for i, w := range want {
		if diff := math.Abs(got.Data[0][i] - w); diff > quantStep {
			t.Errorf("Sample %d: expected %v, got %v", i, w, got.Data[0][i])
		}
	}
	if peak := got.Peak(); peak > 1.0 {
		t.Errorf("Written peak exceeds 1.0: %v", peak)
	}
}

func TestWriteWAVNeverAmplifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet.wav")
	buf := sineBuffer(1, 800, 16000, 0.3)

	if err := WriteWAV(path, buf, 16000); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}

	dec, err := NewWAVDecoder(path)
	if err != nil {
		t.Fatalf("Failed to open written WAV: %v", err)
	}
	defer dec.Close()

	got, err := dec.ReadAll()
	if err != nil {
		t.Fatalf("Failed to decode written WAV: %v", err)
	}
	if peak := got.Peak(); math.Abs(peak-buf.Peak()) > quantStep {
		t.Errorf("Quiet audio was rescaled: wrote peak %v, read %v", buf.Peak(), peak)
	}
}

func TestProbeFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.wav")
	if err := WriteWAV(path, sineBuffer(2, 1234, 16000, 0.4), 16000); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}

	frames, err := ProbeFrames(path)
	if err != nil {
		t.Fatalf("Failed to probe: %v", err)
	}
	if frames != 1234 {
		t.Errorf("Expected 1234 frames, got %d", frames)
	}
}

func TestProbeFramesEmptyWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteWAV(path, NewBuffer(1, 0, 16000), 16000); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}

	// A zero-length file carries a valid frame count; only an absent
	// header length is a probe failure
	frames, err := ProbeFrames(path)
	if err != nil {
		t.Fatalf("Failed to probe empty file: %v", err)
	}
	if frames != 0 {
		t.Errorf("Expected 0 frames, got %d", frames)
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	if _, err := Open("recording.ogg"); err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}
}

func TestProbeMissingFile(t *testing.T) {
	if _, err := ProbeFrames(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
