package enhance

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/soniclab/denoise/internal/audio"
	"github.com/soniclab/denoise/internal/config"
	"github.com/soniclab/denoise/internal/denoise"
	"github.com/soniclab/denoise/internal/distrib"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestWAV(t *testing.T, path string, frames int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	buf := audio.NewBuffer(1, frames, 16000)
	for i := range buf.Data[0] {
		buf.Data[0][i] = 0.4 * math.Sin(float64(i)/20)
	}
	if err := audio.WriteWAV(path, buf, 16000); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func baseConfig(noisyDir, outDir string) *config.Config {
	cfg := config.Default()
	cfg.NoisyDir = noisyDir
	cfg.OutDir = outDir
	cfg.NumWorkers = 2
	return &cfg
}

func TestRunEndToEnd(t *testing.T) {
	data := t.TempDir()
	writeTestWAV(t, filepath.Join(data, "noise", "speakerX", "001.wav"), 16000)
	writeTestWAV(t, filepath.Join(data, "noise", "speakerY", "002.wav"), 32000)
	outDir := filepath.Join(t.TempDir(), "out")

	cfg := baseConfig(data, outDir)
	var events []Progress
	err := Run(cfg, distrib.Single{}, denoise.Passthrough{}, func(p Progress) {
		events = append(events, p)
	}, quietLogger())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(events) != 2 {
		t.Errorf("Expected 2 progress events, got %d", len(events))
	}

	wantFrames := map[string]int64{
		filepath.Join(outDir, "noise", "speakerX", "001.wav"): 16000,
		filepath.Join(outDir, "noise", "speakerY", "002.wav"): 32000,
	}
	for path, frames := range wantFrames {
		dec, err := audio.NewWAVDecoder(path)
		if err != nil {
			t.Fatalf("Missing output %s: %v", path, err)
		}
		if dec.NumFrames() != frames {
			t.Errorf("%s: expected %d frames, got %d", path, frames, dec.NumFrames())
		}
		got, err := dec.ReadAll()
		dec.Close()
		if err != nil {
			t.Fatalf("Failed to decode %s: %v", path, err)
		}
		if peak := got.Peak(); peak > 1.0 {
			t.Errorf("%s: written peak %v exceeds 1.0", path, peak)
		}
	}
}

func TestRunStreamingEndToEnd(t *testing.T) {
	data := t.TempDir()
	writeTestWAV(t, filepath.Join(data, "noise", "spk", "a.wav"), 9000)
	outDir := filepath.Join(t.TempDir(), "out")

	cfg := baseConfig(data, outDir)
	cfg.Streaming = true

	if err := Run(cfg, distrib.Single{}, denoise.Passthrough{}, nil, quietLogger()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	dec, err := audio.NewWAVDecoder(filepath.Join(outDir, "noise", "spk", "a.wav"))
	if err != nil {
		t.Fatalf("Missing streaming output: %v", err)
	}
	defer dec.Close()
	if dec.NumFrames() != 9000 {
		t.Errorf("Streaming output has %d frames, expected 9000", dec.NumFrames())
	}
}

func TestRunNoInputIsCleanNoop(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	cfg := baseConfig("", outDir)

	err := Run(cfg, distrib.Single{}, nil, func(Progress) {
		t.Error("No-op run reported progress")
	}, quietLogger())
	if err != nil {
		t.Fatalf("Expected clean no-op, got %v", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("No-op run created the output directory")
	}
}

func TestRunMultiRank(t *testing.T) {
	data := t.TempDir()
	names := []string{"001", "002", "003", "004", "005"}
	for _, n := range names {
		writeTestWAV(t, filepath.Join(data, "noise", "spk"+n, n+".wav"), 1600)
	}
	outDir := filepath.Join(t.TempDir(), "out")

	const worldSize = 2
	worlds := distrib.NewGroup(worldSize)
	errs := make([]error, worldSize)
	var wg sync.WaitGroup
	for i, w := range worlds {
		wg.Add(1)
		go func(i int, w distrib.World) {
			defer wg.Done()
			cfg := baseConfig(data, outDir)
			errs[i] = Run(cfg, w, denoise.Passthrough{}, nil, quietLogger())
		}(i, w)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Rank %d failed: %v", i, err)
		}
	}
	for _, n := range names {
		path := filepath.Join(outDir, "noise", "spk"+n, n+".wav")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Missing output %s: %v", path, err)
		}
	}
}

func TestRunManifestGeneratedOnRankZero(t *testing.T) {
	data := t.TempDir()
	writeTestWAV(t, filepath.Join(data, "c", "r1", "a.wav"), 800)
	writeTestWAV(t, filepath.Join(data, "c", "r2", "b.wav"), 800)
	manifestPath := filepath.Join(t.TempDir(), "noisy.json")
	outDir := filepath.Join(t.TempDir(), "out")

	const worldSize = 2
	worlds := distrib.NewGroup(worldSize)
	errs := make([]error, worldSize)
	var wg sync.WaitGroup
	for i, w := range worlds {
		wg.Add(1)
		go func(i int, w distrib.World) {
			defer wg.Done()
			cfg := baseConfig("", outDir)
			cfg.NoisyJSON = manifestPath
			cfg.BasePath = data
			errs[i] = Run(cfg, w, denoise.Passthrough{}, nil, quietLogger())
		}(i, w)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Rank %d failed: %v", i, err)
		}
	}
	if _, err := os.Stat(manifestPath); err != nil {
		t.Errorf("Manifest cache was not generated: %v", err)
	}
	for _, p := range []string{
		filepath.Join(outDir, "c", "r1", "a.wav"),
		filepath.Join(outDir, "c", "r2", "b.wav"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Missing output %s: %v", p, err)
		}
	}
}

func TestRunDecodeFailureIsFatal(t *testing.T) {
	data := t.TempDir()
	writeTestWAV(t, filepath.Join(data, "c", "r", "good.wav"), 800)
	bad := filepath.Join(data, "c", "r", "bad.wav")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("Failed to write bad file: %v", err)
	}

	cfg := baseConfig(data, filepath.Join(t.TempDir(), "out"))
	// Discovery probes headers, so the corrupt file fails fast before
	// the processing loop even starts
	if err := Run(cfg, distrib.Single{}, denoise.Passthrough{}, nil, quietLogger()); err == nil {
		t.Error("Expected fatal error for corrupt input")
	}
}

// failingModel rejects every item, aborting the run on the first batch
type failingModel struct{}

func (failingModel) Process(*audio.Buffer) (*audio.Buffer, error) {
	return nil, errors.New("model rejected input")
}

func TestRunFailureReleasesLoaderGoroutines(t *testing.T) {
	data := t.TempDir()
	for i := 0; i < 6; i++ {
		writeTestWAV(t, filepath.Join(data, "c", "r", fmt.Sprintf("%03d.wav", i)), 800)
	}

	cfg := baseConfig(data, filepath.Join(t.TempDir(), "out"))
	cfg.NumWorkers = 3

	before := runtime.NumGoroutine()
	if err := Run(cfg, distrib.Single{}, failingModel{}, nil, quietLogger()); err == nil {
		t.Fatal("Expected fatal error from the failing model")
	}

	// The aborted run leaves the loader pipeline with in-flight decodes;
	// those goroutines must all finish rather than block forever
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before {
		t.Errorf("Leaked goroutines after failed run: %d before, %d after", before, got)
	}
}

func TestRunSpectralModel(t *testing.T) {
	data := t.TempDir()
	writeTestWAV(t, filepath.Join(data, "noise", "spk", "tone.wav"), 8000)
	outDir := filepath.Join(t.TempDir(), "out")

	cfg := baseConfig(data, outDir)
	cfg.Model = "spectral"

	// nil model exercises the resolver path
	if err := Run(cfg, distrib.Single{}, nil, nil, quietLogger()); err != nil {
		t.Fatalf("Run with spectral model failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "noise", "spk", "tone.wav")); err != nil {
		t.Errorf("Missing spectral output: %v", err)
	}
}
