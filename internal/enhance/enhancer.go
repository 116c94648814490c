package enhance

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soniclab/denoise/internal/config"
	"github.com/soniclab/denoise/internal/dataset"
	"github.com/soniclab/denoise/internal/denoise"
	"github.com/soniclab/denoise/internal/distrib"
	"github.com/soniclab/denoise/internal/manifest"
)

// Progress reports one completed item of the enhancement loop
type Progress struct {
	Rank   int
	Index  int    // dataset index of the item
	Done   int    // items completed by this rank so far
	Total  int    // items assigned to this rank
	Source string // input path
	Output string // written path
}

// ProgressFunc receives incremental progress; may be nil
type ProgressFunc func(Progress)

// Run drives the enhancement pipeline for one rank: resolve the
// dataset, partition it, synchronize output-directory creation across
// the world, then decode, estimate, and save every assigned item in
// order. Every failure is fatal and surfaced immediately; there are no
// retries and no skip-and-continue.
//
// A nil model resolves cfg.Model. Returning nil with no work performed
// is the deliberate no-op for a config with no input source.
func Run(cfg *config.Config, world distrib.World, model denoise.Model, progress ProgressFunc, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	if model == nil {
		var err error
		if model, err = denoise.Resolve(cfg.Model); err != nil {
			return err
		}
	}

	m, ok, err := resolveManifest(cfg, world, log)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	ds := dataset.New(m, cfg.SampleRate)
	loader, err := distrib.NewLoader(ds, 1, world.Rank(), world.WorldSize(), cfg.NumWorkers)
	if err != nil {
		return err
	}

	// Only rank 0 creates the output root; every rank waits for it
	// before writing anything
	if world.Rank() == 0 {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			world.Barrier()
			return fmt.Errorf("failed to create output directory %s: %w", cfg.OutDir, err)
		}
	}
	world.Barrier()

	log.Debug("generating enhanced files",
		"rank", world.Rank(), "items", loader.Len(), "streaming", cfg.Streaming)

	done := 0
	batches := loader.Batches()
	for batch := range batches {
		if batch.Err != nil {
			go drain(batches)
			return fmt.Errorf("rank %d: %w", world.Rank(), batch.Err)
		}

		estimate, err := denoise.Estimate(model, batch.Item.Waveform, cfg.Dry, cfg.Streaming)
		if err != nil {
			go drain(batches)
			return fmt.Errorf("rank %d failed on %s: %w", world.Rank(), batch.Item.Path, err)
		}

		dest, err := Save(estimate, batch.Item.Path, cfg.OutDir, cfg.SampleRate)
		if err != nil {
			go drain(batches)
			return fmt.Errorf("rank %d: %w", world.Rank(), err)
		}

		done++
		if progress != nil {
			progress(Progress{
				Rank:   world.Rank(),
				Index:  batch.Index,
				Done:   done,
				Total:  loader.Len(),
				Source: batch.Item.Path,
				Output: dest,
			})
		}
	}

	return nil
}

// drain discards the remainder of an aborted iteration so the loader's
// feeder and collector goroutines can run to completion and exit
func drain(batches <-chan distrib.Batch) {
	for range batches {
	}
}

// resolveManifest builds the run's manifest from the configured source.
// When a manifest file is requested but absent, only rank 0 generates
// it; the group barriers before the other ranks load the fresh cache.
// ok is false when no input source is configured at all.
func resolveManifest(cfg *config.Config, world distrib.World, log *slog.Logger) (manifest.Manifest, bool, error) {
	switch {
	case cfg.NoisyJSON != "":
		if world.Rank() == 0 {
			m, err := manifest.DiscoverOrLoad(cfg.BasePath, cfg.NoisyJSON, cfg.Extensions)
			world.Barrier()
			return m, true, err
		}
		world.Barrier()
		m, err := manifest.Load(cfg.NoisyJSON)
		return m, true, err

	case cfg.NoisyDir != "":
		m, err := manifest.Discover(cfg.NoisyDir, cfg.Extensions)
		return m, true, err

	default:
		log.Warn("no input was provided by either noisy_dir or noisy_json, skipping enhancement")
		return nil, false, nil
	}
}
