package dataset

import (
	"fmt"

	"github.com/soniclab/denoise/internal/audio"
	"github.com/soniclab/denoise/internal/manifest"
)

// Item pairs a decoded waveform with the path it was decoded from.
// Each Get call produces a fresh instance; decoded audio is not cached.
type Item struct {
	Waveform *audio.Buffer
	Path     string
}

// Dataset is a lazy, indexable view over a manifest. It declares the
// sample rate the consumer expects but does not resample; files with a
// different rate pass through unchanged.
type Dataset struct {
	entries    manifest.Manifest
	sampleRate int
}

// New wraps a manifest at the given target sample rate
func New(m manifest.Manifest, sampleRate int) *Dataset {
	return &Dataset{entries: m, sampleRate: sampleRate}
}

// Len returns the number of items
func (d *Dataset) Len() int {
	return len(d.entries)
}

// SampleRate returns the declared target sample rate
func (d *Dataset) SampleRate() int {
	return d.sampleRate
}

// Get decodes item i. The caller owns the returned item.
func (d *Dataset) Get(i int) (*Item, error) {
	entry := d.entries[i]
	dec, err := audio.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open item %d (%s): %w", i, entry.Path, err)
	}
	defer dec.Close()

	buf, err := dec.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode item %d (%s): %w", i, entry.Path, err)
	}
	return &Item{Waveform: buf, Path: entry.Path}, nil
}
