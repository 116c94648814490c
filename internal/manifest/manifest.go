package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soniclab/denoise/internal/audio"
)

// Entry describes one discovered audio file: its absolute path and the
// per-channel sample count probed from the file header. Entries are
// immutable once written to a cache.
type Entry struct {
	Path      string
	NumFrames int64
}

// Manifest is an ordered list of discovered audio files. Order is
// filesystem-walk order at discovery time; a cache preserves it.
type Manifest []Entry

// MarshalJSON encodes the entry as a 2-element [path, frames] array
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Path, e.NumFrames})
}

// UnmarshalJSON decodes a 2-element [path, frames] array
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.Path); err != nil {
		return fmt.Errorf("manifest entry path: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.NumFrames); err != nil {
		return fmt.Errorf("manifest entry frame count: %w", err)
	}
	return nil
}

// Discover walks basePath recursively, following symbolic links, and
// collects every file whose extension is in exts (lowercase, with dot).
// Each file's header is probed for its per-channel frame count; any
// unreadable file fails the whole discovery.
func Discover(basePath string, exts []string) (Manifest, error) {
	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = true
	}

	var paths []string
	if err := walk(basePath, extSet, &paths); err != nil {
		return nil, err
	}

	m := make(Manifest, 0, len(paths))
	for _, path := range paths {
		frames, err := audio.ProbeFrames(path)
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s: %w", path, err)
		}
		m = append(m, Entry{Path: path, NumFrames: frames})
	}
	return m, nil
}

// walk recurses through dir collecting matching file paths. os.Stat
// resolves symlinks, so linked directories are descended into.
func walk(dir string, exts map[string]bool, out *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		info, err := os.Stat(full)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", full, err)
		}
		if info.IsDir() {
			if err := walk(full, exts, out); err != nil {
				return err
			}
			continue
		}
		if exts[strings.ToLower(filepath.Ext(entry.Name()))] {
			abs, err := filepath.Abs(full)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", full, err)
			}
			*out = append(*out, abs)
		}
	}
	return nil
}

// Load reads a previously cached manifest verbatim, with no
// re-validation against the filesystem
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Save serializes the manifest to path as a JSON array of
// [path, frames] pairs
func (m Manifest) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// DiscoverOrLoad returns the cached manifest at cachePath when it
// exists; otherwise it discovers basePath, writes the cache, and
// returns the fresh manifest. Concurrent first-time generation against
// the same cachePath must be serialized by the caller.
func DiscoverOrLoad(basePath, cachePath string, exts []string) (Manifest, error) {
	if _, err := os.Stat(cachePath); err == nil {
		return Load(cachePath)
	}
	m, err := Discover(basePath, exts)
	if err != nil {
		return nil, err
	}
	if err := m.Save(cachePath); err != nil {
		return nil, err
	}
	return m, nil
}
