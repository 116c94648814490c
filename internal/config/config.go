package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for the enhancement runner
const (
	DefaultOutDir     = "enhanced"
	DefaultSampleRate = 16000
	DefaultNumWorkers = 10
	DefaultWorldSize  = 1
)

// Config holds the full configuration of an enhancement run
type Config struct {
	// Input source: exactly one of NoisyDir or NoisyJSON (a manifest
	// cache) may be set. Neither set means the run is a clean no-op.
	NoisyDir  string `yaml:"noisy_dir"`
	NoisyJSON string `yaml:"noisy_json"`

	// BasePath is the directory to discover when NoisyJSON is
	// requested but does not exist on disk yet
	BasePath string `yaml:"base_path"`

	OutDir string `yaml:"out_dir"`
	Model  string `yaml:"model"`

	// Dry is the dry/wet knob coefficient: 0 is pure model output,
	// 1 is the unchanged input signal
	Dry float64 `yaml:"dry"`

	SampleRate int  `yaml:"sample_rate"`
	NumWorkers int  `yaml:"num_workers"`
	WorldSize  int  `yaml:"world_size"`
	Streaming  bool `yaml:"streaming"`

	// Extensions filters discovery; entries are lowercase with a
	// leading dot
	Extensions []string `yaml:"extensions"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		OutDir:     DefaultOutDir,
		Model:      "spectral",
		SampleRate: DefaultSampleRate,
		NumWorkers: DefaultNumWorkers,
		WorldSize:  DefaultWorldSize,
		Extensions: []string{".wav"},
	}
}

// Load reads a YAML config file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &config, nil
}

// Validate checks the configuration before any processing starts
func (c *Config) Validate() error {
	if c.NoisyDir != "" && c.NoisyJSON != "" {
		return fmt.Errorf("noisy_dir and noisy_json are mutually exclusive")
	}

	if c.NoisyJSON != "" && c.BasePath == "" {
		if _, err := os.Stat(c.NoisyJSON); os.IsNotExist(err) {
			return fmt.Errorf("base_path is required to generate missing manifest %s", c.NoisyJSON)
		}
	}

	if c.Dry < 0 || c.Dry > 1 {
		return fmt.Errorf("dry must be in [0, 1], got %v", c.Dry)
	}

	if c.SampleRate < 1 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}

	if c.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1, got %d", c.NumWorkers)
	}

	if c.WorldSize < 1 {
		return fmt.Errorf("world_size must be at least 1, got %d", c.WorldSize)
	}

	if c.OutDir == "" {
		return fmt.Errorf("out_dir cannot be empty")
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions cannot be empty")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}

	return nil
}
