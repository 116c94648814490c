package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/soniclab/denoise/internal/cli"
	"github.com/soniclab/denoise/internal/config"
	"github.com/soniclab/denoise/internal/distrib"
	"github.com/soniclab/denoise/internal/enhance"
	"github.com/soniclab/denoise/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	NoisyDir   string   `help:"Directory including noisy audio files"`
	NoisyJSON  string   `name:"noisy-json" help:"JSON manifest of noisy audio files"`
	BasePath   string   `help:"Directory to scan when the manifest file does not exist yet"`
	OutDir     string   `help:"Directory for enhanced audio files" default:"enhanced"`
	Model      string   `help:"Denoising model: spectral or passthrough" default:"spectral"`
	Dry        float64  `help:"Dry/wet knob coefficient: 0 is only model output, 1 only input signal" default:"0"`
	SampleRate int      `help:"Output sample rate" default:"16000"`
	NumWorkers int      `help:"Parallel decode workers per rank" default:"10"`
	WorldSize  int      `help:"Number of ranks to partition the file list across" default:"1"`
	Streaming  bool     `help:"Causal streaming inference instead of one-shot batch"`
	Exts       []string `help:"Audio extensions matched during discovery" default:".wav"`
	Config     string   `help:"YAML config file; explicit flags take precedence"`
	NoUI       bool     `help:"Disable the progress UI, log plain lines instead"`
	Verbose    bool     `short:"v" help:"More logging"`
	Version    bool     `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("denoise"),
		kong.Description("Batch and streaming speech enhancement - generate denoised audio files."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	cfg, err := buildConfig()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	level := slog.LevelInfo
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger, !CLI.NoUI); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// buildConfig layers the optional YAML file over the defaults, then
// explicit CLI flags over both
func buildConfig() (*config.Config, error) {
	cfg := config.Default()
	if CLI.Config != "" {
		loaded, err := config.Load(CLI.Config)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	def := config.Default()
	if CLI.NoisyDir != "" {
		cfg.NoisyDir = CLI.NoisyDir
	}
	if CLI.NoisyJSON != "" {
		cfg.NoisyJSON = CLI.NoisyJSON
	}
	if CLI.BasePath != "" {
		cfg.BasePath = CLI.BasePath
	}
	if CLI.OutDir != def.OutDir {
		cfg.OutDir = CLI.OutDir
	}
	if CLI.Model != def.Model {
		cfg.Model = CLI.Model
	}
	if CLI.Dry != 0 {
		cfg.Dry = CLI.Dry
	}
	if CLI.SampleRate != def.SampleRate {
		cfg.SampleRate = CLI.SampleRate
	}
	if CLI.NumWorkers != def.NumWorkers {
		cfg.NumWorkers = CLI.NumWorkers
	}
	if CLI.WorldSize != def.WorldSize {
		cfg.WorldSize = CLI.WorldSize
	}
	if CLI.Streaming {
		cfg.Streaming = true
	}
	if len(CLI.Exts) != 1 || CLI.Exts[0] != ".wav" {
		cfg.Extensions = CLI.Exts
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// run executes every rank of the world as a goroutine, wiring their
// progress either into the Bubbletea UI or into plain log lines
func run(cfg *config.Config, logger *slog.Logger, withUI bool) error {
	start := time.Now()
	worlds := distrib.NewGroup(cfg.WorldSize)
	var files atomic.Int64

	if !withUI {
		err := runRanks(cfg, worlds, logger, func(p enhance.Progress) {
			files.Add(1)
			logger.Info("enhanced",
				"rank", p.Rank, "done", p.Done, "total", p.Total, "output", p.Output)
		})
		if err != nil {
			return err
		}
		if files.Load() == 0 {
			cli.PrintWarning("no files were enhanced; provide --noisy-dir or --noisy-json")
			return nil
		}
		cli.PrintRunSummary(
			fmt.Sprintf("%d", files.Load()),
			cfg.OutDir,
			cli.FormatDuration(time.Since(start)),
		)
		cli.PrintSuccess(fmt.Sprintf("Done! Output: %s", cfg.OutDir))
		return nil
	}

	p := tea.NewProgram(ui.NewEnhanceModel())

	go func() {
		err := runRanks(cfg, worlds, logger, func(pr enhance.Progress) {
			files.Add(1)
			p.Send(ui.EnhanceProgress{
				Rank:   pr.Rank,
				Done:   pr.Done,
				Total:  pr.Total,
				Source: pr.Source,
				Output: pr.Output,
			})
		})
		if err != nil {
			p.Send(ui.EnhanceFailed{Err: err})
			return
		}
		p.Send(ui.EnhanceComplete{
			Files:    int(files.Load()),
			OutDir:   cfg.OutDir,
			Duration: time.Since(start),
		})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	if fm, ok := finalModel.(interface{ Err() error }); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

// runRanks blocks until every rank finishes and returns the first
// failure, if any
func runRanks(cfg *config.Config, worlds []distrib.World, logger *slog.Logger, progress enhance.ProgressFunc) error {
	var wg sync.WaitGroup
	errs := make([]error, len(worlds))

	for i, world := range worlds {
		wg.Add(1)
		go func(i int, world distrib.World) {
			defer wg.Done()
			errs[i] = enhance.Run(cfg, world, nil, progress, logger)
		}(i, world)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
