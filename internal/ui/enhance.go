package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tide colour palette 🌊
var (
	tideCyan    = lipgloss.Color("#00CED1") // Bright cyan
	tideBlue    = lipgloss.Color("#1E90FF") // Clear blue
	seafoamGray = lipgloss.Color("#5F9EA0") // Subtle text
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(tideCyan)

	statStyle = lipgloss.NewStyle().
			Foreground(tideBlue)

	fileStyle = lipgloss.NewStyle().
			Foreground(seafoamGray).
			Italic(true)

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(tideCyan)
)

// EnhanceProgress reports one completed file from the enhancement loop
type EnhanceProgress struct {
	Rank   int
	Done   int // files completed by this rank
	Total  int // files assigned to this rank
	Source string
	Output string
}

// EnhanceComplete signals that every rank has finished
type EnhanceComplete struct {
	Files    int
	OutDir   string
	Duration time.Duration
}

// EnhanceFailed aborts the UI with an error to report after teardown
type EnhanceFailed struct {
	Err error
}

// quitTimerMsg is sent when it's time to quit after showing completion
type quitTimerMsg struct{}

// enhanceModel implements the Bubbletea model for the enhancement loop
type enhanceModel struct {
	progress        progress.Model
	done            map[int]int // per-rank completed counts
	totals          map[int]int // per-rank assigned counts
	lastSource      string
	complete        *EnhanceComplete
	err             error
	startTime       time.Time
	width           int
	completionDelay time.Duration // Time to show completion screen
	quitting        bool
}

// NewEnhanceModel creates the progress UI for an enhancement run
func NewEnhanceModel() tea.Model {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)

	return &enhanceModel{
		progress:        p,
		done:            make(map[int]int),
		totals:          make(map[int]int),
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
	}
}

// Err returns the failure delivered via EnhanceFailed, if any
func (m *enhanceModel) Err() error {
	return m.err
}

func (m *enhanceModel) Init() tea.Cmd {
	return nil
}

func (m *enhanceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case EnhanceProgress:
		m.done[msg.Rank] = msg.Done
		m.totals[msg.Rank] = msg.Total
		m.lastSource = msg.Source
		return m, nil

	case EnhanceComplete:
		m.complete = &msg
		m.quitting = true
		return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
			return quitTimerMsg{}
		})

	case EnhanceFailed:
		m.err = msg.Err
		return m, tea.Quit

	case quitTimerMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m *enhanceModel) View() string {
	if m.err != nil {
		return ""
	}
	if m.complete != nil {
		return m.completionView()
	}

	var done, total int
	for rank := range m.totals {
		done += m.done[rank]
		total += m.totals[rank]
	}

	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Denoise 🌊 Generating enhanced files"))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n\n")
	b.WriteString(statStyle.Render(fmt.Sprintf("%d/%d files", done, total)))
	b.WriteString("  ")
	b.WriteString(statStyle.Render(fmt.Sprintf("elapsed %s", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n")
	if m.lastSource != "" {
		b.WriteString(fileStyle.Render(filepath.Base(m.lastSource)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *enhanceModel) completionView() string {
	var b strings.Builder
	b.WriteString(doneStyle.Render("✓ Enhancement complete"))
	b.WriteString("\n")
	b.WriteString(statStyle.Render(fmt.Sprintf("%d files written to %s", m.complete.Files, m.complete.OutDir)))
	b.WriteString("\n")
	b.WriteString(fileStyle.Render(fmt.Sprintf("took %s", m.complete.Duration.Round(time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}
