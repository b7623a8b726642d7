package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/atici/MicMonitor/internal/audio"
	"github.com/atici/MicMonitor/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	openStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	closedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D14D41")).
			Bold(true)
)

const (
	meterWidth   = 30
	meterFloorDB = -60.0
	refreshRate  = 50 * time.Millisecond
)

type keyMap struct {
	Quit key.Binding
}

type tickMsg time.Time

// MonitorModel is the Bubble Tea model for the live gate status display.
type MonitorModel struct {
	engine *audio.Engine
	cfg    *config.Config
	levels audio.Levels
	keys   keyMap
}

// NewMonitor creates the live status model for a running engine.
func NewMonitor(engine *audio.Engine, cfg *config.Config) MonitorModel {
	return MonitorModel{
		engine: engine,
		cfg:    cfg,
		keys: keyMap{
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Run blocks on the live status display until the user quits.
func Run(engine *audio.Engine, cfg *config.Config) error {
	_, err := tea.NewProgram(NewMonitor(engine, cfg)).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the refresh ticker.
func (m MonitorModel) Init() tea.Cmd {
	return tick()
}

// Update handles key presses and level refreshes.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	case tickMsg:
		m.levels = m.engine.Levels()
		return m, tick()
	}
	return m, nil
}

// View renders the session banner, the level meters, and the gate state.
func (m MonitorModel) View() string {
	gc := m.engine.GateConfig()

	var b strings.Builder
	b.WriteString(titleStyle.Render("MicMonitor - Ultra-Low Latency Audio Gate"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  Preset:      %s\n", m.cfg.Gate.Preset)
	fmt.Fprintf(&b, "  Threshold:   %.0f dB\n", gc.ThresholdDB)
	fmt.Fprintf(&b, "  Volume:      %+.1f dB (%.0f%%)\n", gc.VolumeDB, m.cfg.VolumePercent)
	fmt.Fprintf(&b, "  Latency:     %.2f ms\n", gc.Latency()*1000)
	fmt.Fprintf(&b, "  Block size:  %d samples\n", gc.BlockSize)
	fmt.Fprintf(&b, "  Sample rate: %d Hz\n\n", gc.SampleRate)

	rmsDB := meterFloorDB
	if m.levels.RMS > 0 {
		rmsDB = math.Max(20*math.Log10(m.levels.RMS), meterFloorDB)
	}
	fmt.Fprintf(&b, "  Input  %s %6.1f dB\n", meter((rmsDB-meterFloorDB)/-meterFloorDB), rmsDB)
	fmt.Fprintf(&b, "  Gain   %s %6.2f\n\n", meter(m.levels.Gain), m.levels.Gain)

	state := closedStyle.Render("CLOSED")
	if m.levels.GateOpen {
		state = openStyle.Render("OPEN")
	}
	fmt.Fprintf(&b, "  Gate: %s\n\n", state)

	b.WriteString(infoStyle.Render("  q to quit"))
	b.WriteString("\n")

	return b.String()
}

// meter renders a horizontal bar for a normalized value in [0,1].
func meter(norm float64) string {
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	filled := int(norm*meterWidth + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}
