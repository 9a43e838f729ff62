package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/precession/internal/metrics"
	"github.com/san-kum/precession/internal/sim"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model drives the loop from Bubble Tea ticks. Update runs on a single
// goroutine, which is the only place the loop is touched.
type Model struct {
	title      string
	loop       *sim.Loop
	scene      *Scene
	perihelion *metrics.Perihelion
	interval   time.Duration
	err        error
}

// NewModel builds the live view. The loop must have been created with
// scene as its renderer; perihelion may be nil.
func NewModel(title string, loop *sim.Loop, scene *Scene, perihelion *metrics.Perihelion, interval time.Duration) Model {
	return Model{
		title:      title,
		loop:       loop,
		scene:      scene,
		perihelion: perihelion,
		interval:   interval,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case TickMsg:
		if m.err != nil {
			return m, nil
		}
		if err := m.loop.Tick(); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

// Err is the integration error that stopped the view, if any.
func (m Model) Err() error { return m.err }

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.scene.Canvas().String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render("STOPPED") + "\n")
		s.WriteString(errorStyle.Render(wrap(m.err.Error(), 40)) + "\n\n")
	} else {
		s.WriteString("RUNNING\n\n")
	}

	if radii := m.scene.Radii(); len(radii) > 1 {
		chart := asciigraph.Plot(radii, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("radius"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	frame, _ := m.scene.Frame()
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.loop.Steps()))
	row("Time", fmt.Sprintf("%.2f", m.loop.Time()))
	row("Radius", fmt.Sprintf("%.4f", frame.State.Radius()))
	row("Speed", fmt.Sprintf("%.4f", frame.State.Speed()))
	row("Trail", fmt.Sprintf("%d/%d", frame.Count, m.loop.Trail().Cap()))

	p := m.loop.Params()
	s.WriteString("\nPARAMETERS\n")
	row("alpha", fmt.Sprintf("%.3g", p.Alpha))
	row("beta", fmt.Sprintf("%.3g", p.Beta))
	row("dt", fmt.Sprintf("%.4f", p.Dt))

	if m.perihelion != nil {
		s.WriteString("\nPERIHELION\n")
		row("Passages", fmt.Sprintf("%d", m.perihelion.Passages()))
		row("Advance/orbit", fmt.Sprintf("%+.4f rad", m.perihelion.Value()))
	}

	s.WriteString(helpStyle.Render("Q:Quit"))
	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func wrap(s string, n int) string {
	var b strings.Builder
	for len(s) > n {
		b.WriteString(s[:n] + "\n")
		s = s[n:]
	}
	b.WriteString(s)
	return b.String()
}

// NewDefaultScene is a scene sized to sit beside the stats panel in a
// 100-column terminal.
func NewDefaultScene() *Scene {
	return NewScene(width, height, defaultExtent)
}
