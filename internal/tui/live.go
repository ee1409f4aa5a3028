// Package tui renders a live terminal view of a running cavity
// trajectory: per-site intensities plotted as the integration proceeds.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/m-ruiz/polsim/internal/sweep"
)

const historyCapacity = 240

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

type TickMsg time.Time

// Model steps the runner a batch at a time and keeps a rolling intensity
// history per site.
type Model struct {
	runner        *sweep.Runner
	stepsPerFrame int
	running       bool
	site          int
	history       [][]float64
	steps         int
	err           error
}

func NewModel(runner *sweep.Runner, stepsPerFrame int) Model {
	sites := runner.Cavity().NumPolaritons()
	history := make([][]float64, sites)
	for i := range history {
		history[i] = make([]float64, 0, historyCapacity)
	}
	return Model{
		runner:        runner,
		stepsPerFrame: stepsPerFrame,
		running:       true,
		history:       history,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			m.site = (m.site + 1) % m.runner.Cavity().NumPolaritons()
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		if err := m.runner.Advance(); err != nil {
			m.err = err
			return
		}
		m.steps++
	}

	x := m.runner.Cavity().State()
	for site := range m.history {
		re, im := x[2*site], x[2*site+1]
		m.history[site] = append(m.history[site], re*re+im*im)
		if len(m.history[site]) > historyCapacity {
			m.history[site] = m.history[site][1:]
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	cav := m.runner.Cavity()
	b.WriteString(headerStyle.Render("polsim live"))
	b.WriteByte('\n')

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("integration failed: %v", m.err)))
		b.WriteByte('\n')
	}

	series := m.history[m.site]
	if len(series) > 1 {
		graph := asciigraph.Plot(series,
			asciigraph.Height(12),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("|psi_%d|^2", m.site)),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteByte('\n')
	}

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteByte('\n')
	}
	row("time", fmt.Sprintf("%.4f", cav.Time()))
	row("step size", fmt.Sprintf("%.3g", cav.TimeStep()))
	row("steps", fmt.Sprintf("%d", m.steps))
	row("site", fmt.Sprintf("%d / %d", m.site, cav.NumPolaritons()-1))
	if len(series) > 0 {
		row("intensity", fmt.Sprintf("%.6f", series[len(series)-1]))
	}

	b.WriteString(helpStyle.Render("space pause · tab next site · q quit"))
	b.WriteByte('\n')
	return b.String()
}

// Run starts the live view and blocks until the user quits.
func Run(runner *sweep.Runner, stepsPerFrame int) error {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	p := tea.NewProgram(NewModel(runner, stepsPerFrame))
	_, err := p.Run()
	return err
}
