// Package tui is an interactive stepper over a simulator.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fsim/internal/control"
	"github.com/san-kum/fsim/internal/sim"
	"github.com/sirupsen/logrus"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	frame  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

// StatusHook keeps the last warning logged by the simulator so the stepper
// can show it instead of letting it scribble over the screen.
type StatusHook struct {
	mu   sync.Mutex
	last string
}

func (h *StatusHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.WarnLevel, logrus.ErrorLevel}
}

func (h *StatusHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = e.Message
	return nil
}

// Take returns and clears the last message.
func (h *StatusHook) Take() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.last
	h.last = ""
	return s
}

// NewStatusLogger returns a logger that writes nowhere and reports warnings
// to the returned hook.
func NewStatusLogger() (*logrus.Logger, *StatusHook) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	hook := &StatusHook{}
	log.AddHook(hook)
	return log, hook
}

type Options struct {
	Name string
	// Step is how far one key press advances.
	Step float64
	// Manual, when set, is driven by the arrow keys.
	Manual *control.Manual
	Force  float64
	Status *StatusHook
}

// Stepper advances the simulator one sample at a time and keeps its own
// table, appending only when a step actually happened.
type Stepper struct {
	sim    *sim.Simulator
	table  *sim.Table
	opts   Options
	canvas *canvas

	columns []string
	column  int
	playing bool
	status  string
	err     error
}

func New(s *sim.Simulator, opts Options) *Stepper {
	if opts.Force == 0 {
		opts.Force = 1
	}
	m := &Stepper{
		sim:    s,
		table:  sim.NewTable(),
		opts:   opts,
		canvas: newCanvas(),
	}
	m.reinit()
	return m
}

func (m *Stepper) Table() *sim.Table { return m.table }

func (m *Stepper) reinit() {
	m.sim.Reinit()
	m.table.Reset()
	m.sim.Push(m.table, true)
	m.canvas.resetTrail()
	m.columns = m.table.Columns()
	if m.column >= len(m.columns) {
		m.column = 0
	}
	m.playing = false
	m.err = nil
}

// advance steps to target and records the sample when the step happened.
func (m *Stepper) advance(target float64) bool {
	ok, err := m.sim.StepUntil(target)
	if err != nil {
		m.err = err
		m.playing = false
		return false
	}
	m.sim.Push(m.table, ok)
	if m.opts.Status != nil {
		if msg := m.opts.Status.Take(); msg != "" {
			m.status = msg
		}
	}
	if !ok {
		m.playing = false
	}
	return ok
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Stepper) Init() tea.Cmd { return nil }

func (m *Stepper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if !m.playing {
			return m, nil
		}
		m.advance(m.sim.Time() + m.opts.Step)
		if m.playing {
			return m, tick()
		}
	}
	return m, nil
}

func (m *Stepper) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "n":
		m.advance(m.sim.Time() + m.opts.Step)
	case "p":
		m.playing = !m.playing && m.err == nil
		if m.playing {
			return m, tick()
		}
	case "e":
		_, tf := m.sim.Integrator().Problem().TSpan()
		m.advance(tf + m.opts.Step)
	case "r":
		m.reinit()
		m.status = "reinitialized"
	case "tab":
		if len(m.columns) > 0 {
			m.column = (m.column + 1) % len(m.columns)
		}
	case "left", "h":
		m.push(-m.opts.Force)
	case "right", "l":
		m.push(m.opts.Force)
	case "0":
		m.push(0)
	}
	return m, nil
}

func (m *Stepper) push(f float64) {
	if m.opts.Manual == nil {
		return
	}
	if err := m.opts.Manual.Set(f); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("input u=%.2f", f)
}

func (m *Stepper) View() string {
	var b strings.Builder

	phase := m.sim.Phase()
	phaseStyle := green
	if phase == sim.Terminated {
		phaseStyle = yellow
	}
	_, tf := m.sim.Integrator().Problem().TSpan()
	b.WriteString(cyan.Render(m.opts.Name))
	b.WriteString(dim.Render(fmt.Sprintf("  t=%.3f / %.3f  ", m.sim.Time(), tf)))
	b.WriteString(phaseStyle.Render(phase.String()))
	b.WriteString(dim.Render(fmt.Sprintf("  rows=%d", m.table.Len())))
	b.WriteString("\n")

	b.WriteString(frame.Render(m.canvas.draw(m.opts.Name, m.sim.Integrator().State())))
	b.WriteString("\n")

	if plot := m.plot(); plot != "" {
		b.WriteString(plot)
		b.WriteString("\n")
	} else if !m.sim.Loggable() {
		b.WriteString(dim.Render("  no telemetry for this model"))
		b.WriteString("\n")
	}

	if row, ok := m.table.Last(); ok {
		b.WriteString(white.Render("  " + row.Sol.String()))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(red.Render("  " + m.err.Error()))
	case m.status != "":
		b.WriteString(yellow.Render("  " + m.status))
	}
	b.WriteString("\n")

	help := "space step  p play  e end  r reset  tab column  q quit"
	if m.opts.Manual != nil {
		help += "  ←/→ push  0 release"
	}
	b.WriteString(dim.Render("  " + help))
	return b.String()
}

func (m *Stepper) plot() string {
	if len(m.columns) == 0 || m.table.Len() < 2 {
		return ""
	}
	name := m.columns[m.column]
	data := m.table.Series(name)
	if len(data) > canvasWidth {
		data = data[len(data)-canvasWidth:]
	}
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
	}
	return asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(canvasWidth),
		asciigraph.Caption(name),
	)
}
