package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	canvasWidth  = 60
	canvasHeight = 24
	DefaultFPS   = 60

	// A parameter at zero has nothing to scale; raising it starts here.
	paramSeed = 1e-3
	// Trail segments this faint are not drawn.
	trailCutoff = 0.05
)

type TickMsg time.Time

// Model drives a simulation interactively.
type Model struct {
	driver    *sim.Driver
	modelName string
	fps       int
	canvas    *Canvas
	running   bool
	paramKeys []string
	selected  int
	lastErr   error
}

func NewModel(d *sim.Driver, modelName string, fps int) Model {
	if fps <= 0 {
		fps = DefaultFPS
	}
	keys := make([]string, 0)
	for k := range d.Params() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := NewCanvas(canvasWidth, canvasHeight)
	c.Reach = reach(d.Snapshot())

	return Model{
		driver:    d,
		modelName: modelName,
		fps:       fps,
		canvas:    c,
		running:   true,
		paramKeys: keys,
	}
}

func reach(s sim.Snapshot) float64 {
	r := 0.0
	for _, arm := range s.Arms {
		r += arm.Length
	}
	if r <= 0 {
		return 1
	}
	return r * 1.05
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		}
	case TickMsg:
		if m.running {
			if err := m.driver.Step(); err != nil {
				m.lastErr = err
				m.running = false
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	newVal := m.driver.Params()[key] * factor
	if newVal == 0 && factor > 1 {
		newVal = paramSeed
	}
	if err := m.driver.SetParam(key, newVal); err != nil {
		m.lastErr = err
		return
	}
	m.canvas.Reach = reach(m.driver.Snapshot())
}

func (m *Model) reset() {
	if err := m.driver.Reset(); err != nil {
		m.lastErr = err
		return
	}
	m.lastErr = nil
	m.running = true
	m.canvas.Reach = reach(m.driver.Snapshot())
}

func (m Model) Running() bool { return m.running }
func (m Model) Err() error    { return m.lastErr }

// Selected names the parameter the arrow keys adjust.
func (m Model) Selected() string {
	if len(m.paramKeys) == 0 {
		return ""
	}
	return m.paramKeys[m.selected]
}

func (m Model) draw(snap sim.Snapshot) {
	m.canvas.Clear()
	for i := range snap.Bobs {
		m.canvas.Trail(m.driver.Trail(i), trailCutoff)
	}
	var from geom.Vec
	for _, bob := range snap.Bobs {
		m.canvas.Line(from, bob)
		from = bob
	}
}

// angles returns the first arm's angle over the recorded history.
func angles(hist []sim.Snapshot) []float64 {
	out := make([]float64, 0, len(hist))
	for _, s := range hist {
		if len(s.Arms) > 0 {
			out = append(out, s.Arms[0].Angle)
		}
	}
	return out
}

func (m Model) View() string {
	snap := m.driver.Snapshot()
	m.draw(snap)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.modelName)) + "\n")
	if m.running {
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d", snap.Frame)) + "\n")
	for i, arm := range snap.Arms {
		s.WriteString(labelStyle.Render(fmt.Sprintf("Arm %d", i+1)) +
			valueStyle.Render(fmt.Sprintf("θ %.3f  L %.1f", arm.Angle, arm.Length)) + "\n")
		if i < len(snap.Bobs) {
			b := snap.Bobs[i]
			s.WriteString(labelStyle.Render("") + valueStyle.Render(fmt.Sprintf("(%.1f, %.1f)", b.X, b.Y)) + "\n")
		}
	}
	if e, ok := m.driver.Energy(); ok {
		s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.3f", e)) + "\n")
	}

	if hist := angles(m.driver.History()); len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("θ"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	params := m.driver.Params()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %.4g", k, params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	if m.lastErr != nil {
		s.WriteString("\n" + errorStyle.Render(m.lastErr.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\nTab:Select ↑↓:Tune"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
