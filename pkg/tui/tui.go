// Package tui is a terminal viewer that animates a story graph's layout
// as it settles.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
)

// chrome is the number of rows used by the title, info and help lines
const chrome = 4

const maxLabel = 14

// Options configures a viewer
type Options struct {
	Title         string
	Layout        visualization.LayoutConfig
	FrameInterval time.Duration
	// Seed makes the first layout reproducible; reseeding increments it
	Seed     *int64
	Observer visualization.Observer
	Logger   logging.Logger
}

type storySimulation = visualization.Simulation[entitygraph.Node, entitygraph.Link]

// frameMsg asks for one tick of the generation that scheduled it
type frameMsg struct{ gen int }

// Model is the bubbletea model of the viewer
type Model struct {
	graph  *entitygraph.Graph
	opts   Options
	sim    *storySimulation
	latest *visualization.Latest
	seed   int64
	seeded bool

	// gen increases on every reload; frames from older generations are
	// dropped so only one frame chain drives the simulation
	gen int

	width, height int
	selected      int
	showFullHelp  bool
	keys          keyMap
	help          help.Model
}

// New creates a viewer for g. Nothing is laid out until the terminal size
// is known.
func New(g *entitygraph.Graph, opts Options) Model {
	if g == nil {
		g = &entitygraph.Graph{}
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = visualization.DefaultFrameInterval
	}
	if opts.Title == "" {
		opts.Title = "storymap"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	m := Model{
		graph:    g,
		opts:     opts,
		latest:   &visualization.Latest{},
		selected: -1,
		keys:     keys,
		help:     help.New(),
	}
	if opts.Seed != nil {
		m.seed, m.seeded = *opts.Seed, true
	}
	m.sim = m.newSimulation()
	return m
}

func (m Model) newSimulation() *storySimulation {
	opts := visualization.Options{
		Publisher: m.latest,
		Observer:  m.opts.Observer,
		Logger:    m.opts.Logger,
	}
	if m.seeded {
		opts.Rand = visualization.NewSeededRand(m.seed)
	}
	return visualization.NewSimulation[entitygraph.Node, entitygraph.Link](m.opts.Layout, opts)
}

// Viewport is the layout surface of the canvas in pixels
func (m Model) Viewport() visualization.Viewport {
	cols, rows := m.canvasSize()
	return visualization.Viewport{Width: float64(cols * CellWidth), Height: float64(rows * CellHeight)}
}

func (m Model) canvasSize() (int, int) {
	rows := m.height - chrome
	if rows < 0 {
		rows = 0
	}
	return m.width, rows
}

// Tick returns the current simulation tick
func (m Model) Tick() int { return m.sim.Tick() }

// State returns the simulation state
func (m Model) State() visualization.State { return m.sim.State() }

// Selected returns the selected node, if any
func (m Model) Selected() (entitygraph.Node, bool) {
	if m.selected < 0 || m.selected >= len(m.graph.Nodes) {
		return entitygraph.Node{}, false
	}
	return m.graph.Nodes[m.selected], true
}

func (m Model) frame() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.opts.FrameInterval, func(time.Time) tea.Msg {
		return frameMsg{gen: gen}
	})
}

// reload restarts the layout for the current graph and canvas
func (m *Model) reload() tea.Cmd {
	m.gen++
	state := m.sim.Load(m.graph.Nodes, m.graph.Links, m.Viewport())
	if state != visualization.StateRunning {
		return nil
	}
	return m.frame()
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, m.reload()

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if m.sim.Step() {
			return m, m.frame()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.sim.Halt()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			m.cycle(1)

		case key.Matches(msg, m.keys.Prev):
			m.cycle(-1)

		case key.Matches(msg, m.keys.Clear):
			m.selected = -1

		case key.Matches(msg, m.keys.Reseed):
			if m.seeded {
				m.seed++
			}
			m.sim.Halt()
			m.sim = m.newSimulation()
			return m, m.reload()

		case key.Matches(msg, m.keys.Help):
			m.showFullHelp = !m.showFullHelp
		}
	}
	return m, nil
}

func (m *Model) cycle(delta int) {
	n := len(m.graph.Nodes)
	if n == 0 {
		m.selected = -1
		return
	}
	if m.selected < 0 {
		if delta > 0 {
			m.selected = 0
		} else {
			m.selected = n - 1
		}
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

// View implements tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(m.header())
	s.WriteString("\n")
	s.WriteString(m.draw().render())
	s.WriteString("\n")
	s.WriteString(m.info())
	s.WriteString("\n")
	if m.showFullHelp {
		s.WriteString(helpStyle.Render(m.help.FullHelpView(m.keys.FullHelp())))
	} else {
		s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	}
	return s.String()
}

func (m Model) header() string {
	status := fmt.Sprintf("  %d nodes · %d links · tick %d · %s",
		len(m.graph.Nodes), len(m.graph.Links), m.sim.Tick(), m.sim.State())
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(m.opts.Title),
		statusStyle.Render(status))
}

// draw rasterizes the latest published snapshot
func (m Model) draw() *canvas {
	cols, rows := m.canvasSize()
	c := newCanvas(cols, rows)
	snap, ok := m.latest.Load()
	if !ok || cols == 0 || rows == 0 {
		return c
	}

	selectedID := ""
	if n, ok := m.Selected(); ok {
		selectedID = n.ID
	}

	for _, l := range m.graph.Links {
		src, dst := l.LayoutEndpoints()
		p0, ok0 := snap.Position(src)
		p1, ok1 := snap.Position(dst)
		if !ok0 || !ok1 {
			continue
		}
		c0, r0 := cellFor(p0, cols, rows)
		c1, r1 := cellFor(p1, cols, rows)
		p := paintEdge
		if selectedID != "" && (src == selectedID || dst == selectedID) {
			p = paintActiveEdge
		}
		c.dottedLine(c0, r0, c1, r1, p)
	}

	for _, n := range m.graph.Nodes {
		pos, ok := snap.Position(n.ID)
		if !ok {
			continue
		}
		col, row := cellFor(pos, cols, rows)
		p := paintNode
		if n.ID == selectedID {
			p = paintSelected
		}
		c.set(col, row, cell{r: nodeGlyph(n.Type), paint: p, kind: n.Type})
		c.text(col+2, row, truncate(n.ID, maxLabel), paintLabel, n.Type)
	}
	return c
}

// info describes the selected node, or the legend when nothing is selected
func (m Model) info() string {
	n, ok := m.Selected()
	if !ok {
		parts := make([]string, 0, len(typeGlyphs))
		for _, kind := range []string{entitygraph.TypeCharacter, entitygraph.TypeLocation, entitygraph.TypeOrganization} {
			parts = append(parts, nodeStyle(kind).Render(string(nodeGlyph(kind))+" "+kind))
		}
		return strings.Join(parts, "  ")
	}

	line := fmt.Sprintf("%s (%s)", n.ID, orDefault(n.Type, "untyped"))
	if len(n.Mentions) > 0 {
		line += fmt.Sprintf(" · %d mentions", len(n.Mentions))
	}
	if neighbors := m.graph.Neighbors(n.ID); len(neighbors) > 0 {
		line += " · " + strings.Join(neighbors, ", ")
	}
	if snap, ok := m.latest.Load(); ok {
		if p, ok := snap.Position(n.ID); ok {
			line += fmt.Sprintf(" · (%.0f, %.0f)", p.X, p.Y)
		}
	}
	return infoStyle.Render(truncate(line, m.width))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Run starts the viewer on the terminal and blocks until it quits
func Run(g *entitygraph.Graph, opts Options) error {
	p := tea.NewProgram(New(g, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
