// Package tui renders a live top-down orrery in the terminal. The model owns
// its simtime.Controller; bubbletea's update loop is the only goroutine that
// touches it.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	frame  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

// SeekStep is how far [ and ] move the clock.
const SeekStep units.Days = 30

const tickInterval = 50 * time.Millisecond

// Model is the bubbletea model of the terminal orrery.
type Model struct {
	ctrl     *simtime.Controller
	start    simtime.Config
	provider propagation.EphemerisProvider

	orbits   map[catalog.BodyID][]units.VecAU
	styles   map[catalog.BodyID]lipgloss.Style
	extentAU float64

	lastTick time.Time
	width    int
	height   int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// New creates a model whose clock starts from cfg.
func New(provider propagation.EphemerisProvider, cfg simtime.Config) Model {
	m := Model{
		ctrl:     simtime.NewController(cfg),
		start:    cfg,
		provider: provider,
		orbits:   make(map[catalog.BodyID][]units.VecAU),
		styles:   make(map[catalog.BodyID]lipgloss.Style),
		width:    100,
		height:   40,
	}
	for _, id := range catalog.All() {
		m.styles[id] = lipgloss.NewStyle().Foreground(lipgloss.Color(catalog.ColorOf(id).Hex()))
		el := catalog.ElementsOf(id)
		if el.Fixed() {
			continue
		}
		m.orbits[id] = propagation.OrbitPathFor(id, propagation.QualityLow, 1)
		m.extentAU = math.Max(m.extentAU, float64(el.Aphelion()))
	}
	return m
}

// Run starts the program on the terminal's alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// State returns the clock state.
func (m Model) State() simtime.State {
	return m.ctrl.Snapshot()
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			m.ctrl.Update(float64(now.Sub(m.lastTick)) / float64(time.Millisecond))
		}
		m.lastTick = now
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		if m.ctrl.IsPlaying() {
			m.ctrl.Pause()
		} else {
			m.ctrl.Play()
		}
	case "+", "=":
		m.ctrl.SetSpeed(m.ctrl.Speed() * 2)
	case "-", "_":
		m.ctrl.SetSpeed(m.ctrl.Speed() / 2)
	case "]", "right":
		m.ctrl.SetDate(m.ctrl.NowJD().Add(SeekStep))
	case "[", "left":
		m.ctrl.SetDate(m.ctrl.NowJD().Add(-SeekStep))
	case "t":
		m.ctrl.SetDate(simtime.DateToJulianDay(time.Now()))
	case "r":
		m.ctrl = simtime.NewController(m.start)
	}
	return m, nil
}

type cell struct {
	r     rune
	style *lipgloss.Style
}

// project maps an ecliptic position onto the canvas. Distances are square-root
// compressed so the inner planets stay visible next to Neptune; terminal cells
// are about twice as tall as wide.
func (m Model) project(p units.VecAU, cw, ch int) (col, row int) {
	x, y := float64(p.X), float64(p.Y)
	r := math.Hypot(x, y)
	if r == 0 || m.extentAU == 0 {
		return cw / 2, ch / 2
	}
	s := math.Sqrt(r/m.extentAU) / r
	radius := math.Min(float64(cw)/4, float64(ch)/2) - 0.5
	col = cw/2 + int(math.Round(x*s*radius*2))
	row = ch/2 - int(math.Round(y*s*radius))
	return col, row
}

func (m Model) canvas(positions map[catalog.BodyID]units.VecKm) string {
	cw := m.width - 4
	ch := m.height - len(catalog.All()) - 9
	if cw < 40 {
		cw = 40
	}
	if ch < 15 {
		ch = 15
	}

	grid := make([][]cell, ch)
	for i := range grid {
		grid[i] = make([]cell, cw)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}
	put := func(col, row int, r rune, st *lipgloss.Style) {
		if row >= 0 && row < ch && col >= 0 && col < cw {
			grid[row][col] = cell{r: r, style: st}
		}
	}

	for _, id := range catalog.All() {
		for _, p := range m.orbits[id] {
			col, row := m.project(p, cw, ch)
			put(col, row, '·', &dimmer)
		}
	}
	for _, id := range catalog.All() {
		st := m.styles[id]
		col, row := m.project(positions[id].AU(), cw, ch)
		glyph := []rune(catalog.Get(id).Name)[0]
		if id == catalog.Sun {
			glyph = '☉'
		}
		put(col, row, glyph, &st)
	}

	var b strings.Builder
	for i, line := range grid {
		for _, c := range line {
			if c.style != nil {
				b.WriteString(c.style.Render(string(c.r)))
			} else {
				b.WriteRune(c.r)
			}
		}
		if i < len(grid)-1 {
			b.WriteByte('\n')
		}
	}
	return frame.Render(b.String())
}

func (m Model) View() string {
	st := m.ctrl.Snapshot()
	positions := make(map[catalog.BodyID]units.VecKm)
	for _, id := range catalog.All() {
		positions[id] = m.provider.State(id, st.JD).Position
	}

	var b strings.Builder

	statusIcon, statusText := yellow.Render("○"), yellow.Render("paused")
	if st.Playing {
		statusIcon, statusText = green.Render("●"), green.Render("playing")
	}
	b.WriteString(fmt.Sprintf(" %s %s  %s  %s  %s\n",
		statusIcon, cyan.Render("orrery"), statusText,
		white.Render(m.ctrl.CurrentDate().Format("2006-01-02 15:04 MST")),
		dim.Render(fmt.Sprintf("JD %.4f  ×%g (%.2f d/s)", float64(st.JD), st.Speed, st.Speed*simtime.DaysPerSecond)),
	))

	b.WriteString(m.canvas(positions))
	b.WriteByte('\n')

	earth := positions[catalog.Earth]
	b.WriteString(dim.Render(fmt.Sprintf(" %-8s %10s %9s %12s %8s", "body", "r (AU)", "lon (°)", "from Earth", "light")))
	b.WriteByte('\n')
	for _, id := range catalog.All() {
		p := positions[id]
		name := m.styles[id].Render(fmt.Sprintf("%-8s", catalog.Get(id).Name))
		lon := math.Atan2(float64(p.Y), float64(p.X)) * 180 / math.Pi
		if lon < 0 {
			lon += 360
		}
		rel := transform.Relative(earth, p)
		line := fmt.Sprintf(" %s %10.4f %9.2f %9.4f AU %8s", name, float64(p.Norm().AU()), lon, float64(rel.Range.AU()), rel.LightTime.Round(time.Second))
		if id == catalog.Earth {
			line = fmt.Sprintf(" %s %10.4f %9.2f %12s %8s", name, float64(p.Norm().AU()), lon, "-", "-")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(dim.Render(" space play/pause  +/- speed  [/] ±30 days  t today  r reset  q quit"))
	return b.String()
}
