package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/vovakirdan/nodewar/internal/runner"
	"github.com/vovakirdan/nodewar/internal/world"
)

// Watch layout constants
const (
	eventLogSize    = 12 // Event lines kept for the log panel
	minTableHeight  = 5
	reservedRows    = 8 // Header, help, and margins
	frameBufferSize = 8
)

// WatchModel is the Bubble Tea model that follows a runner.
type WatchModel struct {
	runner   *runner.Runner
	sub      *runner.Subscription
	title    string
	readOnly bool

	frame  runner.Frame
	recent []world.GameEvent

	table table.Model
	help  help.Model
	keys  WatchKeyMap
	theme Theme

	width    int
	height   int
	ended    bool
	quitting bool
	err      error // Last failed manual step
}

// NewWatchModel creates a watch screen for r. sub may be nil, in which case
// the model subscribes itself. A read-only model cannot pause or step.
func NewWatchModel(r *runner.Runner, sub *runner.Subscription, title string, readOnly bool) WatchModel {
	if sub == nil {
		sub = r.Subscribe(frameBufferSize)
	}
	keys := DefaultWatchKeyMap()
	if readOnly {
		keys = keys.readOnly()
	}
	w := r.World()

	m := WatchModel{
		runner:   r,
		sub:      sub,
		title:    title,
		readOnly: readOnly,
		frame:    runner.Frame{Tick: w.CurrentTick, World: w, Digest: r.Digest(), Paused: w.IsPaused},
		recent:   r.History().Recent(eventLogSize),
		help:     help.New(),
		keys:     keys,
		theme:    DefaultTheme(),
		width:    100,
		height:   30,
	}
	m.table = m.createTable()
	m.table.SetRows(NodeRows(w))
	return m
}

func (m *WatchModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Node", Width: 10},
		{Title: "Owner", Width: 10},
		{Title: "Status", Width: 10},
		{Title: "Control", Width: 9},
		{Title: "Resources", Width: 30},
	}
	if extra := m.width - 4 - 10 - 10 - 10 - 9 - 30 - 10; extra > 0 {
		columns[4].Width += min(extra, 30)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(minTableHeight, m.height-reservedRows-eventLogSize)),
	)
	t.SetStyles(m.theme.TableStyles())
	return t
}

// NodeRows renders one table row per node, sorted by id.
func NodeRows(w *world.World) []table.Row {
	ids := w.NodeIDs()
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		n := w.Nodes[id]
		owner := n.OwnerID
		if owner == "" {
			owner = "-"
		}
		rows = append(rows, table.Row{
			n.ID,
			owner,
			string(n.Status),
			fmt.Sprintf("%d/%d", n.ControlPoints, n.MaxPoints()),
			formatResources(n.Resources),
		})
	}
	return rows
}

func formatResources(rs []world.Resource) string {
	if len(rs) == 0 {
		return "-"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("%s %.0f/%.0f", r.Type, r.Amount, r.Capacity)
	}
	return strings.Join(parts, ", ")
}

// FormatEvent renders an event as a single log line.
func FormatEvent(e world.GameEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t%-4d %-22s %s", e.Tick, e.Type, e.EntityID)
	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
		}
	}
	return b.String()
}

// Init starts listening for frames.
func (m WatchModel) Init() tea.Cmd {
	return waitForFrame(m.sub)
}

// Update handles messages and updates the model state.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		m.apply(runner.Frame(msg))
		return m, waitForFrame(m.sub)

	case ClosedMsg:
		m.ended = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		cursor := m.table.Cursor()
		m.table = m.createTable()
		m.table.SetRows(NodeRows(m.frame.World))
		m.table.SetCursor(cursor)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sub.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.frame.Paused = m.runner.TogglePause()
		return m, nil

	case key.Matches(msg, m.keys.Step):
		// The frame arrives through the subscription.
		if _, err := m.runner.Advance(); err != nil {
			m.err = err
		} else {
			m.err = nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Faster):
		m.runner.SetSpeed(min(m.frame.World.Speed*2, 64))
		return m, nil

	case key.Matches(msg, m.keys.Slower):
		m.runner.SetSpeed(max(m.frame.World.Speed/2, 0.125))
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// apply folds a frame into the view state.
func (m *WatchModel) apply(f runner.Frame) {
	m.frame = f
	m.recent = append(m.recent, f.Events...)
	if over := len(m.recent) - eventLogSize; over > 0 {
		m.recent = slices.Clone(m.recent[over:])
	}
	cursor := m.table.Cursor()
	m.table.SetRows(NodeRows(f.World))
	m.table.SetCursor(cursor)
}

// Frame returns the last frame the model has seen.
func (m WatchModel) Frame() runner.Frame {
	return m.frame
}

// IsQuitting returns true if the user asked to leave.
func (m WatchModel) IsQuitting() bool {
	return m.quitting
}

// View renders the watch screen.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}
	w := m.frame.World
	t := m.theme

	var b strings.Builder

	header := fmt.Sprintf("%s  %s %s  %s %s  %s %gx",
		t.Title.Render(strings.ToUpper(m.title)),
		t.Dim.Render("tick"), t.Value.Render(fmt.Sprint(w.CurrentTick)),
		t.Dim.Render("digest"), t.Value.Render(m.frame.Digest),
		t.Dim.Render("speed"), w.Speed)
	switch {
	case m.ended:
		header += "  " + t.Paused.Render("ENDED")
	case w.IsPaused:
		header += "  " + t.Paused.Render("PAUSED")
	}
	if m.readOnly {
		header += "  " + t.Dim.Render("spectating")
	}
	b.WriteString(header)
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(t.Paused.Render("step failed: " + m.err.Error()))
	}
	b.WriteString("\n")

	players := w.Players()
	var owners strings.Builder
	for i, p := range players {
		if i > 0 {
			owners.WriteString("  ")
		}
		fmt.Fprintf(&owners, "%s %d", t.Player(players, p).Render(p), w.NodesOwnedBy(p))
	}
	contested := 0
	for _, n := range w.Nodes {
		if n.Status == world.StatusContested {
			contested++
		}
	}
	if contested > 0 {
		fmt.Fprintf(&owners, "  %s", t.Status(world.StatusContested).Render(fmt.Sprintf("%d contested", contested)))
	}
	if owners.Len() > 0 {
		b.WriteString(owners.String())
		b.WriteString("\n")
	}

	b.WriteString(t.Panel.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(t.Panel.Render(m.renderLog()))
	b.WriteString("\n")
	b.WriteString(t.Help.Render(m.help.View(m.keys)))

	return b.String()
}

func (m WatchModel) renderLog() string {
	if len(m.recent) == 0 {
		return m.theme.Empty.Render("No events yet.")
	}
	lines := make([]string, len(m.recent))
	for i, e := range m.recent {
		line := FormatEvent(e)
		if m.width > 8 {
			line = ansi.Truncate(line, m.width-6, ".")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// RunModel runs a screen full-screen in the local terminal until it quits.
// For a WatchModel the caller drives the runner.
func RunModel(model tea.Model) error {
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
