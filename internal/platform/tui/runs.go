package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/nodewar/internal/storage"
)

// Runs browser layout constants
const (
	minWidthForSidebar = 80 // Minimum width to show the run list sidebar
	sidebarWidth       = 24
	maxRuns            = 50
)

// RunsModel is the Bubble Tea model for browsing recorded runs and their
// per-tick digests.
type RunsModel struct {
	store       *storage.Store
	runs        []storage.Run
	cursor      int
	digests     []storage.TickDigest
	err         error
	table       table.Model
	help        help.Model
	keys        RunsKeyMap
	theme       Theme
	width       int
	height      int
	quitting    bool
	showSidebar bool
}

// NewRunsModel creates a runs browser over store.
func NewRunsModel(store *storage.Store, width, height int) RunsModel {
	m := RunsModel{
		store:       store,
		keys:        DefaultRunsKeyMap(),
		help:        help.New(),
		theme:       DefaultTheme(),
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.table = m.createTable()

	runs, err := store.Runs(maxRuns)
	if err != nil {
		m.err = err
		return m
	}
	m.runs = runs
	if len(m.runs) > 0 {
		m.loadDigests()
	}
	return m
}

func (m *RunsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Tick", Width: 8},
		{Title: "Digest", Width: 18},
		{Title: "Events", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(minTableHeight, m.height-8)),
	)
	t.SetStyles(m.theme.TableStyles())
	return t
}

func (m *RunsModel) loadDigests() {
	digests, err := m.store.Digests(m.runs[m.cursor].ID)
	if err != nil {
		m.err = err
		digests = nil
	}
	m.digests = digests

	rows := make([]table.Row, len(digests))
	for i, d := range digests {
		rows[i] = table.Row{fmt.Sprint(d.Tick), d.Digest, fmt.Sprint(d.Events)}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the runs browser.
func (m RunsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs browser.
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextRun):
			if len(m.runs) > 0 {
				m.cursor = (m.cursor + 1) % len(m.runs)
				m.loadDigests()
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevRun):
			if len(m.runs) > 0 {
				m.cursor = (m.cursor - 1 + len(m.runs)) % len(m.runs)
				m.loadDigests()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		if len(m.runs) > 0 {
			m.loadDigests()
		}
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Selected returns the run under the cursor, if any.
func (m RunsModel) Selected() (storage.Run, bool) {
	if len(m.runs) == 0 {
		return storage.Run{}, false
	}
	return m.runs[m.cursor], true
}

// View renders the runs browser.
func (m RunsModel) View() string {
	if m.quitting {
		return ""
	}
	t := m.theme

	var b strings.Builder
	title := "RECORDED RUNS"
	if r, ok := m.Selected(); ok {
		title = fmt.Sprintf("RUN %s  %s  ticks %d-%d", shortID(r.ID), r.Scenario, r.StartedTick, r.LastTick)
	}
	b.WriteString(t.Title.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if m.showSidebar {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), "  ", t.Panel.Render(m.renderTableContent())))
	} else {
		b.WriteString(t.Panel.Render(m.renderTableContent()))
	}

	b.WriteString("\n")
	b.WriteString(t.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m RunsModel) renderSidebar() string {
	var sidebar strings.Builder
	sidebar.WriteString("Runs\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, r := range m.runs {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.cursor {
			cursor = "> "
			style = m.theme.Title
		}
		name := fmt.Sprintf("%s %s", shortID(r.ID), r.Scenario)
		if maxLen := sidebarWidth - 6; len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	return m.theme.Panel.Width(sidebarWidth).Render(sidebar.String())
}

func (m RunsModel) renderTableContent() string {
	switch {
	case m.err != nil:
		return m.theme.Empty.Render("Could not read runs: " + m.err.Error())
	case len(m.runs) == 0:
		return m.theme.Empty.Render("No runs recorded yet.\nRecord one with: nodewar run <scenario> --db <path>")
	case len(m.digests) == 0:
		return m.theme.Empty.Render("This run has no saved ticks.")
	}
	return m.table.View()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RunRunsBrowser runs the runs browser until the user quits.
func RunRunsBrowser(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewRunsModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
