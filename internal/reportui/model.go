// Package reportui provides the Bubble Tea report viewer.
package reportui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tally/internal/aggregate"
	"github.com/verte-zerg/tally/internal/model"
	"github.com/verte-zerg/tally/internal/query"
	"github.com/verte-zerg/tally/internal/report"
)

const (
	tabSummary = iota
	tabTable
	tabChart
)

const defaultWidth = 80

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	dateStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea report viewer.
type Model struct {
	agg    *aggregate.Aggregate
	filter model.Filter
	source string

	sections []report.Section

	tabs      []string
	activeTab int
	viewports []viewport.Model
	entries   table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a viewer over agg, starting with filter applied.
func NewModel(agg *aggregate.Aggregate, filter model.Filter, source string) *Model {
	m := &Model{
		agg:    agg,
		filter: filter,
		source: source,
		tabs:   []string{"Summary", "Table", "Chart"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.filterInputs = []textinput.Model{
		newFilterInput("Dates (dd-mm-yyyy, one or two): "),
		newFilterInput("Names (comma separated): "),
	}
	m.entries = buildEntryTable(nil, defaultWidth, 10)
	m.refresh()
	return m
}

// Sections returns the sections currently shown.
func (m *Model) Sections() []report.Section {
	return m.sections
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabTable {
				m.entries.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTable {
				m.entries.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabTable {
				m.entries, cmd = m.entries.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) refresh() {
	m.sections = report.Project(m.agg, m.filter)
	m.entries.SetRows(entryRows(m.sections))
	m.renderTabContents()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.entries.SetWidth(m.width)
	m.entries.SetHeight(max(bodyHeight-1, 1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabTable {
		m.entries.Focus()
	} else {
		m.entries.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	dates := "all"
	if n := len(m.filter.Dates); n == 1 {
		dates = m.filter.Dates[0].String()
	} else if n > 1 {
		dates = fmt.Sprintf("%s..%s", m.filter.Dates[0], m.filter.Dates[n-1])
	}
	names := "all"
	if len(m.filter.Names) > 0 {
		names = strings.Join(m.filter.Names, ",")
	}
	summary := fmt.Sprintf("File: %s  dates=%s  names=%s  days=%d", m.source, dates, names, len(m.sections))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Filter: /  Quit: q")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel, empty = all)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabTable {
		if len(m.sections) == 0 {
			return fitLines("No records found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.entries.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	m.viewports[tabSummary].SetContent(renderSummary(m.sections))
	m.viewports[tabChart].SetContent(renderChart(m.sections, width))
}

func renderSummary(sections []report.Section) string {
	if len(sections) == 0 {
		return "No records found."
	}
	lines := report.Lines(sections)
	for i, line := range lines {
		if strings.HasPrefix(line, "date: ") {
			lines[i] = dateStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderChart(sections []report.Section, width int) string {
	if len(sections) == 0 {
		return "No records found."
	}
	totals := report.DailyTotals(sections)
	// label, " | ", bar, " ", duration
	barWidth := max(width-len(model.DateLayout)-3-1-len("000:00:00"), 10)
	lines := []string{
		headerStyle.Render("Trend " + report.Sparkline(totals)),
		"",
	}
	lines = append(lines, report.Bars(totals, barWidth)...)
	return strings.Join(lines, "\n")
}

func buildEntryTable(sections []report.Section, width, height int) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 10},
			{Title: "Person", Width: 24},
			{Title: "Time", Width: 10},
		}),
		table.WithRows(entryRows(sections)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(entryTableStyles())
	return t
}

func entryRows(sections []report.Section) []table.Row {
	var rows []table.Row
	for _, sec := range sections {
		for _, e := range sec.Entries {
			rows = append(rows, table.Row{sec.Date.String(), e.Identity, report.FormatDuration(e.Duration)})
		}
		rows = append(rows, table.Row{sec.Date.String(), "total", report.FormatDuration(sec.Total)})
	}
	return rows
}

func entryTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.filterInputs[0].SetValue(formatDateFilter(m.filter.Dates))
	m.filterInputs[1].SetValue(strings.Join(m.filter.Names, ","))
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case "enter":
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		return m, nil
	case "tab", "down":
		return m, m.setFilterIndex((m.filterIndex + 1) % len(m.filterInputs))
	case "shift+tab", "up":
		return m, m.setFilterIndex((m.filterIndex + len(m.filterInputs) - 1) % len(m.filterInputs))
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == idx {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	dates, err := query.ParseDates([]string{m.filterInputs[0].Value()})
	if err != nil {
		return err
	}
	names, err := query.ParseNames([]string{m.filterInputs[1].Value()})
	if err != nil {
		return err
	}
	m.filter = model.Filter{Dates: dates, Names: names}
	m.refresh()
	return nil
}

// formatDateFilter renders dates back into the form ParseDates accepts.
func formatDateFilter(dates []model.Date) string {
	const layout = "02-01-2006"
	switch len(dates) {
	case 0:
		return ""
	case 1:
		return dates[0].Midnight(time.UTC).Format(layout)
	default:
		return dates[0].Midnight(time.UTC).Format(layout) + "," + dates[len(dates)-1].Midnight(time.UTC).Format(layout)
	}
}
