// Package tui implements a full-screen review table for classified BOM
// rows using bubbletea.
package tui

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 120
	defaultHeight = 24
	chromeHeight  = 8
)

// Model is the bubbletea model of the review screen.
type Model struct {
	keys             KeyMap
	help             help.Model
	theme            themes.Theme
	table            table.Model
	rows             []model.ClassifiedRow
	visible          []int
	status           string
	width            int
	height           int
	onlyUnclassified bool
	saved            bool
	quitting         bool
}

// NewModel builds the review screen for rows. The rows are copied; read
// the corrections back with Rows. With onlyUnclassified set the table
// starts filtered to rows the classifier could not label.
func NewModel(rows []model.ClassifiedRow, onlyUnclassified bool, theme themes.Theme) Model {
	data := make([]model.ClassifiedRow, len(rows))
	copy(data, rows)

	t := table.New(
		table.WithColumns(columnsFor(defaultWidth)),
		table.WithFocused(true),
		table.WithHeight(defaultHeight-chromeHeight),
	)

	s := table.DefaultStyles()
	s.Header = theme.Header
	s.Selected = theme.Selected
	t.SetStyles(s)

	m := Model{
		keys:             DefaultKeyMap(),
		help:             help.New(),
		theme:            theme,
		table:            t,
		rows:             data,
		width:            defaultWidth,
		height:           defaultHeight,
		onlyUnclassified: onlyUnclassified,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Save):
			m.saved = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Active):
			m.correct(model.LabelActive)
			return m, nil
		case key.Matches(msg, m.keys.Passive):
			m.correct(model.LabelPassive)
			return m, nil
		case key.Matches(msg, m.keys.Ignore):
			m.correct(model.LabelIgnore)
			return m, nil
		case key.Matches(msg, m.keys.Unclassified):
			m.correct(model.LabelUnclassified)
			return m, nil
		case key.Matches(msg, m.keys.Reset):
			m.reset()
			return m, nil
		case key.Matches(msg, m.keys.ToggleFilter):
			m.onlyUnclassified = !m.onlyUnclassified
			m.refresh()
			m.table.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.ToggleHelp):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.table.MoveUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.table.MoveDown(1)
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			m.table.MoveUp(m.table.Height())
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.table.MoveDown(m.table.Height())
			return m, nil
		case key.Matches(msg, m.keys.Home):
			m.table.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.End):
			m.table.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting || m.saved {
		return ""
	}

	title := m.theme.Title.Render("BOM review")
	filter := "all rows"
	if m.onlyUnclassified {
		filter = "unclassified rows"
	}
	subtitle := m.theme.Subtitle.Render(fmt.Sprintf("%d of %d %s · %d corrected",
		len(m.visible), len(m.rows), filter, m.Corrections()))

	parts := []string{title, subtitle, m.table.View()}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Rows returns the rows with the corrections made so far.
func (m Model) Rows() []model.ClassifiedRow {
	out := make([]model.ClassifiedRow, len(m.rows))
	copy(out, m.rows)
	return out
}

// Saved reports whether the user chose to save the corrections.
func (m Model) Saved() bool {
	return m.saved
}

// Corrections counts rows whose correction differs from the machine label.
func (m Model) Corrections() int {
	n := 0
	for _, r := range m.rows {
		if r.Corrected() {
			n++
		}
	}
	return n
}

// Selected returns the index into Rows of the highlighted row, or -1
// when the table is empty.
func (m Model) Selected() int {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.visible) {
		return -1
	}
	return m.visible[cursor]
}

func (m *Model) correct(label model.Label) {
	idx := m.Selected()
	if idx < 0 {
		return
	}

	m.setCorrection(idx, label)
	m.status = m.theme.Label(label).Render(fmt.Sprintf("Row %d → %s", idx+1, label))
	m.refresh()
	m.table.MoveDown(1)
}

func (m *Model) reset() {
	idx := m.Selected()
	if idx < 0 {
		return
	}

	m.setCorrection(idx, m.rows[idx].Classification)
	m.status = m.theme.StatusMuted.Render(fmt.Sprintf("Row %d reset", idx+1))
	m.refresh()
}

// setCorrection updates a copy of the rows so earlier Model values
// keep their state.
func (m *Model) setCorrection(idx int, label model.Label) {
	rows := make([]model.ClassifiedRow, len(m.rows))
	copy(rows, m.rows)
	rows[idx].CorrectClassification = label
	m.rows = rows
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	m.table.SetColumns(columnsFor(width))
	if h := height - chromeHeight; h > 3 {
		m.table.SetHeight(h)
	}
}

// refresh rebuilds the visible rows from the current filter.
func (m *Model) refresh() {
	m.visible = make([]int, 0, len(m.rows))
	for i, r := range m.rows {
		if m.onlyUnclassified && r.Classification != model.LabelUnclassified {
			continue
		}
		m.visible = append(m.visible, i)
	}

	rows := make([]table.Row, len(m.visible))
	for i, idx := range m.visible {
		r := m.rows[idx]
		correct := r.CorrectClassification.String()
		if r.Corrected() {
			correct += " *"
		}
		rows[i] = table.Row{
			strconv.Itoa(idx + 1),
			r.Row.Type.Value,
			r.Row.Description.Value,
			r.Row.Model.Value,
			r.Classification.String(),
			correct,
			r.MatchedKeyword,
		}
	}
	m.table.SetRows(rows)

	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// columnsFor splits width across the table columns, giving the
// description whatever the fixed columns leave.
func columnsFor(width int) []table.Column {
	fixed := []table.Column{
		{Title: "#", Width: 5},
		{Title: model.ColumnType, Width: 14},
		{Title: model.ColumnDescription},
		{Title: model.ColumnModel, Width: 16},
		{Title: model.ColumnClassification, Width: 14},
		{Title: "Correct", Width: 16},
		{Title: "Keyword", Width: 14},
	}

	used := 0
	for _, c := range fixed {
		used += c.Width + 2
	}
	fixed[2].Width = max(width-used-2, 20)
	return fixed
}

// summary describes the outcome for the terminal after the program exits.
func (m Model) summary() string {
	if !m.saved {
		return "review canceled"
	}
	return fmt.Sprintf("%d corrections saved", m.Corrections())
}
