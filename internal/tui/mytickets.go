package tui

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/store"
)

// MyTicketsModel lists the tickets assigned to the signed-in user across
// every project.
type MyTicketsModel struct {
	logger *slog.Logger

	tickets []domain.Ticket
	visible []domain.Ticket
	table   table.Model
	search  textinput.Model

	searching bool
	query     string
	sortIdx   int
	ascending bool

	width  int
	height int
}

// NewMyTicketsModel creates the list from the current user's tickets.
func NewMyTicketsModel(tickets []domain.Ticket, logger *slog.Logger) MyTicketsModel {
	ti := textinput.New()
	ti.Placeholder = "Search tickets..."
	ti.CharLimit = 100

	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(colorTide).BorderForeground(colorRock)
	styles.Selected = styles.Selected.Foreground(colorInk).Background(colorTide)
	t.SetStyles(styles)

	m := MyTicketsModel{
		logger:    logger,
		tickets:   append([]domain.Ticket(nil), tickets...),
		table:     t,
		search:    ti,
		ascending: true,
	}
	m.resize(80, 24)
	m.refresh()
	return m
}

func (m MyTicketsModel) sortKey() store.SortKey {
	return store.ListSortKeys[m.sortIdx]
}

// refresh re-sorts and re-filters the rows, keeping the cursor on the same ticket.
func (m *MyTicketsModel) refresh() {
	var keep int
	if cur := m.table.Cursor(); cur >= 0 && cur < len(m.visible) {
		keep = m.visible[cur].ID
	}
	store.SortTickets(m.tickets, m.sortKey(), m.ascending)
	m.visible = store.FilterTickets(m.tickets, m.query)

	rows := make([]table.Row, len(m.visible))
	cursor := 0
	for i, t := range m.visible {
		due := t.DueDate.DateString()
		if due == "" {
			due = "-"
		}
		rows[i] = table.Row{fmt.Sprintf("#%d", t.Number), t.Name, t.ProjectLabel(), t.State.Title(), due}
		if t.ID == keep {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m *MyTicketsModel) resize(width, height int) {
	m.width, m.height = width, height
	name := max(10, width-6-16-14-12-12)
	m.table.SetColumns([]table.Column{
		{Title: "#", Width: 6},
		{Title: "Name", Width: name},
		{Title: "Project", Width: 16},
		{Title: "State", Width: 14},
		{Title: "Due", Width: 12},
	})
	m.table.SetWidth(width)
	m.table.SetHeight(max(3, height-4))
}

func (m MyTicketsModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m MyTicketsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case ticketChangedMsg:
		for i := range m.tickets {
			if m.tickets[i].ID == msg.ticket.ID {
				m.tickets[i] = msg.ticket
			}
		}
		m.refresh()
		return m, nil

	case ticketDeletedMsg:
		for i := range m.tickets {
			if m.tickets[i].ID == msg.id {
				m.tickets = append(m.tickets[:i], m.tickets[i+1:]...)
				break
			}
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		switch msg.String() {
		case "q", "esc", "backspace":
			return m, func() tea.Msg { return backMsg{} }
		case "/":
			m.searching = true
			m.search.SetValue(m.query)
			cmd := m.search.Focus()
			return m, cmd
		case "s":
			m.sortIdx = (m.sortIdx + 1) % len(store.ListSortKeys)
			m.refresh()
			m.logger.Debug("Sorted tickets", "key", m.sortKey().String())
			return m, nil
		case "S":
			m.ascending = !m.ascending
			m.refresh()
			return m, nil
		case "enter":
			if cur := m.table.Cursor(); cur >= 0 && cur < len(m.visible) {
				t := m.visible[cur]
				return m, func() tea.Msg { return openDetailMsg{ticket: t} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m MyTicketsModel) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.query = ""
		m.refresh()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m MyTicketsModel) View() string {
	order := "↑"
	if !m.ascending {
		order = "↓"
	}
	header := titleStyle.Render("My tickets") +
		dimStyle.Render(fmt.Sprintf("  %d of %d · sorted by %s %s", len(m.visible), len(m.tickets), m.sortKey(), order))

	var bar string
	switch {
	case m.searching:
		bar = m.search.View()
	case m.query != "":
		bar = dimStyle.Render("search: " + m.query)
	}

	body := m.table.View()
	if len(m.visible) == 0 {
		body = dimStyle.Render("No tickets assigned to you.")
	}
	footer := dimStyle.Render("enter:open /:search s:sort S:reverse esc:back")
	return lipgloss.JoinVertical(lipgloss.Left, header, bar, body, footer)
}
