package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

// Layout constants
const (
	leftPanelRatio = 0.35 // Left panel takes 35% of width
	minLeftWidth   = 30
	maxLeftWidth   = 50
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2 // Top + bottom border
)

// dueDateLayout is what the due date form accepts.
const dueDateLayout = "2006-01-02"

// Detail view styles
var (
	detailTitleStyle     = titleStyle
	detailLabelStyle     = dimStyle
	detailValueStyle     = textStyle
	scrollIndicatorStyle = lipgloss.NewStyle().Foreground(colorTide)
)

type detailMode int

const (
	detailViewing detailMode = iota
	detailEditing
	detailDueDate
	detailAssigning
	detailConfirmDelete
)

// DetailModel shows one ticket with its metadata on the left and the
// description on the right. Edits are sent to the server and shown once
// it confirms them.
type DetailModel struct {
	// Dependencies
	client *api.Client
	ctx    context.Context
	logger *slog.Logger

	ticket domain.Ticket

	// UI components
	spinner  spinner.Model
	viewport viewport.Model
	form     FormModel
	members  list.Model

	mode           detailMode
	loading        bool
	loadingMembers bool

	// View dimensions
	width  int
	height int
}

// NewDetailModel creates a new detail view model
func NewDetailModel(ticket domain.Ticket, client *api.Client, ctx context.Context, logger *slog.Logger) DetailModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorTide)

	vp := viewport.New(40, 10) // resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	m := DetailModel{
		client:   client,
		ctx:      ctx,
		logger:   logger,
		ticket:   ticket,
		spinner:  sp,
		viewport: vp,
		members:  newPicker("Assign to", nil),
	}
	m.updateViewportContent()
	return m
}

// Init refreshes the ticket from the server.
func (m DetailModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.loadTicket())
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case detailLoadedMsg:
		if t, ok := msg.res.Value(); ok && msg.err == nil && t.ID == m.ticket.ID {
			m.ticket = t
			m.updateViewportContent()
		}
		return m, nil

	case ticketChangedMsg:
		if msg.ticket.ID != m.ticket.ID {
			return m, nil
		}
		m.ticket = msg.ticket
		m.loading = false
		m.mode = detailViewing
		m.updateViewportContent()
		return m, nil

	case ticketDeletedMsg:
		if msg.id == m.ticket.ID {
			return m, func() tea.Msg { return backMsg{} }
		}
		return m, nil

	case detailFailedMsg:
		m.loading = false
		if m.mode == detailEditing || m.mode == detailDueDate {
			if msg.err == nil {
				m.form.SetErrors(msg.res.Errors())
				return m, nil
			}
			m.form.SetBusy(false)
		}
		reportFailure(m.logger, msg.action, msg.res.Status(), msg.res.Message(), msg.err)
		return m, nil

	case projectMembersMsg:
		m.loadingMembers = false
		users, ok := msg.res.Value()
		if msg.err != nil || !ok {
			m.mode = detailViewing
			reportFailure(m.logger, "Could not load project members", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		items := make([]list.Item, len(users))
		for i, u := range users {
			items[i] = newItem(u, u.Username, fmt.Sprintf("user %d", u.ID))
		}
		cmd := m.members.SetItems(items)
		return m, cmd

	case formSubmittedMsg:
		return m.submit(msg)

	case formCancelledMsg:
		m.mode = detailViewing
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if m.mode == detailViewing {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	switch m.mode {
	case detailEditing, detailDueDate:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case detailAssigning:
		var cmd tea.Cmd
		m.members, cmd = m.members.Update(msg)
		return m, cmd
	}
	return m, nil
}

// resizeComponents calculates and sets component dimensions
func (m *DetailModel) resizeComponents() {
	leftWidth := m.leftWidth(m.width)
	rightWidth := m.width - leftWidth - 3 // gap between panels
	if rightWidth < 30 {
		rightWidth = 30
	}

	contentHeight := m.height - headerHeight - footerHeight - borderSize
	if contentHeight < 10 {
		contentHeight = 10
	}

	m.viewport.Width = rightWidth - borderSize - 2 // padding
	m.viewport.Height = contentHeight - borderSize
	m.members.SetSize(rightWidth-borderSize, contentHeight-borderSize)
	m.updateViewportContent()
}

func (m DetailModel) leftWidth(width int) int {
	w := int(float64(width) * leftPanelRatio)
	if w < minLeftWidth {
		w = minLeftWidth
	}
	if w > maxLeftWidth {
		w = maxLeftWidth
	}
	return w
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case detailEditing, detailDueDate:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case detailAssigning:
		if !filtering(m.members) {
			switch msg.String() {
			case "esc", "q":
				m.mode = detailViewing
				return m, nil
			case "enter":
				u, ok := selected[domain.UserRef](m.members)
				if !ok {
					return m, nil
				}
				m.mode = detailViewing
				m.loading = true
				return m, m.assign(u)
			}
		}
		var cmd tea.Cmd
		m.members, cmd = m.members.Update(msg)
		return m, cmd

	case detailConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.mode = detailViewing
			m.loading = true
			return m, m.delete()
		case "n", "N", "esc":
			m.mode = detailViewing
		}
		return m, nil
	}

	// Normal mode - viewport scrolling
	switch msg.String() {
	case "q", "esc", "backspace":
		return m, func() tea.Msg { return backMsg{} }
	case "o":
		if m.ticket.GithubURL == "" {
			m.logger.Warn("No GitHub link for this ticket")
			return m, nil
		}
		if err := browser.OpenURL(m.ticket.GithubURL); err != nil {
			m.logger.Error("Could not open browser", "err", err)
		}
	case "e":
		m.mode = detailEditing
		m.form = NewForm("edit", "Edit ticket",
			FormField{Key: "name", Label: "Name", Value: m.ticket.Name},
			FormField{Key: "description", Label: "Description", Value: m.ticket.Description},
			FormField{Key: "github_url", Label: "GitHub URL", Value: m.ticket.GithubURL},
		)
		return m, m.form.Init()
	case "d":
		value := ""
		if !m.ticket.DueDate.IsZero() {
			value = m.ticket.DueDate.Format(dueDateLayout)
		}
		m.mode = detailDueDate
		m.form = NewForm("duedate", "Due date",
			FormField{Key: "date", Label: "Due date", Placeholder: "YYYY-MM-DD", Value: value},
		)
		return m, m.form.Init()
	case "a":
		projectID := m.ticket.ProjectRefID()
		if projectID == 0 {
			m.logger.Warn("This ticket has no project to pick members from")
			return m, nil
		}
		m.mode = detailAssigning
		m.loadingMembers = true
		return m, m.loadMembers(projectID)
	case "x":
		m.mode = detailConfirmDelete
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

func (m DetailModel) submit(msg formSubmittedMsg) (tea.Model, tea.Cmd) {
	switch msg.id {
	case "edit":
		m.loading = true
		req := api.TicketRequest{
			Name:        strings.TrimSpace(msg.values["name"]),
			Description: msg.values["description"],
			GithubURL:   strings.TrimSpace(msg.values["github_url"]),
		}
		return m, m.save("Could not update ticket", func(ctx context.Context, c *api.Client, id int) (api.Result[domain.Ticket], error) {
			return c.UpdateTicket(ctx, id, req)
		})
	case "duedate":
		when, err := time.ParseInLocation(dueDateLayout, strings.TrimSpace(msg.values["date"]), time.Local)
		if err != nil {
			m.form.SetErrors([]api.FieldError{{Property: "date", Message: "Enter a valid date."}})
			return m, nil
		}
		m.loading = true
		req := api.NewDueDateRequest(when)
		return m, m.save("Could not change due date", func(ctx context.Context, c *api.Client, id int) (api.Result[domain.Ticket], error) {
			return c.ChangeTicketDueDate(ctx, id, req)
		})
	}
	return m, nil
}

// save runs a ticket mutation. Success is broadcast so every screen
// showing the ticket picks it up.
func (m DetailModel) save(action string, call func(context.Context, *api.Client, int) (api.Result[domain.Ticket], error)) tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.ticket.ID
	return func() tea.Msg {
		res, err := call(ctx, client, id)
		if t, ok := res.Value(); ok && err == nil {
			return ticketChangedMsg{ticket: t}
		}
		return detailFailedMsg{action: action, res: res, err: err}
	}
}

func (m DetailModel) assign(u domain.UserRef) tea.Cmd {
	return m.save("Could not assign ticket", func(ctx context.Context, c *api.Client, id int) (api.Result[domain.Ticket], error) {
		return c.AssignTicket(ctx, id, u.ID)
	})
}

func (m DetailModel) delete() tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.ticket.ID
	return func() tea.Msg {
		res, err := client.DeleteTicket(ctx, id)
		if err == nil && res.OK() {
			return ticketDeletedMsg{id: id}
		}
		failed := api.Fail[domain.Ticket](res.Status(), res.Errors()...)
		return detailFailedMsg{action: "Could not delete ticket", res: failed, err: err}
	}
}

func (m DetailModel) loadTicket() tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.ticket.ID
	return func() tea.Msg {
		res, err := client.GetTicket(ctx, id)
		return detailLoadedMsg{res: res, err: err}
	}
}

func (m DetailModel) loadMembers(projectID int) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.ProjectUsers(ctx, projectID)
		return projectMembersMsg{res: res, err: err}
	}
}

// View renders the split-screen detail view
func (m DetailModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	leftWidth := m.leftWidth(width)
	rightWidth := width - leftWidth - 1 // 1 char gap

	contentHeight := height - headerHeight - footerHeight
	if contentHeight < 10 {
		contentHeight = 10
	}

	header := m.renderHeader()

	leftPanel := panelStyle.
		Width(leftWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderLeftPanel(leftWidth - borderSize))

	rightPanel := focusedPanelStyle.
		Width(rightWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderRightPanel(rightWidth - borderSize))

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)
	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.renderFooter(width))
}

// renderHeader renders the top help bar
func (m DetailModel) renderHeader() string {
	switch m.mode {
	case detailConfirmDelete:
		return warningStyle.Render(fmt.Sprintf("Delete ticket #%d? [Y]delete [N]cancel", m.ticket.Number))
	case detailAssigning:
		return dimStyle.Render("[enter]assign [/]search [esc]cancel")
	case detailEditing, detailDueDate:
		return dimStyle.Render("[tab]next [enter]save [esc]cancel")
	}
	parts := []string{"[q]back", "[e]edit", "[d]due date", "[a]assign", "[x]delete", "[j/k]scroll"}
	if m.ticket.GithubURL != "" {
		parts = append(parts, "[o]open")
	}
	return dimStyle.Render(strings.Join(parts, " "))
}

// renderFooter renders the bottom status bar
func (m DetailModel) renderFooter(width int) string {
	left := ""
	if m.loading {
		left = m.spinner.View() + " Saving..."
	}

	right := ""
	if m.mode == detailViewing && m.viewport.TotalLineCount() > m.viewport.Height {
		switch {
		case m.viewport.AtTop():
			right = "TOP"
		case m.viewport.AtBottom():
			right = "END"
		default:
			right = fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderLeftPanel renders the ticket metadata panel
func (m DetailModel) renderLeftPanel(width int) string {
	var b strings.Builder
	t := m.ticket

	label := "Ticket"
	if t.Number > 0 {
		label = fmt.Sprintf("Ticket #%d", t.Number)
	}
	b.WriteString(detailLabelStyle.Render(label))
	b.WriteString("\n\n")

	b.WriteString(detailTitleStyle.Render(wordwrap.String(t.Name, width-2)))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(detailLabelStyle.Render(name + ": "))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}

	if project := t.ProjectLabel(); project != "" {
		field("Project", project)
	}

	stateStyle := detailValueStyle.Foreground(stateColor(t.State))
	b.WriteString(detailLabelStyle.Render("State: "))
	b.WriteString(stateStyle.Render(t.State.Title()))
	b.WriteString("\n")

	assignee := t.Assignee()
	if assignee == "" {
		assignee = "unassigned"
	}
	field("Assigned", assignee)
	field("Due", t.DueDate.DateString())
	field("Created", t.CreatedAt.DateString())
	if t.GithubURL != "" {
		url := t.GithubURL
		if len(url) > width-10 && width > 13 {
			url = url[:width-13] + "..."
		}
		field("GitHub", url)
	}

	return b.String()
}

// renderRightPanel renders the description, the member picker or a form
func (m DetailModel) renderRightPanel(width int) string {
	switch m.mode {
	case detailEditing, detailDueDate:
		return m.form.View(width)
	case detailAssigning:
		if m.loadingMembers {
			return m.spinner.View() + " Loading members..."
		}
		return m.members.View()
	}

	var b strings.Builder
	scrollHint := ""
	if m.viewport.TotalLineCount() > m.viewport.Height {
		switch {
		case m.viewport.AtTop():
			scrollHint = " ↓"
		case m.viewport.AtBottom():
			scrollHint = " ↑"
		default:
			scrollHint = " ↕"
		}
	}
	b.WriteString(detailLabelStyle.Render("Description"))
	b.WriteString(scrollIndicatorStyle.Render(scrollHint))
	b.WriteString("\n")

	if strings.TrimSpace(m.ticket.Description) == "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No description. Press 'e' to add one."))
		return b.String()
	}
	b.WriteString(m.viewport.View())
	return b.String()
}

// updateViewportContent wraps the description to the viewport width.
func (m *DetailModel) updateViewportContent() {
	wrapWidth := m.viewport.Width - 4
	if wrapWidth < 30 {
		wrapWidth = 30
	}
	m.viewport.SetContent(detailValueStyle.Render(wordwrap.String(m.ticket.Description, wrapWidth)))
}

// Message types for detail view
type (
	detailLoadedMsg struct {
		res api.Result[domain.Ticket]
		err error
	}
	detailFailedMsg struct {
		action string
		res    api.Result[domain.Ticket]
		err    error
	}
	projectMembersMsg struct {
		res api.Result[[]domain.UserRef]
		err error
	}
)

func (detailLoadedMsg) screen() AppScreen   { return ScreenDetail }
func (detailFailedMsg) screen() AppScreen   { return ScreenDetail }
func (projectMembersMsg) screen() AppScreen { return ScreenDetail }
