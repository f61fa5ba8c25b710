package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
)

// HomeModel lists the signed-in user's groups.
type HomeModel struct {
	client  *api.Client
	ctx     context.Context
	logger  *slog.Logger
	session *session.Session

	list list.Model
	form *FormModel

	width  int
	height int
}

// NewHomeModel creates the group picker for s.
func NewHomeModel(s *session.Session, client *api.Client, ctx context.Context, logger *slog.Logger) HomeModel {
	m := HomeModel{
		client:  client,
		ctx:     ctx,
		logger:  logger,
		session: s,
		list:    newPicker("Your groups", nil),
	}
	m.setGroups()
	return m
}

func (m *HomeModel) setGroups() {
	groups := m.session.Groups()
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		desc := "member"
		if g.CreatorID == m.session.UserID() {
			desc = "created by you"
		}
		items[i] = newItem(g, g.Name, desc)
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("%s's groups", m.session.Username())
}

func (m HomeModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m HomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 2)
		return m, nil

	case sessionChangedMsg:
		m.session = msg.session
		m.setGroups()
		return m, nil

	case groupCreatedMsg:
		g, ok := msg.res.Value()
		if msg.err != nil || !ok {
			if m.form != nil && msg.err == nil {
				m.form.SetErrors(msg.res.Errors())
				return m, nil
			}
			m.form = nil
			reportFailure(m.logger, "Could not create group", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.form = nil
		m.logger.Info("Group created", "group", g.ID)
		next := m.session.WithGroup(g.Ref())
		return m, func() tea.Msg { return sessionChangedMsg{session: next} }

	case formSubmittedMsg:
		return m, m.createGroup(msg.values["name"])

	case formCancelledMsg:
		m.form = nil
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			form, cmd := m.form.Update(msg)
			m.form = &form
			return m, cmd
		}
		if !filtering(m.list) {
			switch msg.String() {
			case "q", "esc":
				return m, func() tea.Msg { return QuitMsg{} }
			case "enter":
				if g, ok := selected[domain.GroupRef](m.list); ok {
					return m, func() tea.Msg { return openGroupMsg{groupID: g.ID} }
				}
				return m, nil
			case "n":
				form := NewForm("group", "New group", FormField{Key: "name", Label: "Name"})
				m.form = &form
				return m, form.Init()
			case "t":
				return m, func() tea.Msg { return openMyTicketsMsg{} }
			case "A":
				return m, func() tea.Msg { return openAdminMsg{} }
			case "L":
				return m, func() tea.Msg { return logoutMsg{} }
			}
		}
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m HomeModel) createGroup(name string) tea.Cmd {
	client, ctx := m.client, m.ctx
	req := api.GroupRequest{Name: strings.TrimSpace(name)}
	return func() tea.Msg {
		res, err := client.CreateGroup(ctx, req)
		return groupCreatedMsg{res: res, err: err}
	}
}

func (m HomeModel) View() string {
	if m.form != nil {
		return lipgloss.Place(max(m.width, 40), max(m.height, 10), lipgloss.Center, lipgloss.Center, m.form.View(min(50, max(m.width, 40))))
	}
	hints := "enter:open n:new group t:my tickets L:log out"
	if m.session.IsAdmin() {
		hints += " A:admin"
	}
	return m.list.View() + "\n" + dimStyle.Render(hints)
}

type groupCreatedMsg struct {
	res api.Result[domain.Group]
	err error
}

func (groupCreatedMsg) screen() AppScreen { return ScreenHome }
